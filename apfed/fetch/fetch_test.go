package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/driftwood-dev/apfed/apfed"
)

type testActor struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func (a testActor) VerifyAgainstHost(expectedHost string) error {
	u, err := url.Parse(a.ID)
	if err != nil {
		return err
	}
	if u.Host != expectedHost {
		return fmt.Errorf("id host %q != expected %q", u.Host, expectedHost)
	}
	return nil
}

func newRequestData(t *testing.T, cfg *apfed.Config) *apfed.RequestData {
	t.Helper()
	return cfg.NewRequestData(context.Background())
}

func TestDereferenceSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := testActor{ID: "http://" + r.Host + "/users/alice", Type: "Person"}
		json.NewEncoder(w).Encode(actor)
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	cfg, err := apfed.NewConfig("local.test", apfed.WithAllowHTTP(host))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	rd := newRequestData(t, cfg)

	id, err := apfed.NewObjectId[testActor](srv.URL+"/users/alice", cfg)
	if err != nil {
		t.Fatalf("object id: %v", err)
	}

	actor, err := Dereference[testActor](context.Background(), id, rd, Option[testActor]{})
	if err != nil {
		t.Fatalf("dereference: %v", err)
	}
	if actor.Type != "Person" {
		t.Fatalf("unexpected type: %s", actor.Type)
	}
}

func TestDereferenceFailsOnIdHostMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := testActor{ID: "http://evil.test/users/alice", Type: "Person"}
		json.NewEncoder(w).Encode(actor)
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	cfg, _ := apfed.NewConfig("local.test", apfed.WithAllowHTTP(host))
	rd := newRequestData(t, cfg)

	id, _ := apfed.NewObjectId[testActor](srv.URL+"/users/alice", cfg)
	_, err := Dereference[testActor](context.Background(), id, rd, Option[testActor]{})
	if !errors.Is(err, apfed.ErrIdHostMismatch) {
		t.Fatalf("expected ErrIdHostMismatch, got %v", err)
	}
}

func TestDereferenceRespectsBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := testActor{ID: "http://" + r.Host + "/users/alice", Type: "Person"}
		json.NewEncoder(w).Encode(actor)
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	cfg, _ := apfed.NewConfig("local.test", apfed.WithAllowHTTP(host), apfed.WithHTTPFetchLimit(2))
	rd := newRequestData(t, cfg)

	id, _ := apfed.NewObjectId[testActor](srv.URL+"/users/alice", cfg)

	for i := 0; i < 2; i++ {
		if _, err := Dereference[testActor](context.Background(), id, rd, Option[testActor]{}); err != nil {
			t.Fatalf("fetch %d: unexpected error: %v", i, err)
		}
	}
	if _, err := Dereference[testActor](context.Background(), id, rd, Option[testActor]{}); !errors.Is(err, apfed.ErrBudgetExceeded) {
		t.Fatalf("expected ErrBudgetExceeded on third call, got %v", err)
	}
}

func TestDereferenceBlockedByURLVerifier(t *testing.T) {
	cfg, _ := apfed.NewConfig("local.test", apfed.WithURLVerifier(func(ctx context.Context, u string) error {
		return fmt.Errorf("blocked")
	}))
	rd := newRequestData(t, cfg)

	id, _ := apfed.NewObjectId[testActor]("https://remote.test/users/bob", cfg)
	_, err := Dereference[testActor](context.Background(), id, rd, Option[testActor]{})
	if !errors.Is(err, apfed.ErrUrlBlocked) {
		t.Fatalf("expected ErrUrlBlocked, got %v", err)
	}
}

func TestDereferenceUsesLocalLookupWhenFresh(t *testing.T) {
	cfg, _ := apfed.NewConfig("local.test")
	rd := newRequestData(t, cfg)

	id, _ := apfed.NewObjectId[testActor]("https://remote.test/users/bob", cfg)
	cached := testActor{ID: "https://remote.test/users/bob", Type: "Person"}

	local := func(ctx context.Context, url string) (testActor, bool, bool, error) {
		return cached, true, true, nil
	}

	actor, err := Dereference[testActor](context.Background(), id, rd, Option[testActor]{Local: local})
	if err != nil {
		t.Fatalf("dereference: %v", err)
	}
	if actor != cached {
		t.Fatalf("expected cached value returned without a fetch")
	}
	if rd.RemainingBudget() != 50 {
		t.Fatalf("local hit should not consume fetch budget, remaining=%d", rd.RemainingBudget())
	}
}

func TestDereferenceVariantsTriesEachInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id":"http://%s/notes/1","type":"Note"}`, r.Host)
	}))
	defer srv.Close()

	host := srv.Listener.Addr().String()
	cfg, _ := apfed.NewConfig("local.test", apfed.WithAllowHTTP(host))
	rd := newRequestData(t, cfg)

	type note struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	asNote := func(body []byte) (testActor, error) {
		var n note
		if err := json.Unmarshal(body, &n); err != nil {
			return testActor{}, err
		}
		if n.Type != "Note" {
			return testActor{}, fmt.Errorf("not a note")
		}
		return testActor{ID: n.ID, Type: n.Type}, nil
	}
	asPerson := func(body []byte) (testActor, error) {
		var a testActor
		if err := json.Unmarshal(body, &a); err != nil {
			return testActor{}, err
		}
		if a.Type != "Person" {
			return testActor{}, fmt.Errorf("not a person")
		}
		return a, nil
	}

	result, err := DereferenceVariants[testActor](context.Background(), srv.URL+"/notes/1", rd, nil,
		[]func([]byte) (testActor, error){asPerson, asNote})
	if err != nil {
		t.Fatalf("dereference variants: %v", err)
	}
	if result.Type != "Note" {
		t.Fatalf("expected Note variant to win, got %s", result.Type)
	}
}
