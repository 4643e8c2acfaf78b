package httpsig

import (
	"bytes"
	"errors"
	"net/http"
	"testing"
	"time"
)

func newSignedRequest(t *testing.T, kp *Keypair, body string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, "https://example.com/users/alice/inbox", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if err := Sign(req, "https://example.com/users/alice#main-key", kp.PrivateKeyPEM, SignOptions{}); err != nil {
		t.Fatalf("sign: %v", err)
	}
	// Sign reads and restores req.Body with the bytes it signed, matching
	// what a real server sees when it reads the body once to verify it.
	return req
}

func TestSignThenVerifyRoundTrips(t *testing.T) {
	kp, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}

	req := newSignedRequest(t, kp, `{"type":"Follow"}`)

	keyID, err := Verify(req, kp.PublicKeyPEM, VerifyOptions{})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if keyID != "https://example.com/users/alice#main-key" {
		t.Fatalf("unexpected keyID: %s", keyID)
	}
}

func TestVerifyFailsWithMismatchedKey(t *testing.T) {
	kp, _ := GenerateKeypair()
	other, _ := GenerateKeypair()

	req := newSignedRequest(t, kp, `{"type":"Follow"}`)

	if _, err := Verify(req, other.PublicKeyPEM, VerifyOptions{}); err == nil {
		t.Fatal("expected verification failure with mismatched key")
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	kp, _ := GenerateKeypair()
	req := newSignedRequest(t, kp, `{"type":"Follow"}`)

	sigHeader := req.Header.Get("Signature")
	tampered := sigHeader[:len(sigHeader)-2] + "AA\""
	req.Header.Set("Signature", tampered)

	if _, err := Verify(req, kp.PublicKeyPEM, VerifyOptions{}); err == nil {
		t.Fatal("expected verification failure for tampered signature")
	}
}

func TestVerifyRejectsClockSkew(t *testing.T) {
	kp, _ := GenerateKeypair()
	req := newSignedRequest(t, kp, "")

	future := func() time.Time { return time.Now().Add(time.Hour) }
	_, err := Verify(req, kp.PublicKeyPEM, VerifyOptions{Now: future})
	if !errors.Is(err, ErrClockSkew) {
		t.Fatalf("expected ErrClockSkew, got %v", err)
	}
}

func TestCompatModeIgnoresClockSkew(t *testing.T) {
	kp, _ := GenerateKeypair()
	req := newSignedRequest(t, kp, "")

	future := func() time.Time { return time.Now().Add(time.Hour) }
	if _, err := Verify(req, kp.PublicKeyPEM, VerifyOptions{Compat: true, Now: future}); err != nil {
		t.Fatalf("compat mode should ignore clock skew, got: %v", err)
	}
}

func TestVerifyRejectsMissingSignatureHeader(t *testing.T) {
	kp, _ := GenerateKeypair()
	req := newSignedRequest(t, kp, "")
	req.Header.Del("Signature")

	_, err := Verify(req, kp.PublicKeyPEM, VerifyOptions{})
	if !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
}

func TestActorFromKeyID(t *testing.T) {
	actor := ActorFromKeyID("https://example.com/users/alice#main-key")
	if actor != "https://example.com/users/alice" {
		t.Fatalf("unexpected actor: %s", actor)
	}
}
