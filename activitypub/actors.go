package activitypub

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/driftwood-dev/apfed/apfed"
	"github.com/driftwood-dev/apfed/db"
	"github.com/driftwood-dev/apfed/domain"
	"github.com/driftwood-dev/apfed/apfed/fetch"
	"github.com/google/uuid"
)

// actorFreshness is how long a cached remote actor is trusted before
// GetOrFetchActor re-dereferences it.
const actorFreshness = 24 * time.Hour

// ActorResponse is the wire representation of a remote actor document. It
// implements fetch.Kind and inbox.ActorKind so apfed/fetch and apfed/inbox
// can dereference and verify actors generically.
type ActorResponse struct {
	Context           interface{} `json:"@context"`
	ID                string      `json:"id"`
	Type              string      `json:"type"`
	PreferredUsername string      `json:"preferredUsername"`
	Name              string      `json:"name"`
	Summary           string      `json:"summary"`
	Inbox             string      `json:"inbox"`
	Outbox            string      `json:"outbox"`
	Endpoints         struct {
		SharedInbox string `json:"sharedInbox"`
	} `json:"endpoints"`
	Icon struct {
		Type      string `json:"type"`
		MediaType string `json:"mediaType"`
		URL       string `json:"url"`
	} `json:"icon"`
	PublicKey struct {
		ID           string `json:"id"`
		Owner        string `json:"owner"`
		PublicKeyPem string `json:"publicKeyPem"`
	} `json:"publicKey"`
}

// VerifyAgainstHost implements fetch.Kind: the actor's id must resolve to
// the host we actually fetched from, preventing cross-domain id spoofing.
func (a ActorResponse) VerifyAgainstHost(expectedHost string) error {
	parsed, err := url.Parse(a.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", apfed.ErrIdHostMismatch, err)
	}
	if parsed.Host != expectedHost {
		return fmt.Errorf("%w: id host %q != fetch host %q", apfed.ErrIdHostMismatch, parsed.Host, expectedHost)
	}
	if a.ID == "" || a.Inbox == "" || a.PublicKey.PublicKeyPem == "" {
		return fmt.Errorf("%w: actor missing required fields", apfed.ErrDeserializationFailed)
	}
	return nil
}

// PublicKeyPEM implements inbox.ActorKind.
func (a ActorResponse) PublicKeyPEM() string { return a.PublicKey.PublicKeyPem }

func toRemoteAccount(a ActorResponse) (*domain.RemoteAccount, error) {
	host, err := extractDomain(a.ID)
	if err != nil {
		return nil, err
	}
	return &domain.RemoteAccount{
		Id:             uuid.New(),
		Username:       a.PreferredUsername,
		Domain:         host,
		ActorURI:       a.ID,
		DisplayName:    a.Name,
		Summary:        a.Summary,
		InboxURI:       a.Inbox,
		OutboxURI:      a.Outbox,
		SharedInboxURI: a.Endpoints.SharedInbox,
		PublicKeyPem:   a.PublicKey.PublicKeyPem,
		AvatarURL:      a.Icon.URL,
		LastFetchedAt:  time.Now(),
	}, nil
}

func fromRemoteAccount(ra *domain.RemoteAccount) ActorResponse {
	var doc ActorResponse
	doc.ID = ra.ActorURI
	doc.PreferredUsername = ra.Username
	doc.Name = ra.DisplayName
	doc.Summary = ra.Summary
	doc.Inbox = ra.InboxURI
	doc.Outbox = ra.OutboxURI
	doc.PublicKey.PublicKeyPem = ra.PublicKeyPem
	doc.Icon.URL = ra.AvatarURL
	return doc
}

// FetchRemoteActor dereferences actorURI through apfed/fetch (budgeted,
// cached, same-origin-redirect-checked, id-verified) and upserts the result
// into the remote-account cache table.
func FetchRemoteActor(ctx context.Context, rd *apfed.RequestData, actorURI string) (*domain.RemoteAccount, error) {
	fed := GetFederation()

	id, err := apfed.NewObjectId[ActorResponse](actorURI, fed.cfg)
	if err != nil {
		return nil, err
	}

	doc, err := fetch.Dereference[ActorResponse](ctx, id, rd, fetch.Option[ActorResponse]{Cache: fed.cache})
	if err != nil {
		return nil, fmt.Errorf("activitypub: fetch actor: %w", err)
	}

	return upsertActorDoc(doc)
}

// ResolveRemoteActor resolves a "user@domain" handle via WebFinger and
// upserts the resulting actor document into the remote-account cache,
// giving ui/followuser and web.ResolveWebFinger a handle-to-actor path that
// doesn't require already knowing the actor's ActivityPub id.
func ResolveRemoteActor(ctx context.Context, handle string) (*domain.RemoteAccount, error) {
	fed := GetFederation()
	rd := fed.cfg.NewRequestData(ctx)

	doc, err := fetch.Resolve[ActorResponse](ctx, handle, rd, fed.cache)
	if err != nil {
		return nil, fmt.Errorf("activitypub: resolve actor: %w", err)
	}

	return upsertActorDoc(doc)
}

// upsertActorDoc converts a dereferenced actor document to a
// domain.RemoteAccount and stores it, updating an existing row if the
// actor URI was already cached.
func upsertActorDoc(doc ActorResponse) (*domain.RemoteAccount, error) {
	remoteAcc, err := toRemoteAccount(doc)
	if err != nil {
		return nil, err
	}

	database := db.GetDB()
	if err := database.CreateRemoteAccount(remoteAcc); err != nil {
		if err := database.UpdateRemoteAccount(remoteAcc); err != nil {
			return nil, fmt.Errorf("activitypub: store remote account: %w", err)
		}
	}
	return remoteAcc, nil
}

// GetOrFetchActor returns the cached remote actor if it's still fresh,
// otherwise re-dereferences it. rd carries the per-operation fetch budget
// and context.
func GetOrFetchActor(ctx context.Context, rd *apfed.RequestData, actorURI string) (*domain.RemoteAccount, error) {
	database := db.GetDB()
	if err, cached := database.ReadRemoteAccountByActorURI(actorURI); err == nil && cached != nil {
		if time.Since(cached.LastFetchedAt) < actorFreshness {
			return cached, nil
		}
	}
	return FetchRemoteActor(ctx, rd, actorURI)
}

// extractDomain extracts the host from an actor URI, e.g.
// "https://mastodon.social/users/alice" -> "mastodon.social".
func extractDomain(actorURI string) (string, error) {
	parsed, err := url.Parse(actorURI)
	if err != nil {
		return "", fmt.Errorf("invalid actor URI: %w", err)
	}
	return parsed.Host, nil
}

// extractUsername extracts the trailing path segment from an actor or
// handle URI, stripping a leading "@" if present.
func extractUsername(uri string) string {
	parts := strings.Split(uri, "/")
	if len(parts) > 0 {
		return strings.TrimPrefix(parts[len(parts)-1], "@")
	}
	return ""
}
