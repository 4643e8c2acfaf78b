package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/driftwood-dev/apfed/apfed"
)

// jrdLink is one entry of a WebFinger JRD document's links array.
type jrdLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type"`
	Href string `json:"href"`
}

type jrd struct {
	Subject string    `json:"subject"`
	Links   []jrdLink `json:"links"`
}

const asProfile = `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`

// Resolve implements spec §4.4: given a "name@host" handle (no leading @),
// fetch the WebFinger JRD and dereference the first self link of an
// ActivityPub-compatible type that successfully resolves to T. Some
// servers publish multiple actors under the same name (e.g. a group and a
// person); the caller's type parameter picks which is wanted.
func Resolve[T Kind](ctx context.Context, handle string, rd *apfed.RequestData, cache *Cache) (T, error) {
	var zero T

	name, host, err := splitHandle(handle)
	if err != nil {
		return zero, err
	}

	scheme := "https"
	if rd.Config().AllowsPlainHTTP(host) {
		scheme = "http"
	}
	webfingerURL := fmt.Sprintf("%s://%s/.well-known/webfinger?resource=acct:%s",
		scheme, host, url.QueryEscape(fmt.Sprintf("%s@%s", name, host)))

	body, err := fetchBody(ctx, webfingerURL, rd, cache)
	if err != nil {
		return zero, err
	}

	var doc jrd
	if err := json.Unmarshal(body, &doc); err != nil {
		return zero, fmt.Errorf("%w: webfinger response: %v", apfed.ErrDeserializationFailed, err)
	}

	var lastErr error
	for _, link := range doc.Links {
		if link.Rel != "self" {
			continue
		}
		if link.Type != "application/activity+json" && link.Type != asProfile {
			continue
		}
		id, err := apfed.NewObjectId[T](link.Href, rd.Config())
		if err != nil {
			lastErr = err
			continue
		}
		value, err := Dereference[T](ctx, id, rd, Option[T]{Cache: cache})
		if err != nil {
			lastErr = err
			continue
		}
		return value, nil
	}

	if lastErr != nil {
		return zero, fmt.Errorf("%w: %v", apfed.ErrWebFingerNotFound, lastErr)
	}
	return zero, apfed.ErrWebFingerNotFound
}

func splitHandle(handle string) (name, host string, err error) {
	handle = strings.TrimPrefix(handle, "@")
	parts := strings.SplitN(handle, "@", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: malformed handle %q, expected name@host", apfed.ErrDeserializationFailed, handle)
	}
	return parts[0], parts[1], nil
}
