package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/driftwood-dev/apfed/apfed"
	"github.com/driftwood-dev/apfed/apfed/httpsig"
)

const (
	maxRedirects = 20
	acceptHeader = `application/activity+json, application/ld+json; profile="https://www.w3.org/ns/activitystreams"`
	userAgent    = "apfed/1.0 (+https://www.w3.org/ns/activitystreams)"
)

// Kind is the capability every type fetched through this package must
// implement: given the host the object was actually served from, it
// reports whether the object's own id field agrees, preventing a server
// from claiming objects it does not own (spec's IdHostMismatch).
type Kind interface {
	VerifyAgainstHost(expectedHost string) error
}

// LocalLookup is supplied by the application to short-circuit a fetch when
// it already holds a fresh copy. found reports whether any record exists;
// fresh reports whether the cache-freshness policy (remote actors refresh
// every 24h, owned local objects never) permits returning it as-is.
type LocalLookup[T Kind] func(ctx context.Context, url string) (value T, found bool, fresh bool, err error)

// Option configures a single Dereference call.
type Option[T Kind] struct {
	Local LocalLookup[T]
	Cache *Cache
}

// Dereference implements spec §4.3: consult the application's local store,
// decrement the request budget, run the URL verifier, perform a (possibly
// signed) GET following same-origin redirects, parse the body into T, and
// verify T's id against the URL actually fetched.
func Dereference[T Kind](ctx context.Context, id apfed.ObjectId[T], rd *apfed.RequestData, opt Option[T]) (T, error) {
	var zero T

	if opt.Local != nil {
		if value, found, fresh, err := opt.Local(ctx, id.String()); err != nil {
			return zero, fmt.Errorf("apfed/fetch: local lookup: %w", err)
		} else if found && fresh {
			return value, nil
		}
	}

	body, err := fetchBody(ctx, id.String(), rd, opt.Cache)
	if err != nil {
		return zero, err
	}

	var value T
	if err := json.Unmarshal(body, &value); err != nil {
		return zero, fmt.Errorf("%w: %v", apfed.ErrDeserializationFailed, err)
	}

	host, err := hostOf(id.String())
	if err != nil {
		return zero, err
	}
	if err := value.VerifyAgainstHost(host); err != nil {
		return zero, fmt.Errorf("%w: %v", apfed.ErrIdHostMismatch, err)
	}

	return value, nil
}

// DereferenceVariants implements spec §4.3's "Unknown-type dereferencing":
// T is a sum of multiple accepted kinds, and variants is a list of
// candidate unmarshal functions tried in declaration order. The first one
// that both parses and passes VerifyAgainstHost wins. Each variant's JSON
// `type` tag is expected to be a singleton, so ordering is a tie-breaker
// only in pathological cases, never a correctness requirement.
func DereferenceVariants[T Kind](ctx context.Context, rawURL string, rd *apfed.RequestData, cache *Cache, variants []func([]byte) (T, error)) (T, error) {
	var zero T

	body, err := fetchBody(ctx, rawURL, rd, cache)
	if err != nil {
		return zero, err
	}

	host, err := hostOf(rawURL)
	if err != nil {
		return zero, err
	}

	var lastErr error
	for _, variant := range variants {
		value, err := variant(body)
		if err != nil {
			lastErr = err
			continue
		}
		if err := value.VerifyAgainstHost(host); err != nil {
			return zero, fmt.Errorf("%w: %v", apfed.ErrIdHostMismatch, err)
		}
		return value, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no variants supplied")
	}
	return zero, fmt.Errorf("%w: no variant matched: %v", apfed.ErrDeserializationFailed, lastErr)
}

// fetchBody runs steps 2-6 of spec §4.3: budget, URL verifier, signed GET,
// same-origin redirect enforcement, and the short-TTL cache.
func fetchBody(ctx context.Context, rawURL string, rd *apfed.RequestData, cache *Cache) ([]byte, error) {
	if cache != nil {
		if body, ok := cache.Get(rawURL); ok {
			return body, nil
		}
	}

	if err := rd.TakeFetchBudget(); err != nil {
		return nil, err
	}

	cfg := rd.Config()
	if err := cfg.URLVerifier()(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("%w: %v", apfed.ErrUrlBlocked, err)
	}

	body, err := get(ctx, rawURL, rd)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		cache.Put(rawURL, body)
	}
	return body, nil
}

// get performs the signed/unsigned GET with strict same-origin redirect
// enforcement: the final URL's host must equal the initial URL's host.
func get(ctx context.Context, rawURL string, rd *apfed.RequestData) ([]byte, error) {
	initialHost, err := hostOf(rawURL)
	if err != nil {
		return nil, err
	}

	client := *rd.Config().HTTPClient()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("%w: too many redirects", apfed.ErrFetchFailed)
		}
		if req.URL.Host != initialHost {
			return fmt.Errorf("%w: redirect host %q does not match origin %q", apfed.ErrIdHostMismatch, req.URL.Host, initialHost)
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apfed.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)

	if actor := rd.Config().SignedFetchActor(); actor != nil {
		if err := httpsig.Sign(req, actor.KeyID, actor.PrivateKey, httpsig.SignOptions{}); err != nil {
			return nil, fmt.Errorf("%w: sign fetch: %v", apfed.ErrFetchFailed, err)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apfed.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", apfed.ErrFetchFailed, resp.StatusCode)
	}

	if resp.Request != nil && resp.Request.URL.Host != initialHost {
		return nil, fmt.Errorf("%w: final host %q does not match origin %q", apfed.ErrIdHostMismatch, resp.Request.URL.Host, initialHost)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", apfed.ErrFetchFailed, err)
	}
	return body, nil
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apfed.ErrDeserializationFailed, err)
	}
	return u.Host, nil
}
