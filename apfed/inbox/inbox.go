// Package inbox implements the inbound activity receipt pipeline: decode,
// resolve the signing actor, verify the HTTP signature, and dispatch to the
// application's handler.
package inbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/driftwood-dev/apfed/apfed"
	"github.com/driftwood-dev/apfed/apfed/fetch"
	"github.com/driftwood-dev/apfed/apfed/httpsig"
)

// maxBodyBytes caps inbound activity bodies at 1 MiB per spec §4.5 step 1.
const maxBodyBytes = 1 << 20

// Activity is the capability every activity type dispatched through this
// package must implement: identify the actor who must have signed the
// delivering request.
type Activity interface {
	ActorURL() string
}

// Handler receives activities that passed signature verification. Any
// error it returns becomes ErrHandlerError / HTTP 500 to the remote sender.
type Handler[A Activity] interface {
	Receive(ctx context.Context, activity A, rd *apfed.RequestData) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[A Activity] func(ctx context.Context, activity A, rd *apfed.RequestData) error

// Receive implements HandlerFunc as a Handler.
func (f HandlerFunc[A]) Receive(ctx context.Context, activity A, rd *apfed.RequestData) error {
	return f(ctx, activity, rd)
}

// ActorKind is what Receive requires of the application's actor type:
// fetch.Kind plus the actor's RSA public key PEM, against which the
// request signature is verified.
type ActorKind interface {
	fetch.Kind
	PublicKeyPEM() string
}

// Outcome is returned by Receive describing the terminal state so HTTP
// adapters (apfed/ginfed) can translate it into a status code per spec
// §4.5 step 6: 200/202 on success, 400 on parse/verify failure, 500 on
// handler failure.
type Outcome struct {
	StatusCode int
	Err        error
}

// Receive runs the Receiving → ParsingEnvelope → ResolvingActor →
// VerifyingSignature → Dispatching state machine of spec §4.5. actorLookup
// dereferences the actor named in the activity (typically
// fetch.Dereference[ActorType] wrapped with the application's local-cache
// lookup), and compat selects the Mastodon-compatible signature base.
func Receive[A Activity, Actor ActorKind](
	ctx context.Context,
	r *http.Request,
	rd *apfed.RequestData,
	actorLookup func(ctx context.Context, actorURL string, rd *apfed.RequestData) (Actor, error),
	handler Handler[A],
	compat bool,
) Outcome {
	// Receiving
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return Outcome{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("apfed/inbox: read body: %w", err)}
	}
	if len(body) > maxBodyBytes {
		return Outcome{StatusCode: http.StatusRequestEntityTooLarge, Err: apfed.ErrPayloadTooLarge}
	}

	// ParsingEnvelope
	var activity A
	if err := json.Unmarshal(body, &activity); err != nil {
		return Outcome{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("%w: %v", apfed.ErrDeserializationFailed, err)}
	}

	actorURL := activity.ActorURL()
	if actorURL == "" {
		return Outcome{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("%w: activity missing actor", apfed.ErrDeserializationFailed)}
	}

	// ResolvingActor
	actor, err := actorLookup(ctx, actorURL, rd)
	if err != nil {
		return Outcome{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("apfed/inbox: resolve actor: %w", err)}
	}

	// VerifyingSignature — the request body was consumed above; give the
	// signature verifier a fresh reader of the same bytes for its digest
	// check.
	r.Body = io.NopCloser(bytes.NewReader(body))
	keyID, err := httpsig.Verify(r, actor.PublicKeyPEM(), httpsig.VerifyOptions{Compat: compat})
	if err != nil {
		sentinel := apfed.ErrSignatureInvalid
		if errors.Is(err, httpsig.ErrMissingHeader) {
			sentinel = apfed.ErrMissingHeader
		} else if errors.Is(err, httpsig.ErrClockSkew) {
			sentinel = apfed.ErrClockSkew
		}
		return Outcome{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("%w: %v", sentinel, err)}
	}
	if signer := httpsig.ActorFromKeyID(keyID); signer != actorURL {
		return Outcome{StatusCode: http.StatusBadRequest, Err: fmt.Errorf("%w: signature key %q does not match activity actor %q", apfed.ErrSignatureInvalid, signer, actorURL)}
	}

	// Dispatching
	if err := handler.Receive(ctx, activity, rd); err != nil {
		return Outcome{StatusCode: http.StatusInternalServerError, Err: fmt.Errorf("%w: %v", apfed.ErrHandlerError, err)}
	}

	// Replied
	return Outcome{StatusCode: http.StatusAccepted}
}
