package ginfed

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/driftwood-dev/apfed/apfed"
	"github.com/driftwood-dev/apfed/apfed/inbox"
)

// InboxHandler wraps inbox.Receive as a gin.HandlerFunc: it reads
// RequestData from the context (see Middleware), runs the receipt pipeline,
// and translates the resulting Outcome into the HTTP response.
func InboxHandler[A inbox.Activity, Actor inbox.ActorKind](
	actorLookup func(ctx context.Context, actorURL string, rd *apfed.RequestData) (Actor, error),
	handler inbox.Handler[A],
	compat bool,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := RequestDataFrom(c)

		outcome := inbox.Receive[A, Actor](c.Request.Context(), c.Request, rd, actorLookup, handler, compat)
		if outcome.Err != nil {
			log.Printf("ginfed: inbox delivery rejected: %v", outcome.Err)
		}
		c.Status(outcome.StatusCode)
	}
}
