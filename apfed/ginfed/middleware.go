// Package ginfed adapts apfed's core federation machinery to gin-gonic:
// request-scoped RequestData injection, ActivityStreams JSON rendering, and
// an inbox handler that wraps apfed/inbox.Receive.
package ginfed

import (
	"github.com/gin-gonic/gin"

	"github.com/driftwood-dev/apfed/apfed"
)

const requestDataKey = "apfed.requestData"

// Middleware injects a fresh RequestData, scoped to this request's context
// and fetch budget, into the gin context. Install it once, ahead of any
// route that calls RequestDataFrom.
func Middleware(cfg *apfed.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := cfg.NewRequestData(c.Request.Context())
		c.Set(requestDataKey, rd)
		c.Next()
	}
}

// RequestDataFrom retrieves the RequestData injected by Middleware. It
// panics if Middleware was not installed, since that is a wiring bug, not a
// runtime condition a handler can recover from.
func RequestDataFrom(c *gin.Context) *apfed.RequestData {
	v, ok := c.Get(requestDataKey)
	if !ok {
		panic("ginfed: RequestDataFrom called without ginfed.Middleware installed")
	}
	return v.(*apfed.RequestData)
}
