package ginfed

import "github.com/gin-gonic/gin"

const activityStreamsContentType = "application/activity+json; charset=utf-8"
const asContext = "https://www.w3.org/ns/activitystreams"

// JSON writes body as an ActivityStreams document: it sets the
// application/activity+json content type and adds the "@context" field when
// the caller did not already set one.
func JSON(c *gin.Context, status int, body map[string]any) {
	if _, ok := body["@context"]; !ok {
		body["@context"] = asContext
	}
	c.Header("Content-Type", activityStreamsContentType)
	c.JSON(status, body)
}
