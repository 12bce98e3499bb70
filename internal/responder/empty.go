package responder

import "github.com/gin-gonic/gin"

// EmptyResponder is used when the client has already gone away
// and there's nobody to respond to.
type EmptyResponder struct{}

func Empty() *EmptyResponder {
	return &EmptyResponder{}
}

func (responder *EmptyResponder) Respond(c *gin.Context) {
	c.Abort()
}
