package responder

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type CodeResponder struct {
	code int
	Responder
}

func Code(code int) Responder {
	return &CodeResponder{
		code: code,
	}
}

// Respond always includes a JSON body so that the API
// clients can report something meaningful.
func (responder *CodeResponder) Respond(c *gin.Context) {
	if responder.code >= http.StatusBadRequest {
		c.JSON(responder.code, gin.H{
			"message": http.StatusText(responder.code),
		})

		return
	}

	c.Status(responder.code)
}
