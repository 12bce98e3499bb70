package responder

import (
	"errors"
	"net/http"

	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/gin-gonic/gin"
)

type ErrorResponder struct {
	err error
	Responder
}

func Error(err error) Responder {
	return &ErrorResponder{
		err: err,
	}
}

func (responder *ErrorResponder) Respond(c *gin.Context) {
	var code = http.StatusInternalServerError

	switch {
	case errors.Is(responder.err, storepkg.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(responder.err, storepkg.ErrConflict):
		code = http.StatusConflict
	default:
		_ = c.Error(responder.err)
	}

	c.JSON(code, gin.H{
		"message": responder.err.Error(),
	})
}
