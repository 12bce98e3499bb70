package endpoint

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cirruslabs/vmpower/internal/endpoint/collector"
	"github.com/cirruslabs/vmpower/internal/responder"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/gin-gonic/gin"
)

func (endpoint *Endpoint) createFilter(c *gin.Context) responder.Responder {
	var spec v1.FilterSpec

	if err := c.ShouldBindJSON(&spec); err != nil {
		return responder.JSON(http.StatusBadRequest, NewErrorResponse("invalid JSON was provided"))
	}

	filter, err := sessionFromContext(c).collector.CreateFilter(spec)
	if err != nil {
		return collectorError(err)
	}

	return responder.JSON(http.StatusOK, filter)
}

func (endpoint *Endpoint) destroyFilter(c *gin.Context) responder.Responder {
	if err := sessionFromContext(c).collector.DestroyFilter(c.Param("id")); err != nil {
		return collectorError(err)
	}

	return responder.Code(http.StatusOK)
}

func (endpoint *Endpoint) waitForUpdates(c *gin.Context) responder.Responder {
	var maxWait time.Duration

	if maxWaitRaw := c.Query("maxWait"); maxWaitRaw != "" {
		maxWaitSeconds, err := strconv.ParseUint(maxWaitRaw, 10, 32)
		if err != nil {
			return responder.JSON(http.StatusBadRequest,
				NewErrorResponse("maxWait should be a non-negative number of seconds"))
		}

		maxWait = time.Duration(maxWaitSeconds) * time.Second
	}

	session := sessionFromContext(c)

	session.beginPoll()
	defer session.endPoll()

	updateSet, err := session.collector.WaitForUpdates(c.Request.Context(),
		c.Query("version"), maxWait)
	if err != nil {
		// The client has gone away or the endpoint is shutting down
		if c.Request.Context().Err() != nil {
			return responder.Empty()
		}

		return collectorError(err)
	}

	return responder.JSON(http.StatusOK, updateSet)
}

func collectorError(err error) responder.Responder {
	switch {
	case errors.Is(err, collector.ErrInvalidSpec):
		return responder.JSON(http.StatusBadRequest, NewErrorResponse("%v", err))
	case errors.Is(err, collector.ErrUnknownFilter):
		return responder.JSON(http.StatusNotFound, NewErrorResponse("%v", err))
	case errors.Is(err, collector.ErrVersionMismatch):
		return responder.JSON(http.StatusConflict, NewErrorResponse("%v", err))
	default:
		return responder.Error(err)
	}
}
