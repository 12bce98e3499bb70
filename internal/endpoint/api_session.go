package endpoint

import (
	"errors"
	"net/http"
	"time"

	"github.com/cirruslabs/vmpower/internal/endpoint/collector"
	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/cirruslabs/vmpower/internal/responder"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func (endpoint *Endpoint) login(c *gin.Context) responder.Responder {
	userName, password, ok := c.Request.BasicAuth()
	if !ok {
		return responder.JSON(http.StatusUnauthorized,
			NewErrorResponse("please provide the user name and password using HTTP basic authentication"))
	}

	var user *v1.User

	if err := endpoint.store.View(func(txn storepkg.Transaction) error {
		var err error

		user, err = txn.GetUser(userName)

		return err
	}); err != nil {
		if errors.Is(err, storepkg.ErrNotFound) {
			return invalidLogin()
		}

		return responder.Error(err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return invalidLogin()
	}

	now := time.Now()

	newSession := &session{
		info: v1.UserSession{
			Key:            uuid.NewString(),
			UserName:       userName,
			LoginTime:      now,
			LastActiveTime: now,
		},
	}
	newSession.collector = collector.New(endpoint.store, endpoint.notifier,
		endpoint.logger.With("component", "collector", "user", userName))

	endpoint.sessions.Store(newSession.info.Key, newSession)
	endpoint.metrics.observeSessions()

	endpoint.logger.Infof("user %s logged in", userName)

	return responder.JSON(http.StatusOK, newSession.Info())
}

func invalidLogin() responder.Responder {
	return responder.JSON(http.StatusUnauthorized,
		NewErrorResponse("cannot complete login due to an incorrect user name or password"))
}

func (endpoint *Endpoint) currentSession(c *gin.Context) responder.Responder {
	return responder.JSON(http.StatusOK, sessionFromContext(c).Info())
}

func (endpoint *Endpoint) logout(c *gin.Context) responder.Responder {
	info := sessionFromContext(c).Info()

	// Property filters are scoped to the session and go away with it
	endpoint.sessions.Delete(info.Key)
	endpoint.metrics.observeSessions()

	endpoint.logger.Infof("user %s logged out", info.UserName)

	return responder.Code(http.StatusOK)
}
