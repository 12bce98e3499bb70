package endpoint

import (
	"net/http"
	"time"

	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/cirruslabs/vmpower/internal/responder"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
)

const ctxSessionKey = "session"

type storeTxFunc func(cb func(txn storepkg.Transaction) error) error
type apiTxFunc func(txn storepkg.Transaction) responder.Responder

func (endpoint *Endpoint) initAPI() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	ginEngine := gin.New()

	desugaredLogger := endpoint.logger.Desugar()
	ginEngine.Use(
		ginzap.Ginzap(desugaredLogger, time.RFC3339, true),
		ginzap.RecoveryWithZap(desugaredLogger, true),
	)

	if endpoint.prometheusMetrics {
		endpoint.metrics.use(ginEngine)
	}

	// v1 API
	apiV1 := ginEngine.Group("/v1")

	// Session
	apiV1.POST("/session", func(c *gin.Context) {
		endpoint.login(c).Respond(c)
	})

	authenticated := apiV1.Group("/", endpoint.authenticate)

	authenticated.GET("/session", func(c *gin.Context) {
		endpoint.currentSession(c).Respond(c)
	})
	authenticated.DELETE("/session", func(c *gin.Context) {
		endpoint.logout(c).Respond(c)
	})

	// VMs
	authenticated.POST("/vms", func(c *gin.Context) {
		endpoint.createVM(c).Respond(c)
	})
	authenticated.GET("/vms", func(c *gin.Context) {
		endpoint.listVMs(c).Respond(c)
	})
	authenticated.GET("/vms/:name", func(c *gin.Context) {
		endpoint.getVM(c).Respond(c)
	})
	authenticated.DELETE("/vms/:name", func(c *gin.Context) {
		endpoint.deleteVM(c).Respond(c)
	})
	authenticated.POST("/vms/:name/power-on", func(c *gin.Context) {
		endpoint.powerOnVM(c).Respond(c)
	})
	authenticated.POST("/vms/:name/power-off", func(c *gin.Context) {
		endpoint.powerOffVM(c).Respond(c)
	})

	// Tasks
	authenticated.GET("/tasks", func(c *gin.Context) {
		endpoint.listTasks(c).Respond(c)
	})
	authenticated.GET("/tasks/:id", func(c *gin.Context) {
		endpoint.getTask(c).Respond(c)
	})

	// Property collector
	authenticated.POST("/property-collector/filters", func(c *gin.Context) {
		endpoint.createFilter(c).Respond(c)
	})
	authenticated.DELETE("/property-collector/filters/:id", func(c *gin.Context) {
		endpoint.destroyFilter(c).Respond(c)
	})
	authenticated.GET("/property-collector/updates", func(c *gin.Context) {
		endpoint.waitForUpdates(c).Respond(c)
	})

	return ginEngine
}

func (endpoint *Endpoint) authenticate(c *gin.Context) {
	sessionKey := c.GetHeader(v1.SessionKeyHeader)

	if sessionKey == "" {
		responder.JSON(http.StatusUnauthorized,
			NewErrorResponse("the session is not authenticated")).Respond(c)
		c.Abort()

		return
	}

	session, ok := endpoint.sessions.Load(sessionKey)
	if !ok {
		responder.JSON(http.StatusUnauthorized,
			NewErrorResponse("the session is not authenticated or has expired")).Respond(c)
		c.Abort()

		return
	}

	session.touch()

	c.Set(ctxSessionKey, session)

	c.Next()
}

func sessionFromContext(c *gin.Context) *session {
	return c.MustGet(ctxSessionKey).(*session)
}

func (endpoint *Endpoint) storeView(cb apiTxFunc) responder.Responder {
	return mapTxFuncs(endpoint.store.View, cb)
}

func (endpoint *Endpoint) storeUpdate(cb apiTxFunc) responder.Responder {
	return mapTxFuncs(endpoint.store.Update, cb)
}

func mapTxFuncs(txFunc storeTxFunc, cb apiTxFunc) responder.Responder {
	var result responder.Responder

	if err := txFunc(func(txn storepkg.Transaction) error {
		result = cb(txn)

		return nil
	}); err != nil {
		return responder.Error(err)
	}

	return result
}
