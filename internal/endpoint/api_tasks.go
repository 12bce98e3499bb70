package endpoint

import (
	"net/http"

	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/cirruslabs/vmpower/internal/responder"
	"github.com/gin-gonic/gin"
)

func (endpoint *Endpoint) getTask(c *gin.Context) responder.Responder {
	id := c.Param("id")

	return endpoint.storeView(func(txn storepkg.Transaction) responder.Responder {
		task, err := txn.GetTask(id)
		if err != nil {
			return responder.Error(err)
		}

		return responder.JSON(http.StatusOK, task)
	})
}

func (endpoint *Endpoint) listTasks(_ *gin.Context) responder.Responder {
	return endpoint.storeView(func(txn storepkg.Transaction) responder.Responder {
		tasks, err := txn.ListTasks()
		if err != nil {
			return responder.Error(err)
		}

		return responder.JSON(http.StatusOK, tasks)
	})
}
