package endpoint

import (
	"errors"
	"net/http"
	"time"

	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/cirruslabs/vmpower/internal/responder"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/gin-gonic/gin"
)

func (endpoint *Endpoint) createVM(c *gin.Context) responder.Responder {
	var vm v1.VM

	if err := c.ShouldBindJSON(&vm); err != nil {
		return responder.JSON(http.StatusBadRequest, NewErrorResponse("invalid JSON was provided"))
	}

	// References are always assigned by the endpoint
	vm.Ref = v1.ManagedObjectReference{}
	vm.CreatedAt = time.Now()

	if err := validateVM(&vm); err != nil {
		return responder.JSON(http.StatusPreconditionFailed, NewErrorResponse("%v", err))
	}

	return endpoint.storeUpdate(func(txn storepkg.Transaction) responder.Responder {
		// Does the VM resource with this name already exists?
		_, err := txn.GetVM(vm.Name)
		if err == nil {
			return responder.JSON(http.StatusConflict,
				NewErrorResponse("VM with the name %q already exists", vm.Name))
		}
		if !errors.Is(err, storepkg.ErrNotFound) {
			return responder.Error(err)
		}

		if err := txn.SetVM(vm); err != nil {
			return responder.Error(err)
		}

		return responder.JSON(http.StatusOK, &vm)
	})
}

func (endpoint *Endpoint) getVM(c *gin.Context) responder.Responder {
	name := c.Param("name")

	return endpoint.storeView(func(txn storepkg.Transaction) responder.Responder {
		vm, err := txn.GetVM(name)
		if err != nil {
			return responder.Error(err)
		}

		return responder.JSON(http.StatusOK, vm)
	})
}

func (endpoint *Endpoint) listVMs(_ *gin.Context) responder.Responder {
	return endpoint.storeView(func(txn storepkg.Transaction) responder.Responder {
		vms, err := txn.ListVMs()
		if err != nil {
			return responder.Error(err)
		}

		return responder.JSON(http.StatusOK, vms)
	})
}

func (endpoint *Endpoint) deleteVM(c *gin.Context) responder.Responder {
	name := c.Param("name")

	return endpoint.storeUpdate(func(txn storepkg.Transaction) responder.Responder {
		if err := txn.DeleteVM(name); err != nil {
			return responder.Error(err)
		}

		return responder.Code(http.StatusOK)
	})
}

func (endpoint *Endpoint) powerOnVM(c *gin.Context) responder.Responder {
	return endpoint.submitPowerOperation(c, v1.TaskDescriptionPowerOn)
}

func (endpoint *Endpoint) powerOffVM(c *gin.Context) responder.Responder {
	return endpoint.submitPowerOperation(c, v1.TaskDescriptionPowerOff)
}

func (endpoint *Endpoint) submitPowerOperation(c *gin.Context, descriptionID string) responder.Responder {
	task, err := endpoint.hostAgent.Submit(c.Request.Context(), c.Param("name"), descriptionID)
	if err != nil {
		if c.Request.Context().Err() != nil {
			return responder.Empty()
		}

		return responder.Error(err)
	}

	endpoint.metrics.taskSubmitted(*task)

	return responder.JSON(http.StatusAccepted, task, responder.WithHeaders(map[string]string{
		"Location": "/v1/tasks/" + task.Ref.Value,
	}))
}
