// Package handler exposes the wizard over HTTP.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"travel_backoffice_backend/internal/wizard/service"
	"travel_backoffice_backend/internal/wizard/transport"
	"travel_backoffice_backend/platform/httpkit"
	"travel_backoffice_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the sale wizard.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new wizard handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers wizard routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Mount)
	rg.GET("/:sid", h.Snapshot)
	rg.DELETE("/:sid", h.Abandon)

	rg.POST("/:sid/advance", h.Advance)
	rg.POST("/:sid/retreat", h.Retreat)

	rg.GET("/:sid/passengers", h.SearchPassengers)
	rg.POST("/:sid/passengers/select", h.SelectPassenger)
	rg.DELETE("/:sid/passengers/:passengerId", h.RemoveCompanion)

	rg.PUT("/:sid/price", h.SetPrice)

	rg.GET("/:sid/templates", h.ListTemplates)
	rg.POST("/:sid/services", h.SelectTemplate)
	rg.POST("/:sid/services/:instanceId/edit", h.OpenService)
	rg.PUT("/:sid/services/:instanceId", h.CommitInstance)
	rg.DELETE("/:sid/services/:instanceId", h.RemoveService)
	rg.PUT("/:sid/shared-fields", h.SynchronizeSharedFields)

	rg.GET("/:sid/providers", h.SearchProviders)
	rg.POST("/:sid/services/:instanceId/providers", h.AssignProvider)
	rg.DELETE("/:sid/services/:instanceId/providers/:index", h.UnassignProvider)

	rg.POST("/:sid/destinations/search", h.SearchDestinations)

	rg.POST("/:sid/submit", h.Submit)
}

func (h *Handler) Mount(c *gin.Context) {
	// An empty body mounts a blank wizard; every entry field is optional.
	var req transport.MountRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if req.Sale != nil {
		if err := h.val.Struct(req.Sale); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}

	result, err := h.svc.Mount(c.Request.Context(), httpkit.BearerToken(c), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) Snapshot(c *gin.Context) {
	result, err := h.svc.Snapshot(c.Param("sid"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Abandon(c *gin.Context) {
	if err := h.svc.Abandon(c.Param("sid")); httpkit.HandleError(c, err) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Advance(c *gin.Context) {
	result, err := h.svc.Advance(c.Request.Context(), httpkit.BearerToken(c), c.Param("sid"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Retreat(c *gin.Context) {
	result, err := h.svc.Retreat(c.Param("sid"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SearchPassengers(c *gin.Context) {
	result, err := h.svc.SearchPassengers(
		c.Request.Context(),
		httpkit.BearerToken(c),
		c.Param("sid"),
		c.Query("search"),
		c.Query("role"),
	)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SelectPassenger(c *gin.Context) {
	var req transport.SelectPassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if req.Passenger.ID == "" {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "passenger.id is required")
		return
	}

	result, err := h.svc.SelectPassenger(c.Request.Context(), httpkit.BearerToken(c), c.Param("sid"), req.Passenger)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RemoveCompanion(c *gin.Context) {
	result, err := h.svc.RemoveCompanion(c.Param("sid"), c.Param("passengerId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SetPrice(c *gin.Context) {
	var req transport.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SetPrice(c.Param("sid"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	result, err := h.svc.Templates(c.Request.Context(), httpkit.BearerToken(c), c.Param("sid"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SelectTemplate(c *gin.Context) {
	var req transport.SelectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SelectTemplate(c.Param("sid"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}

func (h *Handler) OpenService(c *gin.Context) {
	result, err := h.svc.OpenService(c.Param("sid"), c.Param("instanceId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) CommitInstance(c *gin.Context) {
	var req transport.CommitInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.CommitInstance(c.Param("sid"), c.Param("instanceId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) RemoveService(c *gin.Context) {
	result, err := h.svc.RemoveService(c.Param("sid"), c.Param("instanceId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SynchronizeSharedFields(c *gin.Context) {
	var req transport.SharedFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.SynchronizeSharedFields(c.Param("sid"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SearchProviders(c *gin.Context) {
	result, err := h.svc.SearchProviders(c.Request.Context(), httpkit.BearerToken(c), c.Param("sid"), c.Query("search"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) AssignProvider(c *gin.Context) {
	var req transport.AssignProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.AssignProvider(c.Param("sid"), c.Param("instanceId"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) UnassignProvider(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, "index must be an integer")
		return
	}

	result, err := h.svc.UnassignProvider(c.Param("sid"), c.Param("instanceId"), index)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) SearchDestinations(c *gin.Context) {
	var req transport.DestinationSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.SearchDestinations(c.Request.Context(), httpkit.BearerToken(c), c.Param("sid"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Submit(c *gin.Context) {
	result, err := h.svc.Submit(c.Request.Context(), httpkit.BearerToken(c), c.Param("sid"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
