// Package api exposes the user API service over HTTP.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-apiforge/internal/engine"
	"github.com/celerix-dev/celerix-apiforge/internal/service"
	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

type Handler struct {
	Service *service.UserAPIService
	Logger  *zap.Logger
}

// SaveAPI compiles and stores a submitted API definition. The envelope code is the HTTP status.
func (h *Handler) SaveAPI(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, schema.Envelope{
			Code:  http.StatusBadRequest,
			Error: []schema.Violation{{Field: "body", Message: "could not be read"}},
		})
		return
	}

	env := h.Service.CreateUserAPI(c.Request.Context(), body)
	c.JSON(env.Code, env)
}

// SaveAPIStatus answers liveness probes on the submission route.
func (h *Handler) SaveAPIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": true})
}

func (h *Handler) ListAPIs(c *gin.Context) {
	names, err := h.Service.ListUserAPIs(c.Request.Context(), c.Param("user"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

func (h *Handler) GetAPI(c *gin.Context) {
	rec, err := h.Service.GetUserAPI(c.Request.Context(), c.Param("user"), c.Param("api"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetResource(c *gin.Context) {
	rs, err := h.Service.GetResource(c.Request.Context(), c.Param("user"), c.Param("api"), c.Param("resource"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rs)
}

func (h *Handler) DeleteAPI(c *gin.Context) {
	if err := h.Service.DeleteUserAPI(c.Request.Context(), c.Param("user"), c.Param("api")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// fail maps not-found errors to 404 and hides everything else behind a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, engine.ErrUserNotFound),
		errors.Is(err, engine.ErrAPINotFound),
		errors.Is(err, engine.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
