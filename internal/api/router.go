package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-apiforge/internal/log"
)

// Register mounts the handler's routes under /api.
func (h *Handler) Register(r gin.IRouter) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/saveapi", h.SaveAPIStatus)
		apiGroup.POST("/saveapi", h.SaveAPI)
		apiGroup.GET("/users/:user/apis", h.ListAPIs)
		apiGroup.GET("/users/:user/apis/:api", h.GetAPI)
		apiGroup.GET("/users/:user/apis/:api/resources/:resource", h.GetResource)
		apiGroup.DELETE("/users/:user/apis/:api", h.DeleteAPI)
	}
}

// NewRouter builds the gin engine serving h with recovery, access logging and CORS.
func NewRouter(h *Handler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), log.AccessLog(logger), CORS())

	h.Register(r)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API route not found"})
	})
	return r
}

// CORS allows browser clients from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
