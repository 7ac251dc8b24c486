package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dafioram/litter-tracker/internal/auth"
	"github.com/dafioram/litter-tracker/internal/metrics"
)

// Router wires every endpoint. Mutating routes sit behind the token
// middleware; when no token is configured the API stays open.
func Router(app App, provider auth.Provider, requireAuth bool) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	r.GET("/dashboard", GetDashboard(app))
	r.GET("/analysis", GetAnalysis(app))
	r.GET("/report", GetReport(app))
	r.GET("/review", GetReview(app))
	r.GET("/editor", GetEditor(app))
	r.GET("/profiles", GetProfiles(app))
	r.GET("/uploads", GetUploads(app))

	protected := r.Group("/", auth.Middleware(provider, requireAuth))
	protected.POST("/upload", PostUpload(app))
	protected.POST("/events/fix", PostCorrection(app))
	protected.POST("/profiles", PostProfile(app))
	protected.DELETE("/profiles/:name", DeleteProfile(app))

	return r
}
