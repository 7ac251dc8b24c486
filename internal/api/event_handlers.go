package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dafioram/litter-tracker/internal/service"
	"github.com/dafioram/litter-tracker/internal/storage"
)

// CorrectionRequest targets one event by its timestamp key. Action is
// "delete", "blacklist", "restore", or a profile name to reassign to.
type CorrectionRequest struct {
	Timestamp string `json:"timestamp" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// GetReview lists events needing a human decision, newest first.
func GetReview(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := app.Store().QueryEvents(c.Request.Context(), storage.EventFilter{Flagged: true}, storage.Desc)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch review queue")
			return
		}
		profiles, err := app.Store().ListProfiles(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch profiles")
			return
		}
		HandleSuccess(c, app.Logger(), events, map[string]any{"profiles": profiles})
	}
}

// PostCorrection applies a single correction action to an event.
func PostCorrection(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CorrectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid correction: timestamp and action required")
			return
		}
		key := strings.TrimSpace(req.Timestamp)
		correction := service.ParseCorrection(strings.TrimSpace(req.Action))

		if err := service.ApplyCorrection(c.Request.Context(), app.Store(), app.Store(), key, correction); err != nil {
			HandleError(c, app.Logger(), err, 500, "Correction failed")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"timestamp": key, "action": req.Action}, nil)
	}
}

// GetEditor serves one day's combined active and blacklisted entries.
func GetEditor(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := service.BuildEditorPage(c.Request.Context(), app.Store(), app.Store(), c.Query("date"), time.Now())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to build editor page")
			return
		}
		HandleSuccess(c, app.Logger(), page, nil)
	}
}
