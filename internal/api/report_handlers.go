package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/service"
	"github.com/dafioram/litter-tracker/internal/storage"
)

func yearStart(now time.Time) time.Time {
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

// GetDashboard recomputes the summary view from scratch on every request.
func GetDashboard(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now()

		profiles, err := app.Store().ListProfiles(ctx)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch profiles")
			return
		}
		events, err := app.Store().QueryEvents(ctx, storage.EventFilter{From: yearStart(now)}, storage.Asc)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch events")
			return
		}
		flagged, err := app.Store().QueryEvents(ctx, storage.EventFilter{Flagged: true}, storage.Asc)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch review queue")
			return
		}

		dashboard := service.BuildDashboard(events, profiles, len(flagged), now)
		HandleSuccess(c, app.Logger(), dashboard, nil)
	}
}

// GetAnalysis serves the chart-ready series for the analysis view.
func GetAnalysis(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now()

		profiles, err := app.Store().ListProfiles(ctx)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch profiles")
			return
		}
		events, err := app.Store().QueryEvents(ctx, storage.EventFilter{From: yearStart(now)}, storage.Asc)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch events")
			return
		}

		// Error rows are noise for every chart.
		filtered := events[:0]
		for _, e := range events {
			if e.Identity != internal.IdentityError {
				filtered = append(filtered, e)
			}
		}

		HandleSuccess(c, app.Logger(), service.BuildAnalysis(filtered, profiles), nil)
	}
}

// GetReport serves the single-animal report; the identity comes from ?cat=.
func GetReport(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		now := time.Now()

		name := c.Query("cat")
		if name == "" {
			HandleError(c, app.Logger(), internal.NewAppError(400, "cat query parameter required"), 400, "Invalid report request")
			return
		}
		profile, err := app.Store().GetProfile(ctx, name)
		if err != nil {
			HandleError(c, app.Logger(), err, 404, "Profile not found")
			return
		}
		events, err := app.Store().QueryEvents(ctx, storage.EventFilter{
			Identity: name,
			From:     now.AddDate(0, 0, -365),
		}, storage.Asc)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch events")
			return
		}

		HandleSuccess(c, app.Logger(), service.BuildReport(events, profile, now), nil)
	}
}
