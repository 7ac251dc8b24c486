package api

import (
	"github.com/gin-gonic/gin"

	"github.com/dafioram/litter-tracker/internal/service"
)

func GetProfiles(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		profiles, err := app.Store().ListProfiles(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch profiles")
			return
		}
		HandleSuccess(c, app.Logger(), profiles, nil)
	}
}

func PostProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Invalid JSON")
			return
		}
		if err := service.ValidateProfileRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, 400, "Validation failed")
			return
		}
		profile, err := service.SaveProfile(c.Request.Context(), app.Store(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to save profile")
			return
		}
		HandleSuccess(c, app.Logger(), profile, nil)
	}
}

// DeleteProfile removes a profile; historical events keep its name.
func DeleteProfile(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		if err := service.RemoveProfile(c.Request.Context(), app.Store(), name); err != nil {
			HandleError(c, app.Logger(), err, 404, "Failed to delete profile")
			return
		}
		HandleSuccess(c, app.Logger(), gin.H{"deleted": name}, nil)
	}
}
