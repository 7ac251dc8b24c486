package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/response"
)

// HandleError logs the failure with the request ID and writes the error
// envelope. An *internal.AppError overrides the default status.
func HandleError(c *gin.Context, logger internal.Logger, err error, status int, msg string) {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		status = appErr.Code
	}
	requestID := c.GetString("request_id")
	logger.Errorf("[request_id=%s] %s: %v", requestID, msg, err)
	var resp response.APIResponse
	switch status {
	case 400:
		resp = response.BadRequest(msg + ": " + err.Error())
	case 404:
		resp = response.NotFound(msg + ": " + err.Error())
	case 500:
		resp = response.InternalError(msg + ": " + err.Error())
	default:
		resp = response.NewAppError(status, msg+": "+err.Error())
	}
	c.JSON(status, resp)
}

func HandleSuccess(c *gin.Context, logger internal.Logger, data interface{}, meta map[string]any) {
	requestID := c.GetString("request_id")
	logger.Debugf("[request_id=%s] Success", requestID)
	c.JSON(200, response.Success(data, meta))
}
