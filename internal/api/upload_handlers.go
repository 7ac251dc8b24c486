package api

import (
	"github.com/gin-gonic/gin"
)

// PostUpload ingests one raw device log, uploaded as multipart field "file".
func PostUpload(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Missing log file")
			return
		}
		f, err := fileHeader.Open()
		if err != nil {
			HandleError(c, app.Logger(), err, 400, "Could not open upload")
			return
		}
		defer f.Close()

		res, err := app.Ingestor().IngestLog(c.Request.Context(), fileHeader.Filename, f)
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Upload failed")
			return
		}
		HandleSuccess(c, app.Logger(), res, nil)
	}
}

// GetUploads lists the upload audit history, newest first.
func GetUploads(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := app.Store().ListUploads(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, 500, "Failed to fetch upload history")
			return
		}
		HandleSuccess(c, app.Logger(), history, nil)
	}
}
