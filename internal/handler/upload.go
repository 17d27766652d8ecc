package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/presensi-backend/internal/response"
)

// Allowed image MIME types for camera frames and enrollment photos.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// readImageUpload reads and validates the "file" part of a multipart
// request. On failure it returns the error code to respond with.
func readImageUpload(c *gin.Context, maxBytes int64) ([]byte, response.ErrCode, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, response.ErrFileRequired, false
	}
	defer file.Close()

	if header.Size > maxBytes {
		return nil, response.ErrFileTooLarge, false
	}
	if !allowedImageTypes[header.Header.Get("Content-Type")] {
		return nil, response.ErrUnsupportedFile, false
	}

	image, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, response.ErrInternal, false
	}
	if int64(len(image)) > maxBytes {
		return nil, response.ErrFileTooLarge, false
	}
	return image, "", true
}
