package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/faceapi"
	"github.com/stemsi/presensi-backend/internal/response"
	"github.com/stemsi/presensi-backend/internal/service"
)

// RecognitionHandler accepts camera frames from kiosk clients.
type RecognitionHandler struct {
	recognitionService *service.RecognitionService
	cfg                *config.Config
}

// NewRecognitionHandler creates a new RecognitionHandler.
func NewRecognitionHandler(recognitionService *service.RecognitionService, cfg *config.Config) *RecognitionHandler {
	return &RecognitionHandler{recognitionService: recognitionService, cfg: cfg}
}

// RecognizeFrame godoc
// POST /api/v1/recognitions
// Runs one frame through the recognition pipeline. Rejections and no-match
// come back as 200s with an outcome kind; only provider timeouts and
// storage failures are error statuses, so kiosks can tell "try again"
// apart from "system unavailable".
func (h *RecognitionHandler) RecognizeFrame(c *gin.Context) {
	image, errCode, ok := readImageUpload(c, h.cfg.MaxUploadBytes)
	if !ok {
		response.Fail(c, http.StatusBadRequest, errCode)
		return
	}

	var groupID *int
	if raw := c.PostForm("group_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		groupID = &id
	}
	source := c.PostForm("source")

	result, err := h.recognitionService.Recognize(c.Request.Context(), image, groupID, source)
	if err != nil {
		if errors.Is(err, faceapi.ErrProviderTimeout) {
			response.Fail(c, http.StatusGatewayTimeout, response.ErrProviderTimeout)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}
