package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/presensi-backend/internal/config"
	"github.com/stemsi/presensi-backend/internal/faceapi"
	"github.com/stemsi/presensi-backend/internal/repository"
	"github.com/stemsi/presensi-backend/internal/response"
	"github.com/stemsi/presensi-backend/internal/service"
)

// EnrollmentHandler handles admin-facing student enrollment.
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
	cfg               *config.Config
}

// NewEnrollmentHandler creates a new EnrollmentHandler.
func NewEnrollmentHandler(enrollmentService *service.EnrollmentService, cfg *config.Config) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService, cfg: cfg}
}

// Enroll godoc
// POST /api/v1/admin/enrollments
// Enrolls a student from a reference face image (multipart form).
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	name := c.PostForm("name")
	studentCode := c.PostForm("student_code")
	if len(name) < 2 || len(name) > 100 || studentCode == "" || len(studentCode) > 32 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{
			"name":         "name must be 2-100 characters",
			"student_code": "student_code must be 1-32 characters",
		})
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

	image, errCode, ok := readImageUpload(c, h.cfg.MaxUploadBytes)
	if !ok {
		response.Fail(c, http.StatusBadRequest, errCode)
		return
	}

	student, err := h.enrollmentService.Enroll(c.Request.Context(), service.EnrollmentInput{
		Name:        name,
		StudentCode: studentCode,
		GroupID:     groupID,
		Image:       image,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoFaceDetected):
			response.Fail(c, http.StatusBadRequest, response.ErrNoFaceDetected)
		case errors.Is(err, service.ErrLivenessFailed):
			response.Fail(c, http.StatusBadRequest, response.ErrLivenessFailed)
		case errors.Is(err, faceapi.ErrProviderTimeout):
			response.Fail(c, http.StatusGatewayTimeout, response.ErrProviderTimeout)
		case errors.Is(err, repository.ErrDuplicateStudentCode):
			response.Fail(c, http.StatusConflict, response.ErrConflict)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": student})
}
