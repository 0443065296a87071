package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aves/lms-app/internal/service"
)

// StudentHandler serves the student dashboard, downloads and the course
// enrollment endpoints.
type StudentHandler struct {
	materialService   service.MaterialService
	enrollmentService service.EnrollmentService
}

func NewStudentHandler(materialService service.MaterialService, enrollmentService service.EnrollmentService) *StudentHandler {
	return &StudentHandler{
		materialService:   materialService,
		enrollmentService: enrollmentService,
	}
}

type EnrollRequest struct {
	CourseName string `form:"course_name" json:"course_name" binding:"required"`
}

// Dashboard lists approved materials, optionally narrowed to one
// subject via ?subject=, plus the subject list for the filter dropdown.
func (h *StudentHandler) Dashboard(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}

	subject := c.Query("subject")
	materials, err := h.materialService.ListForStudent(c.Request.Context(), subject)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load materials")
		return
	}
	subjects, err := h.materialService.ApprovedSubjects(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load subjects")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":      gin.H{"id": identity.UserID, "name": identity.Name, "role": identity.Role},
		"materials": materials,
		"subjects":  subjects,
		"subject":   subject,
	})
}

// Materials lists approved materials, optionally filtered by ?subject=.
func (h *StudentHandler) Materials(c *gin.Context) {
	subject := c.Query("subject")
	materials, err := h.materialService.ListForStudent(c.Request.Context(), subject)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load materials")
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials, "subject": subject})
}

// Download streams an approved material and counts the download.
func (h *StudentHandler) Download(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	streamDownload(c, h.materialService, identity, materialID)
}

// Enroll adds the student to a course. Enrolling twice in the same
// course simply records two rows; the store is additive.
func (h *StudentHandler) Enroll(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}

	var req EnrollRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, service.ErrCourseNameRequired.Error())
		return
	}

	enrollment, err := h.enrollmentService.Enroll(identity, req.CourseName)
	if err != nil {
		if errors.Is(err, service.ErrCourseNameRequired) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to record enrollment")
		return
	}
	c.JSON(http.StatusCreated, enrollment)
}

// Enrollments lists the caller's own enrollments.
func (h *StudentHandler) Enrollments(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}

	enrollments, err := h.enrollmentService.ForStudent(identity)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load enrollments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

// Courses lists every known course with its enrollment count.
func (h *StudentHandler) Courses(c *gin.Context) {
	courses, err := h.enrollmentService.Courses()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}
