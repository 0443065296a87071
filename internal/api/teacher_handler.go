package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aves/lms-app/internal/service"
)

// TeacherHandler serves the teacher dashboard and material management.
type TeacherHandler struct {
	materialService service.MaterialService
}

func NewTeacherHandler(materialService service.MaterialService) *TeacherHandler {
	return &TeacherHandler{materialService: materialService}
}

type MaterialDetailsRequest struct {
	Title       string `form:"title" json:"title" binding:"required"`
	Subject     string `form:"subject" json:"subject" binding:"required"`
	Description string `form:"description" json:"description"`
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}

// Dashboard lists the teacher's own uploads in every status, with the
// counts shown at the top of the page.
func (h *TeacherHandler) Dashboard(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}

	materials, stats, err := h.materialService.ListForTeacher(c.Request.Context(), identity.UserID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load materials")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":      gin.H{"id": identity.UserID, "name": identity.Name, "role": identity.Role},
		"materials": materials,
		"stats":     stats,
	})
}

// Upload accepts the multipart upload form. The new material starts
// pending and stays invisible to students until an admin approves it.
func (h *TeacherHandler) Upload(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}

	var req MaterialDetailsRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, service.ErrNoFileProvided.Error())
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	material, err := h.materialService.Upload(c.Request.Context(), identity.UserID, service.UploadInput{
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		FileName:    fileHeader.Filename,
		Size:        fileHeader.Size,
		Content:     file,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			abortWithError(c, http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, service.ErrTitleRequired),
			errors.Is(err, service.ErrSubjectRequired),
			errors.Is(err, service.ErrNoFileProvided),
			errors.Is(err, service.ErrFileTypeNotAllowed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to store material")
		}
		return
	}

	c.JSON(http.StatusCreated, material)
}

// UpdateMaterial edits title, subject and description of an own upload.
func (h *TeacherHandler) UpdateMaterial(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req MaterialDetailsRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err = h.materialService.UpdateDetails(c.Request.Context(), identity, materialID, req.Title, req.Subject, req.Description)
	if err != nil {
		respondMaterialError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "material updated"})
}

// DeleteMaterial removes an own upload and its stored file.
func (h *TeacherHandler) DeleteMaterial(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.materialService.Delete(c.Request.Context(), identity, materialID); err != nil {
		respondMaterialError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "material deleted"})
}

// Download streams an own or approved material.
func (h *TeacherHandler) Download(c *gin.Context) {
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

// streamDownload runs the shared authorize-open-count-stream sequence
// and writes the file as an attachment under its original name.
func streamDownload(c *gin.Context, materials service.MaterialService, identity service.Identity, materialID int64) {
	result, err := materials.Download(c.Request.Context(), identity, materialID)
	if err != nil {
		respondMaterialError(c, err)
		return
	}
	defer result.Content.Close()

	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", result.FileName),
	}
	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", result.Content, headers)
}

func respondMaterialError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMaterialNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrMaterialFileMissing):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotAuthorized):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrTitleRequired), errors.Is(err, service.ErrSubjectRequired):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
