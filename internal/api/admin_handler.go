package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/service"
)

// AdminHandler serves the moderation queue, user management and the
// analytics views.
type AdminHandler struct {
	adminService      service.AdminService
	materialService   service.MaterialService
	enrollmentService service.EnrollmentService
}

func NewAdminHandler(
	adminService service.AdminService,
	materialService service.MaterialService,
	enrollmentService service.EnrollmentService,
) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		materialService:   materialService,
		enrollmentService: enrollmentService,
	}
}

type CreateUserRequest struct {
	Name     string `form:"name" json:"name" binding:"required"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
	Role     string `form:"role" json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Name  string `form:"name" json:"name" binding:"required"`
	Email string `form:"email" json:"email" binding:"required,email"`
}

type RejectRequest struct {
	Reason string `form:"reason" json:"reason"`
}

func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Dashboard shows platform counts plus the pending moderation queue.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.adminService.DashboardStats(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load dashboard stats")
		return
	}
	pending, _, err := h.materialService.ListAll(c.Request.Context(), domain.StatusPending, 1, 20)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load pending materials")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":   stats,
		"pending": pending,
	})
}

// Materials pages through every upload, optionally filtered by
// ?status=pending|approved|rejected.
func (h *AdminHandler) Materials(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !domain.ValidStatus(status) {
		abortWithError(c, http.StatusBadRequest, "unknown status")
		return
	}

	page := pageQuery(c)
	materials, totalPages, err := h.materialService.ListAll(c.Request.Context(), domain.ApprovalStatus(status), page, 20)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load materials")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"materials":   materials,
		"page":        page,
		"total_pages": totalPages,
		"status":      status,
	})
}

// Approve publishes a material to students.
func (h *AdminHandler) Approve(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.materialService.Approve(c.Request.Context(), identity.UserID, materialID); err != nil {
		respondMaterialError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "material approved"})
}

// Reject hides a material from students. The optional reason ends up in
// the server log only.
func (h *AdminHandler) Reject(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}
	materialID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RejectRequest
	_ = c.ShouldBind(&req)

	if err := h.materialService.Reject(c.Request.Context(), identity.UserID, materialID, req.Reason); err != nil {
		respondMaterialError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "material rejected"})
}

// Download streams any material regardless of status.
func (h *AdminHandler) Download(c *gin.Context) {
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

// DeleteMaterial removes any upload together with its file.
func (h *AdminHandler) DeleteMaterial(c *gin.Context) {
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

// Users pages the account listing, optionally filtered by ?role=.
func (h *AdminHandler) Users(c *gin.Context) {
	role := c.Query("role")
	if role != "" && !domain.ValidRole(role) {
		abortWithError(c, http.StatusBadRequest, "unknown role")
		return
	}

	page := pageQuery(c)
	users, totalPages, err := h.adminService.ListUsers(c.Request.Context(), domain.Role(role), page, 20)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load users")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":       users,
		"page":        page,
		"total_pages": totalPages,
		"role":        role,
	})
}

// CreateUser adds an account of any role, same password policy as
// self-registration.
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if !domain.ValidRole(req.Role) {
		abortWithError(c, http.StatusBadRequest, "unknown role")
		return
	}

	user, err := h.adminService.CreateUser(c.Request.Context(), req.Name, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrPasswordRequired),
			errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrPasswordTooLong),
			errors.Is(err, service.ErrPasswordTooWeak):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to create user")
		}
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateUser edits an account's name and email.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	err := h.adminService.UpdateUser(c.Request.Context(), userID, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user updated"})
}

// DeleteUser removes an account with its uploads and profile. Admin
// accounts are refused.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := h.adminService.DeleteUser(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCannotDeleteAdmin):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to delete user")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "user deleted"})
}

// Analytics aggregates signups, approval states and popular subjects.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 {
		days = 30
	}

	analytics, aerr := h.adminService.PlatformAnalytics(c.Request.Context(), days)
	if aerr != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load analytics")
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// Courses lists enrollment counts per course.
func (h *AdminHandler) Courses(c *gin.Context) {
	courses, err := h.enrollmentService.Courses()
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load courses")
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// CourseEnrollments lists the students enrolled in one course.
func (h *AdminHandler) CourseEnrollments(c *gin.Context) {
	courseName := c.Param("name")
	if courseName == "" {
		abortWithError(c, http.StatusBadRequest, "course name is required")
		return
	}
	enrollments, err := h.enrollmentService.ForCourse(courseName)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load enrollments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": courseName, "enrollments": enrollments})
}
