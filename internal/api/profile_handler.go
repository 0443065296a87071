package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"aves/lms-app/internal/service"
)

// ProfileHandler serves the per-role profile pages. The same handler is
// mounted in all three role groups; the variant is picked from the
// session role, never from the URL.
type ProfileHandler struct {
	profileService service.ProfileService
}

func NewProfileHandler(profileService service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type ProfileRequest struct {
	Name  string `form:"name" json:"name"`
	Phone string `form:"phone" json:"phone"`

	RegisterNumber string `form:"register_number" json:"register_number"`
	CourseDetails  string `form:"course_details" json:"course_details"`
	Department     string `form:"department" json:"department"`

	Posting        string `form:"posting" json:"posting"`
	Specialization string `form:"specialization" json:"specialization"`
	Bio            string `form:"bio" json:"bio"`

	Designation string `form:"designation" json:"designation"`
}

// Get returns the stored profile, or one prefilled from the session when
// nothing was saved yet.
func (h *ProfileHandler) Get(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), identity)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Save upserts the profile from the form. The photo field is optional;
// leaving it out keeps the current photo.
func (h *ProfileHandler) Save(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}

	var req ProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid profile form")
		return
	}

	input := service.ProfileInput{
		Name:           req.Name,
		Phone:          req.Phone,
		RegisterNumber: req.RegisterNumber,
		CourseDetails:  req.CourseDetails,
		Department:     req.Department,
		Posting:        req.Posting,
		Specialization: req.Specialization,
		Bio:            req.Bio,
		Designation:    req.Designation,
	}

	if fileHeader, ferr := c.FormFile("photo"); ferr == nil {
		file, oerr := fileHeader.Open()
		if oerr != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to read uploaded photo")
			return
		}
		defer file.Close()
		input.Photo = &service.PhotoUpload{
			FileName: fileHeader.Filename,
			Size:     fileHeader.Size,
			Content:  file,
		}
	}

	profile, err := h.profileService.Save(c.Request.Context(), identity, input)
	if err != nil {
		if errors.Is(err, service.ErrPhotoTypeNotAllowed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to save profile")
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Photo streams the caller's own profile photo.
func (h *ProfileHandler) Photo(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get identity from session")
		return
	}

	content, err := h.profileService.OpenPhoto(c.Request.Context(), identity)
	if err != nil {
		if errors.Is(err, service.ErrProfilePhotoNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load photo")
		return
	}
	defer content.Close()

	c.DataFromReader(http.StatusOK, -1, "application/octet-stream", content, nil)
}
