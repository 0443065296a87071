package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"aves/lms-app/internal/config"
	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/service"
)

// AuthHandler serves the login, registration and logout endpoints. They
// are consumed by browser forms, so success responses are redirects and
// the session rides in a cookie.
type AuthHandler struct {
	authService service.AuthService
	sessionCfg  config.SessionConfig
}

func NewAuthHandler(authService service.AuthService, sessionCfg config.SessionConfig) *AuthHandler {
	return &AuthHandler{authService: authService, sessionCfg: sessionCfg}
}

// --- Request/Response Structs ---

type LoginRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name            string `form:"name" json:"name" binding:"required"`
	Email           string `form:"email" json:"email" binding:"required,email"`
	Password        string `form:"password" json:"password" binding:"required"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password" binding:"required"`
}

// --- Handler Methods ---

// RoleSelection is the landing page for unauthenticated visitors and
// the redirect target of every failed session check.
func (h *AuthHandler) RoleSelection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "select a role to continue",
		"roles":   []domain.Role{domain.RoleStudent, domain.RoleTeacher, domain.RoleAdmin},
	})
}

// Login authenticates against the role named in the URL. The page role
// is a gate: a student cannot come in through the teacher login, while
// an admin account is accepted on any page.
func (h *AuthHandler) Login(c *gin.Context) {
	role := domain.Role(c.Param("role"))
	if !domain.ValidRole(string(role)) {
		abortWithError(c, http.StatusNotFound, "unknown role")
		return
	}

	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password, role)
	if err != nil {
		if errors.Is(err, service.ErrAuthenticationFailed) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during login")
		}
		return
	}

	setSessionCookie(c, h.sessionCfg, token)
	c.Redirect(http.StatusFound, dashboardPath(user.Role))
}

// Register creates an account for the role named in the URL and sends
// the new user back to the role selection page to log in.
func (h *AuthHandler) Register(c *gin.Context) {
	role := domain.Role(c.Param("role"))
	if !domain.ValidRole(string(role)) {
		abortWithError(c, http.StatusNotFound, "unknown role")
		return
	}

	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if req.Password != req.ConfirmPassword {
		abortWithError(c, http.StatusBadRequest, "passwords do not match")
		return
	}

	_, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserAlreadyExists):
			abortWithError(c, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrPasswordRequired),
			errors.Is(err, service.ErrPasswordTooShort),
			errors.Is(err, service.ErrPasswordTooLong),
			errors.Is(err, service.ErrPasswordTooWeak):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrHashingFailed):
			abortWithError(c, http.StatusInternalServerError, "Could not process registration")
		default:
			abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred during registration")
		}
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// Logout clears the session cookie and reports how long the session
// lasted. The token is decoded without expiry validation on purpose; a
// user whose session just timed out still deserves a clean logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	duration := ""
	if tokenString, err := c.Cookie(h.sessionCfg.CookieName); err == nil && tokenString != "" {
		claims := &service.SessionClaims{}
		parser := jwt.NewParser(jwt.WithoutClaimsValidation())
		_, perr := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(h.sessionCfg.Secret), nil
		})
		if perr == nil && claims.LoginTime > 0 {
			duration = humanDuration(time.Since(time.Unix(claims.LoginTime, 0)))
		}
	}

	clearSessionCookie(c, h.sessionCfg)
	resp := gin.H{"success": true, "message": "logged out"}
	if duration != "" {
		resp["session_duration"] = duration
	}
	c.JSON(http.StatusOK, resp)
}

// humanDuration renders a duration the way a logout page would show it,
// e.g. "2 hours 5 minutes".
func humanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60

	var parts []string
	if hours == 1 {
		parts = append(parts, "1 hour")
	} else if hours > 1 {
		parts = append(parts, fmt.Sprintf("%d hours", hours))
	}
	if minutes == 1 {
		parts = append(parts, "1 minute")
	} else if minutes > 1 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%d minutes", minutes))
	}
	return strings.Join(parts, " ")
}
