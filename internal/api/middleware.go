package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"aves/lms-app/internal/config"
	"aves/lms-app/internal/domain"
	"aves/lms-app/internal/service"
)

// Context key for the authenticated identity.
const ContextIdentityKey = "identity"

// SessionMiddleware authenticates the session cookie and renews it.
// Browser pages are the consumers here, so every failure is a redirect
// to the role selection page rather than a JSON 401. A valid request
// gets a fresh cookie with the full TTL, which makes the session slide:
// it only expires after a full TTL of inactivity.
func SessionMiddleware(cfg config.SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(cfg.CookieName)
		if err != nil || tokenString == "" {
			redirectToRoleSelection(c, cfg)
			return
		}

		claims := &service.SessionClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid || claims.UserID == 0 || !domain.ValidRole(string(claims.Role)) {
			redirectToRoleSelection(c, cfg)
			return
		}

		identity := service.Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
			Name:   claims.Name,
			Role:   claims.Role,
		}
		c.Set(ContextIdentityKey, identity)

		// Sliding renewal. The original login time is carried over so the
		// logout page can still report the full session duration.
		user := &domain.User{ID: claims.UserID, Email: claims.Email, Name: claims.Name, Role: claims.Role}
		if renewed, err := service.IssueSessionToken(user, cfg.Secret, cfg.TTL, time.Unix(claims.LoginTime, 0)); err == nil {
			setSessionCookie(c, cfg, renewed)
		}

		c.Next()
	}
}

// RequireRole gates a route group to one role. Admins pass everywhere.
// A logged-in user of the wrong role is sent back to the role selection
// page instead of getting a 403 page.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := identityFromContext(c)
		if err != nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		if identity.Role != role && identity.Role != domain.RoleAdmin {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func redirectToRoleSelection(c *gin.Context, cfg config.SessionConfig) {
	clearSessionCookie(c, cfg)
	c.Redirect(http.StatusFound, "/")
	c.Abort()
}

func setSessionCookie(c *gin.Context, cfg config.SessionConfig, token string) {
	c.SetCookie(cfg.CookieName, token, int(cfg.TTL.Seconds()), "/", "", cfg.Secure, true)
}

func clearSessionCookie(c *gin.Context, cfg config.SessionConfig) {
	c.SetCookie(cfg.CookieName, "", -1, "/", "", cfg.Secure, true)
}

func dashboardPath(role domain.Role) string {
	switch role {
	case domain.RoleTeacher:
		return "/teacher/dashboard"
	case domain.RoleAdmin:
		return "/admin/dashboard"
	default:
		return "/student/dashboard"
	}
}

// Helper to return JSON error response and abort request.
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

func identityFromContext(c *gin.Context) (service.Identity, error) {
	raw, exists := c.Get(ContextIdentityKey)
	if !exists {
		return service.Identity{}, errors.New("identity not found in context")
	}
	identity, ok := raw.(service.Identity)
	if !ok {
		return service.Identity{}, errors.New("invalid identity type in context")
	}
	return identity, nil
}
