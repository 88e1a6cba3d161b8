package middleware

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"storetrack/internal/repository"
	"storetrack/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

const (
	// LoginPath is where unauthenticated callers are redirected.
	LoginPath = "/login"
	// LandingPath is where already-authenticated callers are redirected
	// from anonymous-only entry points.
	LandingPath = "/"
)

// Context keys set by RequireAuth
const (
	CtxUserID   = "userID"
	CtxUsername = "username"
)

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// SetTokenCookies sets access_token and refresh_token as HttpOnly cookies
func SetTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	// access_token: 24h, refresh_token: 7 days
	c.SetCookie("access_token", accessToken, 3600*24, "/", "", secure, true)
	c.SetCookie("refresh_token", refreshToken, 3600*24*7, "/", "", secure, true)
}

// ClearTokenCookies removes access_token and refresh_token cookies
func ClearTokenCookies(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
	c.SetCookie("refresh_token", "", -1, "/", "", secure, true)
}

// permDB holds the database reference for permission closure queries — set
// via InitPermissionMiddleware.
var permDB *gorm.DB

// InitPermissionMiddleware sets the DB reference for the permission-checking
// middleware.
func InitPermissionMiddleware(db *gorm.DB) {
	permDB = db
}

// extractToken reads the JWT from the access_token cookie, falling back to
// the Authorization header.
func extractToken(c *gin.Context) string {
	if tokenString, err := c.Cookie("access_token"); err == nil && tokenString != "" {
		return tokenString
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// parseIdentity validates the token and returns the caller's user id and
// username.
func parseIdentity(tokenString string) (uint, string, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return GetJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		return 0, "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", false
	}

	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, "", false
	}
	username, _ := claims["username"].(string)

	return uint(sub), username, true
}

// RequireAuth validates the caller's token. Unauthenticated callers are
// redirected to the login entry point; authenticated callers get their
// identity stored on the request context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		userID, username, ok := parseIdentity(tokenString)
		if !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		c.Set(CtxUserID, userID)
		c.Set(CtxUsername, username)
		c.Next()
	}
}

// RequireAnonymous gates login/registration entry points: callers that are
// already authenticated are redirected to the landing page.
func RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := extractToken(c); tokenString != "" {
			if _, _, ok := parseIdentity(tokenString); ok {
				c.Redirect(http.StatusFound, LandingPath)
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequirePermissions checks that the caller holds every listed permission
// (logical AND, short-circuits on the first one missing). Must run after
// RequireAuth.
func RequirePermissions(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CallerID(c)
		if !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		if !hasAll(c, userID, required) {
			return
		}
		c.Next()
	}
}

// RequireSelfOrPermissions grants access unconditionally when the caller is
// the subject user named by the path parameter; otherwise it applies the
// same all-required check as RequirePermissions.
func RequireSelfOrPermissions(param string, required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := CallerID(c)
		if !ok {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}

		if subjectID, err := strconv.ParseUint(c.Param(param), 10, 64); err == nil && uint(subjectID) == userID {
			c.Next()
			return
		}

		if !hasAll(c, userID, required) {
			return
		}
		c.Next()
	}
}

// hasAll evaluates the group->role->permission closure once per required
// permission. Aborts with 403 on the first missing one.
func hasAll(c *gin.Context, userID uint, required []string) bool {
	for _, name := range required {
		ok, err := repository.UserHasPermission(c.Request.Context(), permDB, userID, name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				response.Error(http.StatusInternalServerError, "Failed to verify permissions"))
			return false
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden,
				response.Error(http.StatusForbidden, "Access denied: missing permission '"+name+"'"))
			return false
		}
	}
	return true
}

// CallerID returns the authenticated caller's user id set by RequireAuth.
func CallerID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(CtxUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
