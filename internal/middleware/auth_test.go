package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"storetrack/internal/database"
	"storetrack/internal/model"
	"storetrack/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func signToken(t *testing.T, userID uint, username string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(GetJWTSecret())
	require.NoError(t, err)
	return signed
}

// grantPermission wires user -> group -> role -> permission so the
// middleware's closure query resolves it.
func grantPermission(t *testing.T, db *gorm.DB, user *model.User, permName string) {
	t.Helper()
	ctx := context.Background()
	roleRepo := repository.NewRoleRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	perm := &model.Permission{Name: permName}
	require.NoError(t, roleRepo.FindOrCreatePermission(ctx, perm))

	role := &model.Role{Name: permName + "-role"}
	require.NoError(t, roleRepo.Create(ctx, role))
	require.NoError(t, roleRepo.AddPermission(ctx, role, perm))

	group := &model.Group{Name: permName + "-group"}
	require.NoError(t, groupRepo.Create(ctx, group))
	require.NoError(t, groupRepo.AddRole(ctx, group, role))
	require.NoError(t, groupRepo.AddUser(ctx, group, user))
}

func createUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}

func doRequest(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	router := gin.New()
	router.GET("/secret", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(router, http.MethodGet, "/secret", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	router := gin.New()
	router.GET("/secret", RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(router, http.MethodGet, "/secret", "not-a-jwt")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestRequireAuthSetsIdentity(t *testing.T) {
	db := newTestDB(t)
	InitPermissionMiddleware(db)
	user := createUser(t, db, "alice")

	router := gin.New()
	router.GET("/secret", RequireAuth(), func(c *gin.Context) {
		id, ok := CallerID(c)
		require.True(t, ok)
		c.String(http.StatusOK, fmt.Sprintf("%d", id))
	})

	w := doRequest(router, http.MethodGet, "/secret", signToken(t, user.ID, "alice"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fmt.Sprintf("%d", user.ID), w.Body.String())
}

func TestRequirePermissionsDeniesWithoutGrant(t *testing.T) {
	db := newTestDB(t)
	InitPermissionMiddleware(db)
	user := createUser(t, db, "alice")

	router := gin.New()
	router.GET("/items", RequireAuth(), RequirePermissions("item.update"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(router, http.MethodGet, "/items", signToken(t, user.ID, "alice"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "item.update")
}

func TestRequirePermissionsAllowsGranted(t *testing.T) {
	db := newTestDB(t)
	InitPermissionMiddleware(db)
	user := createUser(t, db, "alice")
	grantPermission(t, db, user, "item.update")

	router := gin.New()
	router.GET("/items", RequireAuth(), RequirePermissions("item.update"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(router, http.MethodGet, "/items", signToken(t, user.ID, "alice"))
	assert.Equal(t, http.StatusOK, w.Code)
}

// All listed permissions are required; one missing is enough to deny.
func TestRequirePermissionsIsConjunction(t *testing.T) {
	db := newTestDB(t)
	InitPermissionMiddleware(db)
	user := createUser(t, db, "alice")
	grantPermission(t, db, user, "admin.backend.access")

	router := gin.New()
	router.GET("/admin", RequireAuth(),
		RequirePermissions("admin.backend.access", "admin.user.delete"),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

	w := doRequest(router, http.MethodGet, "/admin", signToken(t, user.ID, "alice"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "admin.user.delete")
}

func TestRequireSelfOrPermissionsAllowsSelf(t *testing.T) {
	db := newTestDB(t)
	InitPermissionMiddleware(db)
	user := createUser(t, db, "alice")

	router := gin.New()
	router.GET("/users/:id", RequireAuth(),
		RequireSelfOrPermissions("id", "admin.user.read"),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

	token := signToken(t, user.ID, "alice")

	// Own profile: no permission needed.
	w := doRequest(router, http.MethodGet, fmt.Sprintf("/users/%d", user.ID), token)
	assert.Equal(t, http.StatusOK, w.Code)

	// Someone else's profile: denied without the grant.
	w = doRequest(router, http.MethodGet, fmt.Sprintf("/users/%d", user.ID+1), token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAnonymousRedirectsAuthenticated(t *testing.T) {
	db := newTestDB(t)
	InitPermissionMiddleware(db)
	user := createUser(t, db, "alice")

	router := gin.New()
	router.GET("/login", RequireAnonymous(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	// Anonymous callers pass through.
	w := doRequest(router, http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusOK, w.Code)

	// Authenticated callers are bounced to the landing page.
	w = doRequest(router, http.MethodGet, "/login", signToken(t, user.ID, "alice"))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LandingPath, w.Header().Get("Location"))
}
