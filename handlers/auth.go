package handlers

import (
	"net/http"
	"strings"
	"time"

	"bug_track_app_go/db"
	"bug_track_app_go/middleware"
	"bug_track_app_go/models"
	"bug_track_app_go/services"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Package level dummy hash used for timing mitigation when the
// username does not exist
var globalDummyHash = "$2a$10$X7.G.t8./.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t.t" // Fallback

func init() {
	// Generate a real dummy hash at startup to ensure consistent timing
	hash, _ := services.HashPassword("dummy_password_for_timing_mitigation")
	if hash != "" {
		globalDummyHash = hash
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SignupHandler creates a new account and returns a bearer token
func SignupHandler(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters long")
	}

	var existing models.User
	if err := db.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return echo.NewHTTPError(http.StatusConflict, "Username is already taken")
	} else if err != gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to check username")
	}

	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	user := &models.User{
		Username: req.Username,
		Email:    strings.TrimSpace(req.Email),
		Password: hashed,
	}
	if err := db.DB.Create(user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create account")
	}

	session, err := services.CreateSession(db.DB, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	return c.JSON(http.StatusCreated, authResponse{Token: session.Token, User: user})
}

// LoginHandler verifies credentials and returns a bearer token
func LoginHandler(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Username and password are required")
	}

	var user models.User
	if err := db.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		// Timing attack mitigation: always run a bcrypt comparison
		services.VerifyPassword(globalDummyHash, req.Password)
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	if !services.VerifyPassword(user.Password, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	session, err := services.CreateSession(db.DB, user.ID, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session")
	}

	now := time.Now()
	user.LastLoginAt = &now
	db.DB.Save(&user)

	return c.JSON(http.StatusOK, authResponse{Token: session.Token, User: &user})
}

// LogoutHandler deletes the current session
func LogoutHandler(c echo.Context) error {
	if token := middleware.BearerToken(c); token != "" {
		services.DeleteSession(db.DB, token)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out"})
}

// MeHandler returns the current user
func MeHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, user)
}
