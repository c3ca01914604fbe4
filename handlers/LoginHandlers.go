package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"backend/models"
	"backend/storage"
	"backend/utils"
)

// LoginHandler authenticates a buyer and opens a session.
// @Summary Login user
// @Description Authenticate user and return access/refresh tokens plus a session id
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /api/login [post]
func LoginHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var loginData models.LoginRequest
		if err := c.ShouldBindJSON(&loginData); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
			return
		}

		user, err := storage.GetUserByEmail(db, loginData.Email)
		if err != nil || !utils.ValidatePassword(user.Password, loginData.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}

		if user.Suspended {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}

		sessionID := uuid.NewString()
		now := time.Now()
		session := models.Session{
			SessionID: sessionID,
			UserID:    user.ID,
			IPAddress: c.ClientIP(),
			HostName:  c.Request.Host,
			CreatedAt: now,
			ExpiresAt: now.Add(15 * 24 * time.Hour),
		}
		if err := storage.SaveSession(db, &session); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session", "details": err.Error()})
			return
		}

		accessToken, err := utils.GenerateJWT(user.Email)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token", "details": err.Error()})
			return
		}
		refreshToken, err := utils.GenerateRefreshToken(user.Email, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token", "details": err.Error()})
			return
		}

		// Audit failures never fail the login.
		_ = storage.SaveActivityLog(db, models.ActivityLog{
			EventContext: "Auth",
			EventName:    "Login",
			Description:  "User logged in",
			UserName:     user.Email,
			CreatedAt:    now,
		})

		c.JSON(http.StatusOK, models.LoginResponse{
			Message:      "Login successful",
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			SessionID:    sessionID,
		})
	}
}

// LogoutHandler closes the caller's session.
// @Summary Logout user
// @Tags Authentication
// @Produce json
// @Success 200 {object} utils.Response
// @Failure 400 {object} models.ErrorResponse
// @Router /api/logout [post]
func LogoutHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		sessionID = strings.TrimSpace(strings.TrimPrefix(sessionID, "Bearer "))
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session id header is required"})
			return
		}

		if err := storage.DeleteSession(db, sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete session", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
	}
}

// RegisterHandler creates a buyer account. Passwords are stored as
// bcrypt hashes.
// @Summary Register user
// @Tags Authentication
// @Accept json
// @Produce json
// @Success 201 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /api/register [post]
func RegisterHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			FirstName string `json:"first_name"`
			LastName  string `json:"last_name"`
			Email     string `json:"email" binding:"required"`
			Password  string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required", "details": err.Error()})
			return
		}

		if _, err := storage.GetUserByEmail(db, input.Email); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
			return
		}

		hashed, err := utils.HashPassword(input.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password", "details": err.Error()})
			return
		}

		var user models.User
		query := `
			INSERT INTO users (first_name, last_name, email, password, role)
			VALUES ($1, $2, $3, $4, 'buyer')
			RETURNING id, first_name, last_name, email, role, suspended, created_at, updated_at`
		err = db.QueryRow(query, input.FirstName, input.LastName, input.Email, hashed).Scan(
			&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Role, &user.Suspended,
			&user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, user)
	}
}

// RequireSession is the auth middleware: it resolves the session id in
// the Authorization header to a user and stores it on the context.
func RequireSession(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("Authorization")
		sessionID = strings.TrimSpace(strings.TrimPrefix(sessionID, "Bearer "))
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		user, err := storage.GetUserBySessionID(db, sessionID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			return
		}
		if user.Suspended {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Account is suspended"})
			return
		}

		c.Set("user", user)
		c.Next()
	}
}
