package handlers

import (
	"net/http"
	"strings"
	"time"

	"merritt/models"
	"merritt/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 12 * time.Hour

// AdminHandler issues tokens for the staff endpoints. There is a single admin
// account, configured by email and bcrypt hash.
type AdminHandler struct {
	Email        string
	PasswordHash string
}

func NewAdminHandler(email, passwordHash string) *AdminHandler {
	return &AdminHandler{Email: strings.ToLower(email), PasswordHash: passwordHash}
}

// LoginHandler handles POST /api/admin/login
func (ah *AdminHandler) LoginHandler(c *gin.Context) {
	var req models.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if ah.Email == "" || ah.PasswordHash == "" {
		utils.JSONError(c, http.StatusServiceUnavailable, "Admin login is not configured", "")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != ah.Email || bcrypt.CompareHashAndPassword([]byte(ah.PasswordHash), []byte(req.Password)) != nil {
		zap.L().Warn("Failed admin login", zap.String("email", email), zap.String("ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateToken(email, "admin", adminTokenTTL)
	if err != nil {
		utils.RespondError(c, utils.Internal("Failed to issue token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": time.Now().Add(adminTokenTTL).Unix(),
	})
}
