package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	// 2. Find User in DB
	var user models.User
	if err := h.DB.WithContext(c.Request.Context()).Where("username = ?", input.Username).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 3. Verify Password (Bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	role, err := auth.ParseRole(user.Role)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account has no valid role"})
		return
	}

	// 4. Generate JWT Token
	token, err := h.Tokens.Generate(user.ID, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// 5. Success! Return Token and Role
	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     role,
		"username": user.Username,
	})
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// Register creates an account. It is only mounted when ALLOW_REGISTRATION is set.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest

	// 1. Parse JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid input")
		return
	}

	role := auth.Owner
	if strings.TrimSpace(input.Role) != "" {
		r, err := auth.ParseRole(input.Role)
		if err != nil {
			badRequest(c, "Role must be Owner, Admin or Cashier")
			return
		}
		role = r
	}

	// 2. Hash the Password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	// 3. Save to DB
	user := models.User{
		Username:     input.Username,
		PasswordHash: string(hashedPassword),
		Role:         string(role),
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		badRequest(c, "User likely already exists")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "id": user.ID})
}
