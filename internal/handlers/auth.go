package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samasyax/samasyax/db"
	"github.com/samasyax/samasyax/internal/auth"
	"github.com/samasyax/samasyax/internal/logger"
	"github.com/samasyax/samasyax/internal/models"
	"github.com/samasyax/samasyax/internal/types"
	"github.com/samasyax/samasyax/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Register(ctx *gin.Context) {
	var req RegisterRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var existingUser models.User

	err := db.DB.Where("email = ?", req.Email).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.WithError(err).Error("Failed to check existing user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var userCount int64

	if err := db.DB.Model(&models.User{}).Count(&userCount).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to count users")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// The first account in an empty system becomes the admin; everyone
	// after that starts as a client and is promoted explicitly.
	role := models.RoleClient

	if userCount == 0 {
		role = models.RoleAdmin
	}

	now := time.Now()

	newUser := models.User{
		Email:        req.Email,
		PasswordHash: string(passwordHash),
		Role:         role,
		IsActive:     true,
		LastLogin:    &now,
	}

	if err := db.DB.Create(&newUser).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to create user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	token, err := auth.GenerateToken(newUser.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to generate token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user": types.UserResponse{
			ID:               newUser.ID,
			Email:            newUser.Email,
			Role:             string(newUser.Role),
			IsActive:         newUser.IsActive,
			LastLogin:        newUser.LastLogin,
			CreatedAt:        newUser.CreatedAt,
			AssignedProjects: []types.ProjectRef{},
		},
	})
}

func Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User

	err := db.DB.Where("email = ?", req.Email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials or account inactive"})
			return
		}
		logger.Log.WithError(err).Error("Failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !user.IsActive {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials or account inactive"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
		return
	}

	now := time.Now()

	if err := db.DB.Model(&user).Update("last_login", &now).Error; err != nil {
		logger.Log.WithError(err).Warn("Failed to update last login")
	}

	token, err := auth.GenerateToken(user.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to generate token")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	projects, err := assignedProjectRefs(user.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to load assigned projects")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": types.UserResponse{
			ID:               user.ID,
			Email:            user.Email,
			Role:             string(user.Role),
			IsActive:         user.IsActive,
			LastLogin:        &now,
			CreatedAt:        user.CreatedAt,
			AssignedProjects: projects,
		},
	})
}

func Me(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	projects, err := assignedProjectRefs(user.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to load assigned projects")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"user": types.UserResponse{
			ID:               user.ID,
			Email:            user.Email,
			Role:             string(user.Role),
			IsActive:         user.IsActive,
			LastLogin:        user.LastLogin,
			CreatedAt:        user.CreatedAt,
			AssignedProjects: projects,
		},
	})
}
