package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samasyax/samasyax/db"
	"github.com/samasyax/samasyax/internal/logger"
	"github.com/samasyax/samasyax/internal/models"
	"github.com/samasyax/samasyax/internal/policy"
	"github.com/samasyax/samasyax/internal/types"
	"github.com/samasyax/samasyax/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AssignProjectsRequest struct {
	ProjectIDs []uint `json:"project_ids"`
}

type UpdateRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

type ToggleStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

func ListUsers(ctx *gin.Context) {
	var users []models.User

	if err := db.DB.Order("created_at DESC").Find(&users).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to retrieve users")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}

	type memberRow struct {
		UserID    uint
		ProjectID uint
		Name      string
	}

	var rows []memberRow

	err := db.DB.Model(&models.ProjectMembership{}).
		Select("project_memberships.user_id, projects.id AS project_id, projects.name").
		Joins("JOIN projects ON projects.id = project_memberships.project_id").
		Where("projects.deleted_at IS NULL").
		Scan(&rows).Error

	if err != nil {
		logger.Log.WithError(err).Error("Failed to retrieve project assignments")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	assignments := make(map[uint][]types.ProjectRef)

	for _, row := range rows {
		assignments[row.UserID] = append(assignments[row.UserID], types.ProjectRef{ID: row.ProjectID, Name: row.Name})
	}

	response := []types.UserResponse{}

	for _, user := range users {
		projects := assignments[user.ID]

		if projects == nil {
			projects = []types.ProjectRef{}
		}

		response = append(response, types.UserResponse{
			ID:               user.ID,
			Email:            user.Email,
			Role:             string(user.Role),
			IsActive:         user.IsActive,
			LastLogin:        user.LastLogin,
			CreatedAt:        user.CreatedAt,
			AssignedProjects: projects,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

// AssignProjects replaces a user's project assignments with the given set.
// Memberships are symmetric by construction: the same rows answer "which
// projects does this user have" and "which users does this project have".
func AssignProjects(ctx *gin.Context) {
	userID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid User ID"})
		return
	}

	var req AssignProjectsRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			logger.Log.WithError(err).Error("Failed to retrieve user")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	stale := db.DB.Unscoped().Where("user_id = ?", user.ID)

	if len(req.ProjectIDs) > 0 {
		stale = stale.Where("project_id NOT IN ?", req.ProjectIDs)
	}

	if err := stale.Delete(&models.ProjectMembership{}).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to remove stale assignments")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	for _, projectID := range req.ProjectIDs {
		membership := models.ProjectMembership{UserID: user.ID, ProjectID: projectID}

		err := db.DB.Where("user_id = ? AND project_id = ?", user.ID, projectID).
			FirstOrCreate(&membership).Error

		if err != nil {
			logger.Log.WithError(err).WithField("project_id", projectID).Error("Failed to assign project")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	projects, err := assignedProjectRefs(user.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to load assigned projects")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Role:             string(user.Role),
		IsActive:         user.IsActive,
		LastLogin:        user.LastLogin,
		CreatedAt:        user.CreatedAt,
		AssignedProjects: projects,
	})
}

func UpdateRole(ctx *gin.Context) {
	userID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid User ID"})
		return
	}

	var req UpdateRoleRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// The role enum is closed; anything outside it is rejected here.
	if !models.ValidRole(req.Role) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			logger.Log.WithError(err).Error("Failed to retrieve user")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := db.DB.Model(&user).Update("role", req.Role).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to update role")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	projects, err := assignedProjectRefs(user.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to load assigned projects")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Role:             string(req.Role),
		IsActive:         user.IsActive,
		LastLogin:        user.LastLogin,
		CreatedAt:        user.CreatedAt,
		AssignedProjects: projects,
	})
}

func ToggleStatus(ctx *gin.Context) {
	userID, err := utils.GetIDParam(ctx, "id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid User ID"})
		return
	}

	var req ToggleStatusRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			logger.Log.WithError(err).Error("Failed to retrieve user")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := db.DB.Model(&user).Update("is_active", *req.IsActive).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to toggle user status")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	projects, err := assignedProjectRefs(user.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to load assigned projects")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, types.UserResponse{
		ID:               user.ID,
		Email:            user.Email,
		Role:             string(user.Role),
		IsActive:         *req.IsActive,
		LastLogin:        user.LastLogin,
		CreatedAt:        user.CreatedAt,
		AssignedProjects: projects,
	})
}

func ChangePassword(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ChangePasswordRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, currentUser.ID).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to hash password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Model(&user).Update("password_hash", string(passwordHash)).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to update password")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// ExportUserData streams everything the caller is allowed to see as a
// downloadable JSON document.
func ExportUserData(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, actor.ID).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to fetch user")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	projectFilter := policy.VisibleProjects(actor)

	q := db.DB.Preload("Creator")

	if !projectFilter.All {
		q = q.Joins("JOIN project_memberships ON project_memberships.project_id = projects.id").
			Where("project_memberships.user_id = ?", projectFilter.MemberID)
	}

	var projects []models.Project

	if err := q.Find(&projects).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to retrieve projects")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	projectResponses := []ProjectResponse{}

	for _, project := range projects {
		item, err := buildProjectResponse(project, nil)

		if err != nil {
			logger.Log.WithError(err).Error("Failed to build project summary")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		projectResponses = append(projectResponses, item)
	}

	issueFilter, err := issueFilterFor(actor)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to build issue filter")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	issueResponses := []IssueResponse{}

	if !issueFilter.Empty() {
		issues, err := findIssues(issueFilter)

		if err != nil {
			logger.Log.WithError(err).Error("Failed to retrieve issues")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		issueResponses = toIssueResponses(issues)
	}

	ctx.Header("Content-Disposition", "attachment; filename=bug-logger-data.json")

	ctx.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"email":      user.Email,
			"role":       user.Role,
			"created_at": user.CreatedAt,
		},
		"projects":    projectResponses,
		"issues":      issueResponses,
		"export_date": time.Now().UTC().Format(time.RFC3339),
	})
}
