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
	"github.com/samasyax/samasyax/internal/utils"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

type UserRef struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
}

type ProjectResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Creator       UserRef   `json:"creator"`
	AssignedUsers []UserRef `json:"assigned_users"`
	Status        string    `json:"status"`
	Priority      string    `json:"priority"`
	CreatedAt     time.Time `json:"created_at"`
	IssueCount    int64     `json:"issue_count"`
	OpenIssues    int64     `json:"open_issues"`
}

func ListProjects(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	filter := policy.VisibleProjects(actor)

	q := db.DB.Preload("Creator")

	if !filter.All {
		q = q.Joins("JOIN project_memberships ON project_memberships.project_id = projects.id").
			Where("project_memberships.user_id = ?", filter.MemberID)
	}

	var projects []models.Project

	if err := q.Order("projects.created_at DESC").Find(&projects).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to retrieve projects")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	// Clients only count issues they are allowed to see.
	var reporterIDs []uint

	if actor.Role == models.RoleClient {
		adminIDs, err := adminUserIDs()

		if err != nil {
			logger.Log.WithError(err).Error("Failed to load admin users")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		reporterIDs = append([]uint{actor.ID}, adminIDs...)
	}

	response := []ProjectResponse{}

	for _, project := range projects {
		item, err := buildProjectResponse(project, reporterIDs)

		if err != nil {
			logger.Log.WithError(err).WithField("project_id", project.ID).Error("Failed to build project summary")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		response = append(response, item)
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateProject(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := policy.CanCreateProject(actor); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	var req CreateProjectRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Status == "" {
		req.Status = models.ProjectStatusActive
	}

	if req.Priority == "" {
		req.Priority = models.IssuePriorityMedium
	}

	if !models.ValidProjectStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	if !models.ValidIssuePriority(req.Priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	project := models.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   actor.ID,
		Status:      req.Status,
		Priority:    req.Priority,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to create project")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	// The creator is always a member of the project they created.
	membership := models.ProjectMembership{UserID: actor.ID, ProjectID: project.ID}

	if err := db.DB.Create(&membership).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to assign creator to project")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	response, err := buildProjectResponse(project, nil)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to build project summary")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, response)
}

func DeleteProject(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := policy.CanDeleteProject(actor); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	projectID, err := utils.GetIDParam(ctx, "project_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Project ID"})
		return
	}

	project, err := coordinator.DeleteProject(projectID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			logger.Log.WithError(err).WithField("project_id", projectID).Error("Failed to delete project")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":         "Project and all associated issues deleted successfully",
		"deleted_project": project.Name,
	})
}

// buildProjectResponse assembles the listing row for one project. When
// reporterIDs is non-empty the issue counts are restricted to those
// reporters (the client visibility rule).
func buildProjectResponse(project models.Project, reporterIDs []uint) (ProjectResponse, error) {
	var creator models.User

	if project.Creator.ID != 0 {
		creator = project.Creator
	} else if err := db.DB.First(&creator, project.CreatorID).Error; err != nil {
		return ProjectResponse{}, err
	}

	assigned := []UserRef{}

	err := db.DB.Model(&models.ProjectMembership{}).
		Select("users.id, users.email").
		Joins("JOIN users ON users.id = project_memberships.user_id").
		Where("project_memberships.project_id = ?", project.ID).
		Scan(&assigned).Error

	if err != nil {
		return ProjectResponse{}, err
	}

	countQ := func() *gorm.DB {
		q := db.DB.Model(&models.Issue{}).Where("project_id = ?", project.ID)
		if len(reporterIDs) > 0 {
			q = q.Where("reporter_id IN ?", reporterIDs)
		}
		return q
	}

	var issueCount, openIssues int64

	if err := countQ().Count(&issueCount).Error; err != nil {
		return ProjectResponse{}, err
	}

	if err := countQ().Where("status = ?", models.IssueStatusTodo).Count(&openIssues).Error; err != nil {
		return ProjectResponse{}, err
	}

	return ProjectResponse{
		ID:            project.ID,
		Name:          project.Name,
		Description:   project.Description,
		Creator:       UserRef{ID: creator.ID, Email: creator.Email},
		AssignedUsers: assigned,
		Status:        project.Status,
		Priority:      project.Priority,
		CreatedAt:     project.CreatedAt,
		IssueCount:    issueCount,
		OpenIssues:    openIssues,
	}, nil
}
