package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samasyax/samasyax/db"
	"github.com/samasyax/samasyax/internal/logger"
	"github.com/samasyax/samasyax/internal/models"
	"github.com/samasyax/samasyax/internal/policy"
	"github.com/samasyax/samasyax/internal/storage"
	"github.com/samasyax/samasyax/internal/types"
	"github.com/samasyax/samasyax/internal/utils"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CreateIssueRequest struct {
	Title           string   `form:"title" binding:"required"`
	Description     string   `form:"description" binding:"required"`
	Priority        string   `form:"priority"`
	Status          string   `form:"status"`
	ProjectID       uint     `form:"project_id" binding:"required"`
	ExpectedOutcome string   `form:"expected_outcome" binding:"required"`
	CurrentOutcome  string   `form:"current_outcome" binding:"required"`
	Tags            []string `form:"tags"`
}

type UpdateIssueRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description" binding:"required"`
	Priority        string `json:"priority" binding:"required"`
	Status          string `json:"status" binding:"required"`
	ExpectedOutcome string `json:"expected_outcome" binding:"required"`
	CurrentOutcome  string `json:"current_outcome" binding:"required"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	User      UserRef   `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type IssueResponse struct {
	ID              uint               `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Priority        string             `json:"priority"`
	Status          string             `json:"status"`
	Project         types.ProjectRef   `json:"project"`
	Reporter        UserRef            `json:"reporter"`
	AssignedTo      *UserRef           `json:"assigned_to"`
	ExpectedOutcome string             `json:"expected_outcome"`
	CurrentOutcome  string             `json:"current_outcome"`
	BugImage        string             `json:"bug_image,omitempty"`
	Tags            []string           `json:"tags"`
	Comments        []CommentResponse  `json:"comments"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func GetAllIssues(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	filter, err := issueFilterFor(actor)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to build issue filter")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if filter.Empty() {
		ctx.JSON(http.StatusOK, []IssueResponse{})
		return
	}

	issues, err := findIssues(filter)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to retrieve issues")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	ctx.JSON(http.StatusOK, toIssueResponses(issues))
}

func GetProjectIssues(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetIDParam(ctx, "project_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Project ID"})
		return
	}

	isMember := false

	if actor.Role != models.RoleAdmin {
		isMember, err = isProjectMember(actor.ID, projectID)

		if err != nil {
			logger.Log.WithError(err).Error("Failed to check project membership")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := policy.CanListProjectIssues(actor, isMember); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this project"})
		return
	}

	filter, err := issueFilterFor(actor)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to build issue filter")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	issues, err := findIssues(filter.ScopedToProject(projectID))

	if err != nil {
		logger.Log.WithError(err).Error("Failed to retrieve issues")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}

	ctx.JSON(http.StatusOK, toIssueResponses(issues))
}

func CreateIssue(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateIssueRequest

	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Priority == "" {
		req.Priority = models.IssuePriorityMedium
	}

	if req.Status == "" {
		req.Status = models.IssueStatusTodo
	}

	if !models.ValidIssuePriority(req.Priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	if !models.ValidIssueStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, req.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			logger.Log.WithError(err).Error("Failed to retrieve project")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	isMember := false

	if actor.Role != models.RoleAdmin {
		isMember, err = isProjectMember(actor.ID, project.ID)

		if err != nil {
			logger.Log.WithError(err).Error("Failed to check project membership")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := policy.CanCreateIssue(actor, isMember); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this project"})
		return
	}

	issue := models.Issue{
		Title:           req.Title,
		Description:     req.Description,
		Priority:        req.Priority,
		Status:          req.Status,
		ProjectID:       project.ID,
		ReporterID:      actor.ID,
		ExpectedOutcome: req.ExpectedOutcome,
		CurrentOutcome:  req.CurrentOutcome,
	}

	if len(req.Tags) > 0 {
		tags, err := json.Marshal(req.Tags)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tags"})
			return
		}

		issue.Tags = datatypes.JSON(tags)
	}

	if file, err := ctx.FormFile("bug_image"); err == nil {
		path, err := imageStore.Save(file)

		if err != nil {
			switch {
			case errors.Is(err, storage.ErrImageTooLarge):
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "File too large. Maximum size is 5MB."})
			case errors.Is(err, storage.ErrUnsupportedType):
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type"})
			default:
				logger.Log.WithError(err).Error("Failed to store bug image")
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store bug image"})
			}
			return
		}

		issue.BugImage = path
	}

	if err := db.DB.Create(&issue).Error; err != nil {
		if issue.BugImage != "" {
			if rmErr := imageStore.Remove(issue.BugImage); rmErr != nil {
				logger.Log.WithError(rmErr).Warn("Failed to remove image for unsaved issue")
			}
		}
		logger.Log.WithError(err).Error("Failed to create issue")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	response, err := loadIssueResponse(issue.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to load created issue")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastIssueEvent(issue.ProjectID, "issue_created", issue.ID, issue.Title)

	ctx.JSON(http.StatusCreated, response)
}

func UpdateIssue(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issueID, err := utils.GetIDParam(ctx, "issue_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Issue ID"})
		return
	}

	var req UpdateIssueRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !models.ValidIssuePriority(req.Priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority"})
		return
	}

	if !models.ValidIssueStatus(req.Status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}

	var issue models.Issue

	if err := db.DB.First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			logger.Log.WithError(err).Error("Failed to retrieve issue")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	isMember := false

	if actor.Role == models.RoleDeveloper {
		isMember, err = isProjectMember(actor.ID, issue.ProjectID)

		if err != nil {
			logger.Log.WithError(err).Error("Failed to check project membership")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := policy.CanUpdateIssue(actor, issue.ReporterID, isMember); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	updates := map[string]interface{}{
		"title":            req.Title,
		"description":      req.Description,
		"priority":         req.Priority,
		"status":           req.Status,
		"expected_outcome": req.ExpectedOutcome,
		"current_outcome":  req.CurrentOutcome,
	}

	if err := db.DB.Model(&issue).Updates(updates).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to update issue")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}

	response, err := loadIssueResponse(issue.ID)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to load updated issue")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastIssueEvent(issue.ProjectID, "issue_updated", issue.ID, req.Title)

	ctx.JSON(http.StatusOK, response)
}

func DeleteIssue(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := policy.CanDeleteIssue(actor); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		return
	}

	issueID, err := utils.GetIDParam(ctx, "issue_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Issue ID"})
		return
	}

	issue, err := coordinator.DeleteIssue(issueID)

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			logger.Log.WithError(err).WithField("issue_id", issueID).Error("Failed to delete issue")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		}
		return
	}

	BroadcastIssueEvent(issue.ProjectID, "issue_deleted", issue.ID, issue.Title)

	ctx.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

func AddComment(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	issueID, err := utils.GetIDParam(ctx, "issue_id")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Issue ID"})
		return
	}

	var req AddCommentRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var issue models.Issue

	if err := db.DB.Preload("Reporter").First(&issue, issueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			logger.Log.WithError(err).Error("Failed to retrieve issue")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	isMember := false

	if actor.Role != models.RoleAdmin {
		isMember, err = isProjectMember(actor.ID, issue.ProjectID)

		if err != nil {
			logger.Log.WithError(err).Error("Failed to check project membership")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := policy.CanViewIssue(actor, issue.ReporterID, issue.Reporter.IsAdmin(), isMember); err != nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	comment := models.IssueComment{
		IssueID: issue.ID,
		UserID:  actor.ID,
		Text:    req.Text,
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to add comment")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, actor.ID).Error; err != nil {
		logger.Log.WithError(err).Error("Failed to fetch commenter")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastIssueEvent(issue.ProjectID, "issue_commented", issue.ID, issue.Title)

	ctx.JSON(http.StatusCreated, CommentResponse{
		ID:        comment.ID,
		User:      UserRef{ID: user.ID, Email: user.Email},
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	})
}

func findIssues(filter policy.IssueFilter) ([]models.Issue, error) {
	q := applyIssueFilter(db.DB, filter).
		Preload("Project").
		Preload("Reporter").
		Preload("AssignedTo").
		Preload("Comments").
		Preload("Comments.User").
		Order("created_at DESC")

	var issues []models.Issue

	if err := q.Find(&issues).Error; err != nil {
		return nil, err
	}

	return issues, nil
}

func loadIssueResponse(issueID uint) (IssueResponse, error) {
	var issue models.Issue

	err := db.DB.Preload("Project").
		Preload("Reporter").
		Preload("AssignedTo").
		Preload("Comments").
		Preload("Comments.User").
		First(&issue, issueID).Error

	if err != nil {
		return IssueResponse{}, err
	}

	return toIssueResponse(issue), nil
}

func toIssueResponses(issues []models.Issue) []IssueResponse {
	response := []IssueResponse{}

	for _, issue := range issues {
		response = append(response, toIssueResponse(issue))
	}

	return response
}

func toIssueResponse(issue models.Issue) IssueResponse {
	tags := []string{}

	if len(issue.Tags) > 0 {
		if err := json.Unmarshal(issue.Tags, &tags); err != nil {
			tags = []string{}
		}
	}

	var assignedTo *UserRef

	if issue.AssignedTo != nil && issue.AssignedTo.ID != 0 {
		assignedTo = &UserRef{ID: issue.AssignedTo.ID, Email: issue.AssignedTo.Email}
	}

	comments := []CommentResponse{}

	for _, comment := range issue.Comments {
		comments = append(comments, CommentResponse{
			ID:        comment.ID,
			User:      UserRef{ID: comment.User.ID, Email: comment.User.Email},
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		})
	}

	return IssueResponse{
		ID:              issue.ID,
		Title:           issue.Title,
		Description:     issue.Description,
		Priority:        issue.Priority,
		Status:          issue.Status,
		Project:         types.ProjectRef{ID: issue.Project.ID, Name: issue.Project.Name},
		Reporter:        UserRef{ID: issue.Reporter.ID, Email: issue.Reporter.Email},
		AssignedTo:      assignedTo,
		ExpectedOutcome: issue.ExpectedOutcome,
		CurrentOutcome:  issue.CurrentOutcome,
		BugImage:        issue.BugImage,
		Tags:            tags,
		Comments:        comments,
		CreatedAt:       issue.CreatedAt,
		UpdatedAt:       issue.UpdatedAt,
	}
}
