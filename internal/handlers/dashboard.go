package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samasyax/samasyax/db"
	"github.com/samasyax/samasyax/internal/logger"
	"github.com/samasyax/samasyax/internal/models"
	"github.com/samasyax/samasyax/internal/policy"
	"github.com/samasyax/samasyax/internal/utils"
)

type StatsResponse struct {
	TotalProjects    int64         `json:"total_projects"`
	TotalIssues      int64         `json:"total_issues"`
	OpenIssues       int64         `json:"open_issues"`
	InProgressIssues int64         `json:"in_progress_issues"`
	DoneIssues       int64         `json:"done_issues"`
	TotalUsers       int64         `json:"total_users"`
	RecentActivity   []interface{} `json:"recent_activity"`
}

// GetStats returns aggregate counts under the caller's issue-visibility
// predicate. A developer or client with no project assignments gets the
// all-zero shape straight away, with no further queries.
func GetStats(ctx *gin.Context) {
	actor, err := utils.GetActor(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	stats := StatsResponse{RecentActivity: []interface{}{}}

	filter, err := issueFilterFor(actor)

	if err != nil {
		logger.Log.WithError(err).Error("Failed to build issue filter")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if filter.Empty() {
		ctx.JSON(http.StatusOK, stats)
		return
	}

	if filter.All {
		if err := db.DB.Model(&models.Project{}).Count(&stats.TotalProjects).Error; err != nil {
			logger.Log.WithError(err).Error("Failed to count projects")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	} else {
		stats.TotalProjects = int64(len(filter.ProjectIDs))
	}

	counts := []struct {
		target *int64
		status string
	}{
		{&stats.TotalIssues, ""},
		{&stats.OpenIssues, models.IssueStatusTodo},
		{&stats.InProgressIssues, models.IssueStatusInProgress},
		{&stats.DoneIssues, models.IssueStatusDone},
	}

	for _, c := range counts {
		q := applyIssueFilter(db.DB.Model(&models.Issue{}), filter)

		if c.status != "" {
			q = q.Where("status = ?", c.status)
		}

		if err := q.Count(c.target).Error; err != nil {
			logger.Log.WithError(err).Error("Failed to count issues")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if policy.SeesUserCount(actor) {
		if err := db.DB.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
			logger.Log.WithError(err).Error("Failed to count users")
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	ctx.JSON(http.StatusOK, stats)
}
