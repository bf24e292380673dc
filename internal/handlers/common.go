package handlers

import (
	"github.com/samasyax/samasyax/db"
	"github.com/samasyax/samasyax/internal/cascade"
	"github.com/samasyax/samasyax/internal/config"
	"github.com/samasyax/samasyax/internal/models"
	"github.com/samasyax/samasyax/internal/policy"
	"github.com/samasyax/samasyax/internal/storage"
	"github.com/samasyax/samasyax/internal/types"
	"gorm.io/gorm"
)

var (
	imageStore     *storage.ImageStore
	coordinator    *cascade.Coordinator
	allowedOrigins []string
)

// Configure wires the handler package's shared collaborators. Must be
// called after the database connection is established.
func Configure(cfg *config.Config, store *storage.ImageStore) {
	imageStore = store
	coordinator = cascade.New(db.DB, store)
	allowedOrigins = cfg.AllowedOrigins
}

func memberProjectIDs(userID uint) ([]uint, error) {
	var ids []uint

	err := db.DB.Model(&models.ProjectMembership{}).
		Where("user_id = ?", userID).
		Pluck("project_id", &ids).Error

	return ids, err
}

func adminUserIDs() ([]uint, error) {
	var ids []uint

	err := db.DB.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Pluck("id", &ids).Error

	return ids, err
}

func isProjectMember(userID, projectID uint) (bool, error) {
	var count int64

	err := db.DB.Model(&models.ProjectMembership{}).
		Where("user_id = ? AND project_id = ?", userID, projectID).
		Count(&count).Error

	return count > 0, err
}

// applyIssueFilter translates the policy's visibility predicate into query
// conditions. Callers must short-circuit on filter.Empty() themselves when
// they want to avoid hitting the database at all.
func applyIssueFilter(q *gorm.DB, f policy.IssueFilter) *gorm.DB {
	if f.All {
		return q
	}

	q = q.Where("project_id IN ?", f.ProjectIDs)

	if f.RestrictReporters {
		q = q.Where("reporter_id IN ?", f.ReporterIDs)
	}

	return q
}

// issueFilterFor assembles the listing predicate for an actor, fetching
// the membership and admin-id sets the policy needs.
func issueFilterFor(actor policy.Actor) (policy.IssueFilter, error) {
	if actor.Role == models.RoleAdmin {
		return policy.VisibleIssues(actor, nil, nil), nil
	}

	memberIDs, err := memberProjectIDs(actor.ID)

	if err != nil {
		return policy.IssueFilter{}, err
	}

	var adminIDs []uint

	if actor.Role == models.RoleClient {
		adminIDs, err = adminUserIDs()

		if err != nil {
			return policy.IssueFilter{}, err
		}
	}

	return policy.VisibleIssues(actor, memberIDs, adminIDs), nil
}

func assignedProjectRefs(userID uint) ([]types.ProjectRef, error) {
	refs := []types.ProjectRef{}

	err := db.DB.Model(&models.ProjectMembership{}).
		Select("projects.id, projects.name").
		Joins("JOIN projects ON projects.id = project_memberships.project_id").
		Where("project_memberships.user_id = ? AND projects.deleted_at IS NULL", userID).
		Scan(&refs).Error

	return refs, err
}
