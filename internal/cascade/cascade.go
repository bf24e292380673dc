// Package cascade keeps references consistent when a project is deleted.
package cascade

import (
	"github.com/samasyax/samasyax/internal/logger"
	"github.com/samasyax/samasyax/internal/models"
	"github.com/samasyax/samasyax/internal/storage"
	"gorm.io/gorm"
)

type Coordinator struct {
	db     *gorm.DB
	images *storage.ImageStore
}

func New(db *gorm.DB, images *storage.ImageStore) *Coordinator {
	return &Coordinator{db: db, images: images}
}

// DeleteProject removes a project and everything hanging off it. The store
// has no multi-table transaction guarantee for this flow, so the ordering
// is the contract: comments and issues go first, then the membership rows,
// and the project record goes last. A crash partway through can leave
// orphaned issues (a later sweep or retry picks them up), but a membership
// row never outlives its project's deletion. Image removal is best effort.
//
// Deleting a project that no longer exists returns gorm.ErrRecordNotFound,
// so a racing second delete fails cleanly instead of repeating the cascade.
func (c *Coordinator) DeleteProject(projectID uint) (*models.Project, error) {
	var project models.Project

	if err := c.db.First(&project, projectID).Error; err != nil {
		return nil, err
	}

	var issues []models.Issue

	if err := c.db.Where("project_id = ?", projectID).Find(&issues).Error; err != nil {
		return nil, err
	}

	for _, issue := range issues {
		if issue.BugImage == "" {
			continue
		}
		if err := c.images.Remove(issue.BugImage); err != nil {
			logger.Log.WithError(err).WithField("issue_id", issue.ID).Warn("Failed to remove bug image during cascade")
		}
	}

	if len(issues) > 0 {
		issueIDs := make([]uint, 0, len(issues))
		for _, issue := range issues {
			issueIDs = append(issueIDs, issue.ID)
		}

		if err := c.db.Where("issue_id IN ?", issueIDs).Delete(&models.IssueComment{}).Error; err != nil {
			return nil, err
		}

		if err := c.db.Where("project_id = ?", projectID).Delete(&models.Issue{}).Error; err != nil {
			return nil, err
		}
	}

	// Memberships are removed for real, not soft deleted: the unique
	// user+project index must stay free for future assignments.
	if err := c.db.Unscoped().Where("project_id = ?", projectID).Delete(&models.ProjectMembership{}).Error; err != nil {
		return nil, err
	}

	if err := c.db.Delete(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// DeleteIssue removes a single issue along with its comments and attached
// image. Admin-only at the policy layer; here it just does the work.
func (c *Coordinator) DeleteIssue(issueID uint) (*models.Issue, error) {
	var issue models.Issue

	if err := c.db.First(&issue, issueID).Error; err != nil {
		return nil, err
	}

	if issue.BugImage != "" {
		if err := c.images.Remove(issue.BugImage); err != nil {
			logger.Log.WithError(err).WithField("issue_id", issue.ID).Warn("Failed to remove bug image")
		}
	}

	if err := c.db.Where("issue_id = ?", issue.ID).Delete(&models.IssueComment{}).Error; err != nil {
		return nil, err
	}

	if err := c.db.Delete(&issue).Error; err != nil {
		return nil, err
	}

	return &issue, nil
}
