// Package policy holds every role-based visibility and mutation rule in one
// place. Functions are pure: callers gather whatever record state a rule
// depends on (membership sets, admin ids, the issue's reporter) and receive
// either a filter description to apply to a query or an allow/deny decision.
package policy

import (
	"errors"

	"github.com/samasyax/samasyax/internal/models"
)

// ErrAccessDenied is returned for every role or membership check that
// fails. Callers must not fall back to a partial result.
var ErrAccessDenied = errors.New("access denied")

// Actor is the authenticated identity a rule is evaluated for.
type Actor struct {
	ID   uint
	Role models.Role
}

// ProjectFilter describes which projects an actor may list.
type ProjectFilter struct {
	// All is set for admins, who see every project.
	All bool
	// MemberID restricts the listing to projects this user is assigned to.
	MemberID uint
}

func VisibleProjects(a Actor) ProjectFilter {
	if a.Role == models.RoleAdmin {
		return ProjectFilter{All: true}
	}
	return ProjectFilter{MemberID: a.ID}
}

// IssueFilter describes which issues an actor may list.
type IssueFilter struct {
	// All is set for admins.
	All bool
	// ProjectIDs restricts to issues in these projects. Empty with All
	// unset means nothing is visible.
	ProjectIDs []uint
	// RestrictReporters additionally requires the reporter to be one of
	// ReporterIDs: for clients, themselves plus every admin.
	RestrictReporters bool
	ReporterIDs       []uint
}

// Empty reports whether the filter can never match anything, letting
// callers skip the query entirely.
func (f IssueFilter) Empty() bool {
	return !f.All && len(f.ProjectIDs) == 0
}

// VisibleIssues computes the issue-listing predicate for an actor.
// memberProjectIDs are the projects the actor is assigned to; adminIDs is
// the id set of admin users and is only consulted for clients.
func VisibleIssues(a Actor, memberProjectIDs []uint, adminIDs []uint) IssueFilter {
	switch a.Role {
	case models.RoleAdmin:
		return IssueFilter{All: true}
	case models.RoleDeveloper:
		return IssueFilter{ProjectIDs: memberProjectIDs}
	default:
		reporters := make([]uint, 0, len(adminIDs)+1)
		reporters = append(reporters, a.ID)
		reporters = append(reporters, adminIDs...)
		return IssueFilter{
			ProjectIDs:        memberProjectIDs,
			RestrictReporters: true,
			ReporterIDs:       reporters,
		}
	}
}

// ScopedToProject narrows the filter to a single project, keeping any
// reporter restriction. Callers must have already passed
// CanListProjectIssues for that project.
func (f IssueFilter) ScopedToProject(projectID uint) IssueFilter {
	return IssueFilter{
		ProjectIDs:        []uint{projectID},
		RestrictReporters: f.RestrictReporters,
		ReporterIDs:       f.ReporterIDs,
	}
}

// CanListProjectIssues gates issue listing for a single project.
// Developers and clients must be assigned to it; admins pass regardless.
func CanListProjectIssues(a Actor, isMember bool) error {
	if a.Role == models.RoleAdmin || isMember {
		return nil
	}
	return ErrAccessDenied
}

// CanCreateIssue allows admins unconditionally; developers and clients
// must be assigned to the target project.
func CanCreateIssue(a Actor, isMember bool) error {
	if a.Role == models.RoleAdmin || isMember {
		return nil
	}
	return ErrAccessDenied
}

// CanUpdateIssue allows admins unconditionally, clients only on issues
// they reported, and developers only on issues in their assigned projects.
func CanUpdateIssue(a Actor, reporterID uint, isMember bool) error {
	switch a.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleClient:
		if reporterID == a.ID {
			return nil
		}
	case models.RoleDeveloper:
		if isMember {
			return nil
		}
	}
	return ErrAccessDenied
}

// CanViewIssue is the single-record form of the listing predicate, used
// when acting on one issue (commenting, reading a detail view).
func CanViewIssue(a Actor, reporterID uint, reporterIsAdmin bool, isMember bool) error {
	switch a.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleDeveloper:
		if isMember {
			return nil
		}
	case models.RoleClient:
		if isMember && (reporterID == a.ID || reporterIsAdmin) {
			return nil
		}
	}
	return ErrAccessDenied
}

func CanCreateProject(a Actor) error { return adminOnly(a) }

func CanDeleteProject(a Actor) error { return adminOnly(a) }

func CanDeleteIssue(a Actor) error { return adminOnly(a) }

// CanManageUsers covers listing users, role changes, project assignment
// and activation toggles.
func CanManageUsers(a Actor) error { return adminOnly(a) }

// SeesUserCount reports whether dashboard stats include the real user
// total; everyone else gets zero.
func SeesUserCount(a Actor) bool {
	return a.Role == models.RoleAdmin
}

func adminOnly(a Actor) error {
	if a.Role == models.RoleAdmin {
		return nil
	}
	return ErrAccessDenied
}
