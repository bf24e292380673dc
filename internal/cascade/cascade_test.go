package cascade

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samasyax/samasyax/internal/models"
	"github.com/samasyax/samasyax/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})

	if err != nil {
		t.Fatalf("open database: %v", err)
	}

	err = database.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMembership{},
		&models.Issue{},
		&models.IssueComment{},
	)

	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return database
}

func testStore(t *testing.T) *storage.ImageStore {
	t.Helper()

	store, err := storage.NewImageStore(t.TempDir())

	if err != nil {
		t.Fatalf("NewImageStore: %v", err)
	}

	return store
}

func seedProject(t *testing.T, database *gorm.DB, store *storage.ImageStore) (models.Project, string) {
	t.Helper()

	admin := models.User{Email: "admin@example.com", PasswordHash: "x", Role: models.RoleAdmin}
	client := models.User{Email: "client@example.com", PasswordHash: "x", Role: models.RoleClient}

	if err := database.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}

	if err := database.Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}

	project := models.Project{Name: "Billing", Description: "Billing service", CreatorID: admin.ID, Status: models.ProjectStatusActive, Priority: "medium"}

	if err := database.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	memberships := []models.ProjectMembership{
		{UserID: admin.ID, ProjectID: project.ID},
		{UserID: client.ID, ProjectID: project.ID},
	}

	if err := database.Create(&memberships).Error; err != nil {
		t.Fatalf("create memberships: %v", err)
	}

	imagePath := filepath.Join(store.Dir(), "bug.png")

	if err := os.WriteFile(imagePath, []byte("img"), 0o644); err != nil {
		t.Fatalf("write image: %v", err)
	}

	issues := []models.Issue{
		{
			Title:           "Checkout fails",
			Description:     "500 on submit",
			Priority:        models.IssuePriorityHigh,
			Status:          models.IssueStatusTodo,
			ProjectID:       project.ID,
			ReporterID:      client.ID,
			ExpectedOutcome: "Order placed",
			CurrentOutcome:  "Server error",
			BugImage:        storage.PublicPrefix + "bug.png",
		},
		{
			Title:           "Slow invoice list",
			Description:     "Takes 10s",
			Priority:        models.IssuePriorityLow,
			Status:          models.IssueStatusInProgress,
			ProjectID:       project.ID,
			ReporterID:      admin.ID,
			ExpectedOutcome: "Under 1s",
			CurrentOutcome:  "10s",
		},
	}

	if err := database.Create(&issues).Error; err != nil {
		t.Fatalf("create issues: %v", err)
	}

	comments := []models.IssueComment{
		{IssueID: issues[0].ID, UserID: admin.ID, Text: "Looking into it"},
		{IssueID: issues[1].ID, UserID: client.ID, Text: "Still slow today"},
	}

	if err := database.Create(&comments).Error; err != nil {
		t.Fatalf("create comments: %v", err)
	}

	return project, imagePath
}

func TestDeleteProjectCascade(t *testing.T) {
	database := testDB(t)
	store := testStore(t)
	project, imagePath := seedProject(t, database, store)

	deleted, err := New(database, store).DeleteProject(project.ID)

	if err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	if deleted.ID != project.ID || deleted.Name != project.Name {
		t.Errorf("returned wrong project: %+v", deleted)
	}

	var count int64

	database.Model(&models.Issue{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected no visible issues, got %d", count)
	}

	database.Model(&models.IssueComment{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no visible comments, got %d", count)
	}

	// Membership rows are gone for good, not just soft deleted.
	database.Unscoped().Model(&models.ProjectMembership{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected memberships hard-deleted, got %d rows", count)
	}

	if err := database.First(&models.Project{}, project.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("project should be invisible after delete, got %v", err)
	}

	if err := database.Unscoped().First(&models.Project{}, project.ID).Error; err != nil {
		t.Errorf("soft-deleted project row should survive, got %v", err)
	}

	if _, err := os.Stat(imagePath); !os.IsNotExist(err) {
		t.Errorf("bug image should be removed, stat err = %v", err)
	}
}

func TestDeleteProjectTwice(t *testing.T) {
	database := testDB(t)
	store := testStore(t)
	project, _ := seedProject(t, database, store)

	coordinator := New(database, store)

	if _, err := coordinator.DeleteProject(project.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}

	if _, err := coordinator.DeleteProject(project.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("second delete should report not found, got %v", err)
	}
}

func TestDeleteProjectFreesMembershipSlot(t *testing.T) {
	database := testDB(t)
	store := testStore(t)
	project, _ := seedProject(t, database, store)

	var membership models.ProjectMembership

	if err := database.Where("project_id = ?", project.ID).First(&membership).Error; err != nil {
		t.Fatalf("load membership: %v", err)
	}

	if _, err := New(database, store).DeleteProject(project.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	// The unique user+project slot must be reusable after the cascade.
	fresh := models.ProjectMembership{UserID: membership.UserID, ProjectID: membership.ProjectID}

	if err := database.Create(&fresh).Error; err != nil {
		t.Errorf("recreating the assignment should not hit the unique index: %v", err)
	}
}

func TestDeleteIssue(t *testing.T) {
	database := testDB(t)
	store := testStore(t)
	project, imagePath := seedProject(t, database, store)

	var issue models.Issue

	if err := database.Where("project_id = ? AND bug_image <> ''", project.ID).First(&issue).Error; err != nil {
		t.Fatalf("load issue: %v", err)
	}

	deleted, err := New(database, store).DeleteIssue(issue.ID)

	if err != nil {
		t.Fatalf("DeleteIssue: %v", err)
	}

	if deleted.ID != issue.ID {
		t.Errorf("returned wrong issue: %+v", deleted)
	}

	var count int64

	database.Model(&models.IssueComment{}).Where("issue_id = ?", issue.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected comments removed, got %d", count)
	}

	if err := database.First(&models.Issue{}, issue.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("issue should be invisible after delete, got %v", err)
	}

	if _, err := os.Stat(imagePath); !os.IsNotExist(err) {
		t.Errorf("bug image should be removed, stat err = %v", err)
	}

	// The sibling issue and the project itself are untouched.
	database.Model(&models.Issue{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected the other issue to survive, got %d", count)
	}

	if err := database.First(&models.Project{}, project.ID).Error; err != nil {
		t.Errorf("project should survive an issue delete, got %v", err)
	}
}

func TestDeleteIssueMissingImageFile(t *testing.T) {
	database := testDB(t)
	store := testStore(t)
	project, imagePath := seedProject(t, database, store)

	if err := os.Remove(imagePath); err != nil {
		t.Fatalf("remove image: %v", err)
	}

	var issue models.Issue

	if err := database.Where("project_id = ? AND bug_image <> ''", project.ID).First(&issue).Error; err != nil {
		t.Fatalf("load issue: %v", err)
	}

	if _, err := New(database, store).DeleteIssue(issue.ID); err != nil {
		t.Errorf("a missing image file must not block the delete, got %v", err)
	}
}
