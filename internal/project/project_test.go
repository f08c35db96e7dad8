package project

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/models"
)

// testDB creates an in-memory SQLite database with all required tables.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Status{},
		&models.Task{},
		&models.Feedback{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, email string) string {
	t.Helper()
	if err := db.Create(&models.User{ID: id, Email: email}).Error; err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return id
}

func TestGenerateID_Format(t *testing.T) {
	id, err := GenerateID()
	if err != nil {
		t.Fatalf("GenerateID() error: %v", err)
	}
	if !strings.HasPrefix(id, "prj-") {
		t.Errorf("ID %q missing prj- prefix", id)
	}
	// prj- (4 chars) + 5 hex chars = 9 total
	if len(id) != 9 {
		t.Errorf("ID length = %d, want 9; id = %q", len(id), id)
	}
}

func TestCreate_OwnerBecomesMember(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "usr-aaaa0001", "owner@example.com")

	p, err := Create(db, CreateOpts{Name: "Relaunch", Description: "desc", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := IsMember(db, p.ID, owner)
	if err != nil {
		t.Fatalf("IsMember: %v", err)
	}
	if !ok {
		t.Error("owner is not a member of the new project")
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testDB(t)

	tests := []struct {
		name      string
		opts      CreateOpts
		wantField string
	}{
		{"missing name", CreateOpts{OwnerID: "usr-aaaa0001"}, "name"},
		{"missing owner", CreateOpts{Name: "x"}, "ownerID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(db, tt.opts)
			ve, ok := apperr.AsValidation(err)
			if !ok {
				t.Fatalf("Create = %v, want validation error", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestListForUser(t *testing.T) {
	db := testDB(t)
	alice := seedUser(t, db, "usr-aaaa0001", "alice@example.com")
	bob := seedUser(t, db, "usr-bbbb0001", "bob@example.com")

	mine, err := Create(db, CreateOpts{Name: "Mine", OwnerID: alice})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := Create(db, CreateOpts{Name: "Theirs", OwnerID: bob}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := ListForUser(db, alice)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Errorf("ListForUser = %+v, want only %s", got, mine.ID)
	}
}

func TestRequireMember(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "usr-aaaa0001", "owner@example.com")
	outsider := seedUser(t, db, "usr-bbbb0001", "outsider@example.com")

	p, err := Create(db, CreateOpts{Name: "Private", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := RequireMember(db, p.ID, owner); err != nil {
		t.Errorf("RequireMember(owner) = %v, want nil", err)
	}
	if err := RequireMember(db, p.ID, outsider); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("RequireMember(outsider) = %v, want ErrForbidden", err)
	}
}

func TestAddMember(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "usr-aaaa0001", "owner@example.com")
	invitee := seedUser(t, db, "usr-bbbb0001", "invitee@example.com")

	p, err := Create(db, CreateOpts{Name: "Shared", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := AddMember(db, p.ID, invitee); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	members, err := Members(db, p.ID)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("got %d members, want 2", len(members))
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "usr-aaaa0001", "owner@example.com")
	p, err := Create(db, CreateOpts{Name: "Before", Description: "keep me", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "After"
	if _, err := Update(db, p.ID, UpdateOpts{Name: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	reload, err := Get(db, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if reload.Name != "After" {
		t.Errorf("name = %q, want After", reload.Name)
	}
	if reload.Description != "keep me" {
		t.Errorf("description = %q changed by partial update", reload.Description)
	}

	empty := ""
	_, err = Update(db, p.ID, UpdateOpts{Name: &empty})
	if _, ok := apperr.AsValidation(err); !ok {
		t.Errorf("Update with empty name = %v, want validation error", err)
	}
}

func TestDelete_CleansOwnedRows(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "usr-aaaa0001", "owner@example.com")
	p, err := Create(db, CreateOpts{Name: "Doomed", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	status, err := CreateStatus(db, StatusOpts{ProjectID: p.ID, Name: "Todo"})
	if err != nil {
		t.Fatalf("CreateStatus: %v", err)
	}
	if err := db.Create(&models.Task{ID: "tsk-aaaa0001", ProjectID: p.ID, Name: "t", StatusID: &status.ID}).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	if err := db.Create(&models.Feedback{UserID: owner, ProjectID: p.ID, Mood: 3}).Error; err != nil {
		t.Fatalf("seed feedback: %v", err)
	}

	if err := Delete(db, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := Get(db, p.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	for table, want := range map[string]int64{"tasks": 0, "statuses": 0, "feedbacks": 0, "project_members": 0} {
		var count int64
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != want {
			t.Errorf("%s has %d rows after delete, want %d", table, count, want)
		}
	}
}

func TestCreateStatus_NameUniquePerProject(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "usr-aaaa0001", "owner@example.com")
	p, err := Create(db, CreateOpts{Name: "Proj", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other, err := Create(db, CreateOpts{Name: "Other", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := CreateStatus(db, StatusOpts{ProjectID: p.ID, Name: "Todo"}); err != nil {
		t.Fatalf("CreateStatus: %v", err)
	}

	_, err = CreateStatus(db, StatusOpts{ProjectID: p.ID, Name: "Todo"})
	ve, ok := apperr.AsValidation(err)
	if !ok || ve.Field != "name" {
		t.Errorf("duplicate CreateStatus = %v, want validation on name", err)
	}

	// The same name is fine in a different project.
	if _, err := CreateStatus(db, StatusOpts{ProjectID: other.ID, Name: "Todo"}); err != nil {
		t.Errorf("CreateStatus in other project: %v", err)
	}
}

func TestListStatuses_Ordered(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "usr-aaaa0001", "owner@example.com")
	p, err := Create(db, CreateOpts{Name: "Proj", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, s := range []StatusOpts{
		{ProjectID: p.ID, Name: "Done", Order: 3},
		{ProjectID: p.ID, Name: "Todo", Order: 1},
		{ProjectID: p.ID, Name: "In-Progress", Order: 2},
	} {
		if _, err := CreateStatus(db, s); err != nil {
			t.Fatalf("CreateStatus %q: %v", s.Name, err)
		}
	}

	statuses, err := ListStatuses(db, p.ID)
	if err != nil {
		t.Fatalf("ListStatuses: %v", err)
	}
	want := []string{"Todo", "In-Progress", "Done"}
	for i, w := range want {
		if statuses[i].Name != w {
			t.Errorf("statuses[%d] = %q, want %q", i, statuses[i].Name, w)
		}
	}
}

func TestDeleteStatus(t *testing.T) {
	db := testDB(t)
	owner := seedUser(t, db, "usr-aaaa0001", "owner@example.com")
	p, err := Create(db, CreateOpts{Name: "Proj", OwnerID: owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	status, err := CreateStatus(db, StatusOpts{ProjectID: p.ID, Name: "Todo"})
	if err != nil {
		t.Fatalf("CreateStatus: %v", err)
	}

	// Tasks keep their reference; the board folds them into the fallback
	// column on the next read.
	if err := db.Create(&models.Task{ID: "tsk-aaaa0001", ProjectID: p.ID, Name: "t", StatusID: &status.ID}).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	if err := DeleteStatus(db, status.ID); err != nil {
		t.Fatalf("DeleteStatus: %v", err)
	}
	if err := DeleteStatus(db, status.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second DeleteStatus = %v, want ErrNotFound", err)
	}

	var task models.Task
	if err := db.First(&task, "id = ?", "tsk-aaaa0001").Error; err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if task.StatusID == nil || *task.StatusID != status.ID {
		t.Errorf("task statusId changed by status delete")
	}
}
