package kanban

import (
	"errors"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quayside/quayside/internal/apperr"
	"github.com/quayside/quayside/internal/models"
	"github.com/quayside/quayside/internal/project"
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
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// seedProject creates a member user, a project, and the default columns.
func seedProject(t *testing.T, db *gorm.DB) (*models.Project, []models.Status, string) {
	t.Helper()
	u := models.User{ID: "usr-aaaa0001", Email: "member@example.com"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	p, err := project.Create(db, project.CreateOpts{Name: "Website relaunch", OwnerID: u.ID})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	statuses, err := CreateDefaultStatuses(db, p.ID)
	if err != nil {
		t.Fatalf("seed statuses: %v", err)
	}
	return p, statuses, u.ID
}

// seedTask inserts a task directly, bypassing the repository, so tests
// can plant stale or conflicting board state.
func seedTask(t *testing.T, db *gorm.DB, id, projectID string, statusID *string, priority *int) models.Task {
	t.Helper()
	task := models.Task{
		ID:        id,
		ProjectID: projectID,
		Name:      "task " + id,
		StatusID:  statusID,
		Priority:  priority,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task %s: %v", id, err)
	}
	return task
}

// bucketIDs returns the task ids in one stored bucket ordered by priority.
func bucketIDs(t *testing.T, db *gorm.DB, projectID string, statusID *string) []string {
	t.Helper()
	q := db.Model(&models.Task{}).Where("project_id = ?", projectID)
	if statusID == nil {
		q = q.Where("status_id IS NULL")
	} else {
		q = q.Where("status_id = ?", *statusID)
	}
	var ids []string
	if err := q.Order("priority ASC").Pluck("id", &ids).Error; err != nil {
		t.Fatalf("read bucket: %v", err)
	}
	return ids
}

func intp(v int) *int { return &v }

func TestCreateDefaultStatuses(t *testing.T) {
	db := testDB(t)
	u := models.User{ID: "usr-aaaa0002", Email: "owner@example.com"}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	p, err := project.Create(db, project.CreateOpts{Name: "Fresh", OwnerID: u.ID})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	statuses, err := CreateDefaultStatuses(db, p.ID)
	if err != nil {
		t.Fatalf("CreateDefaultStatuses: %v", err)
	}

	want := []struct {
		name  string
		color string
		order int
	}{
		{"Todo", "323232", 1},
		{"In-Progress", "EFA610", 2},
		{"Done", "01796E", 3},
	}
	if len(statuses) != len(want) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(want))
	}
	for i, w := range want {
		s := statuses[i]
		if s.Name != w.name || s.Color != w.color || s.Order != w.order {
			t.Errorf("status[%d] = {%q %q %d}, want {%q %q %d}",
				i, s.Name, s.Color, s.Order, w.name, w.color, w.order)
		}
		if s.ProjectID != p.ID {
			t.Errorf("status[%d] projectID = %q, want %q", i, s.ProjectID, p.ID)
		}
	}
}

func TestGetBoard_ColumnShape(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)

	seedTask(t, db, "tsk-unplaced", p.ID, nil, nil)
	dangling := "sts-gone1"
	seedTask(t, db, "tsk-dangling", p.ID, &dangling, intp(0))
	seedTask(t, db, "tsk-todo", p.ID, &statuses[0].ID, intp(0))
	seedTask(t, db, "tsk-done", p.ID, &statuses[2].ID, intp(0))

	board, err := GetBoard(db, p.ID, userID)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}

	if len(board.Statuses) != 3 {
		t.Fatalf("got %d statuses, want 3", len(board.Statuses))
	}
	if len(board.TaskLists) != 4 {
		t.Fatalf("got %d task lists, want 4 (fallback + 3 columns)", len(board.TaskLists))
	}

	// Nil and dangling references both land in the fallback column.
	if got := len(board.TaskLists[0]); got != 2 {
		t.Errorf("fallback column has %d tasks, want 2", got)
	}
	if got := len(board.TaskLists[1]); got != 1 {
		t.Errorf("Todo column has %d tasks, want 1", got)
	}
	if got := len(board.TaskLists[2]); got != 0 {
		t.Errorf("In-Progress column has %d tasks, want 0", got)
	}
	if got := len(board.TaskLists[3]); got != 1 {
		t.Errorf("Done column has %d tasks, want 1", got)
	}

	// The dangling reference is healed in storage, not just in the view.
	var healed models.Task
	if err := db.First(&healed, "id = ?", "tsk-dangling").Error; err != nil {
		t.Fatalf("reload dangling task: %v", err)
	}
	if healed.StatusID != nil {
		t.Errorf("dangling statusId = %q, want NULL", *healed.StatusID)
	}
}

func TestGetBoard_NormalizesPriorities(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo := statuses[0].ID

	// Duplicates, a gap, and a missing priority in one bucket.
	seedTask(t, db, "tsk-a", p.ID, &todo, intp(5))
	seedTask(t, db, "tsk-b", p.ID, &todo, intp(5))
	seedTask(t, db, "tsk-c", p.ID, &todo, nil)
	seedTask(t, db, "tsk-d", p.ID, &todo, intp(2))

	board, err := GetBoard(db, p.ID, userID)
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}

	// Missing priority sorts first, then stored order, ties kept stable.
	wantOrder := []string{"tsk-c", "tsk-d", "tsk-a", "tsk-b"}
	col := board.TaskLists[1]
	if len(col) != len(wantOrder) {
		t.Fatalf("Todo column has %d tasks, want %d", len(col), len(wantOrder))
	}
	for i, want := range wantOrder {
		if col[i].ID != want {
			t.Errorf("col[%d] = %s, want %s", i, col[i].ID, want)
		}
		if col[i].Priority == nil || *col[i].Priority != i {
			t.Errorf("col[%d] priority = %v, want %d", i, col[i].Priority, i)
		}
	}

	if got := bucketIDs(t, db, p.ID, &todo); len(got) != 4 {
		t.Fatalf("stored bucket has %d tasks, want 4", len(got))
	}
	var stored []models.Task
	if err := db.Where("project_id = ? AND status_id = ?", p.ID, todo).
		Order("priority ASC").Find(&stored).Error; err != nil {
		t.Fatalf("reload bucket: %v", err)
	}
	for i, s := range stored {
		if s.Priority == nil || *s.Priority != i {
			t.Errorf("stored[%d] priority = %v, want %d", i, s.Priority, i)
		}
	}
}

func TestGetBoard_Idempotent(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo := statuses[0].ID

	seedTask(t, db, "tsk-a", p.ID, &todo, intp(7))
	seedTask(t, db, "tsk-b", p.ID, &todo, nil)
	dangling := "sts-gone2"
	seedTask(t, db, "tsk-c", p.ID, &dangling, intp(3))

	first, err := GetBoard(db, p.ID, userID)
	if err != nil {
		t.Fatalf("first GetBoard: %v", err)
	}

	// The second pass over a healed board must not write anything.
	var updates int
	err = db.Callback().Update().After("gorm:update").Register("test_count_updates", func(tx *gorm.DB) {
		updates++
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	second, err := GetBoard(db, p.ID, userID)
	if err != nil {
		t.Fatalf("second GetBoard: %v", err)
	}
	if updates != 0 {
		t.Errorf("second GetBoard issued %d updates, want 0", updates)
	}

	for col := range first.TaskLists {
		if len(first.TaskLists[col]) != len(second.TaskLists[col]) {
			t.Fatalf("column %d changed size between passes", col)
		}
		for i := range first.TaskLists[col] {
			if first.TaskLists[col][i].ID != second.TaskLists[col][i].ID {
				t.Errorf("column %d position %d changed between passes", col, i)
			}
		}
	}
}

func TestGetBoard_NotFound(t *testing.T) {
	db := testDB(t)
	_, _, userID := seedProject(t, db)

	_, err := GetBoard(db, "prj-nope1", userID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetBoard on missing project = %v, want ErrNotFound", err)
	}
}

func TestGetBoard_Forbidden(t *testing.T) {
	db := testDB(t)
	p, _, _ := seedProject(t, db)

	outsider := models.User{ID: "usr-bbbb0001", Email: "outsider@example.com"}
	if err := db.Create(&outsider).Error; err != nil {
		t.Fatalf("create outsider: %v", err)
	}

	_, err := GetBoard(db, p.ID, outsider.ID)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("GetBoard as outsider = %v, want ErrForbidden", err)
	}
}

func TestMove_CrossColumn(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo, progress := statuses[0].ID, statuses[1].ID

	seedTask(t, db, "tsk-a0", p.ID, &todo, intp(0))
	seedTask(t, db, "tsk-a1", p.ID, &todo, intp(1))
	seedTask(t, db, "tsk-a2", p.ID, &todo, intp(2))
	seedTask(t, db, "tsk-b0", p.ID, &progress, intp(0))
	seedTask(t, db, "tsk-b1", p.ID, &progress, intp(1))

	err := Move(db, MoveOpts{TaskID: "tsk-a1", StatusID: &progress, Priority: 1}, userID)
	if err != nil {
		t.Fatalf("Move: %v", err)
	}

	if got, want := bucketIDs(t, db, p.ID, &todo), []string{"tsk-a0", "tsk-a2"}; !equalIDs(got, want) {
		t.Errorf("source bucket = %v, want %v", got, want)
	}
	if got, want := bucketIDs(t, db, p.ID, &progress), []string{"tsk-b0", "tsk-a1", "tsk-b1"}; !equalIDs(got, want) {
		t.Errorf("target bucket = %v, want %v", got, want)
	}
	assertDense(t, db, p.ID, &todo)
	assertDense(t, db, p.ID, &progress)
}

func TestMove_SameColumnDown(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo := statuses[0].ID

	seedTask(t, db, "tsk-a0", p.ID, &todo, intp(0))
	seedTask(t, db, "tsk-a1", p.ID, &todo, intp(1))
	seedTask(t, db, "tsk-a2", p.ID, &todo, intp(2))
	seedTask(t, db, "tsk-a3", p.ID, &todo, intp(3))

	if err := Move(db, MoveOpts{TaskID: "tsk-a0", StatusID: &todo, Priority: 2}, userID); err != nil {
		t.Fatalf("Move: %v", err)
	}

	want := []string{"tsk-a1", "tsk-a2", "tsk-a0", "tsk-a3"}
	if got := bucketIDs(t, db, p.ID, &todo); !equalIDs(got, want) {
		t.Errorf("bucket = %v, want %v", got, want)
	}
	assertDense(t, db, p.ID, &todo)
}

func TestMove_SameColumnUp(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo := statuses[0].ID

	seedTask(t, db, "tsk-a0", p.ID, &todo, intp(0))
	seedTask(t, db, "tsk-a1", p.ID, &todo, intp(1))
	seedTask(t, db, "tsk-a2", p.ID, &todo, intp(2))
	seedTask(t, db, "tsk-a3", p.ID, &todo, intp(3))

	if err := Move(db, MoveOpts{TaskID: "tsk-a3", StatusID: &todo, Priority: 1}, userID); err != nil {
		t.Fatalf("Move: %v", err)
	}

	want := []string{"tsk-a0", "tsk-a3", "tsk-a1", "tsk-a2"}
	if got := bucketIDs(t, db, p.ID, &todo); !equalIDs(got, want) {
		t.Errorf("bucket = %v, want %v", got, want)
	}
	assertDense(t, db, p.ID, &todo)
}

func TestMove_SamePositionNoOp(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo := statuses[0].ID

	seedTask(t, db, "tsk-a0", p.ID, &todo, intp(0))
	seedTask(t, db, "tsk-a1", p.ID, &todo, intp(1))

	var updates int
	err := db.Callback().Update().After("gorm:update").Register("test_count_updates", func(tx *gorm.DB) {
		updates++
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if err := Move(db, MoveOpts{TaskID: "tsk-a1", StatusID: &todo, Priority: 1}, userID); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if updates != 0 {
		t.Errorf("no-op move issued %d updates, want 0", updates)
	}
}

func TestMove_ToFallbackColumn(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo := statuses[0].ID

	seedTask(t, db, "tsk-a0", p.ID, &todo, intp(0))
	seedTask(t, db, "tsk-a1", p.ID, &todo, intp(1))
	seedTask(t, db, "tsk-f0", p.ID, nil, intp(0))

	if err := Move(db, MoveOpts{TaskID: "tsk-a0", StatusID: nil, Priority: 0}, userID); err != nil {
		t.Fatalf("Move: %v", err)
	}

	if got, want := bucketIDs(t, db, p.ID, nil), []string{"tsk-a0", "tsk-f0"}; !equalIDs(got, want) {
		t.Errorf("fallback bucket = %v, want %v", got, want)
	}
	if got, want := bucketIDs(t, db, p.ID, &todo), []string{"tsk-a1"}; !equalIDs(got, want) {
		t.Errorf("source bucket = %v, want %v", got, want)
	}
	assertDense(t, db, p.ID, nil)
	assertDense(t, db, p.ID, &todo)
}

func TestMove_Forbidden(t *testing.T) {
	db := testDB(t)
	p, statuses, _ := seedProject(t, db)
	todo, progress := statuses[0].ID, statuses[1].ID

	seedTask(t, db, "tsk-a0", p.ID, &todo, intp(0))

	outsider := models.User{ID: "usr-cccc0001", Email: "sneaky@example.com"}
	if err := db.Create(&outsider).Error; err != nil {
		t.Fatalf("create outsider: %v", err)
	}

	err := Move(db, MoveOpts{TaskID: "tsk-a0", StatusID: &progress, Priority: 0}, outsider.ID)
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("Move as outsider = %v, want ErrForbidden", err)
	}

	var unchanged models.Task
	if err := db.First(&unchanged, "id = ?", "tsk-a0").Error; err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if unchanged.StatusID == nil || *unchanged.StatusID != todo {
		t.Errorf("task moved despite forbidden caller")
	}
}

func TestMove_Validation(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo := statuses[0].ID
	seedTask(t, db, "tsk-a0", p.ID, &todo, intp(0))

	tests := []struct {
		name      string
		opts      MoveOpts
		wantField string
	}{
		{"empty id", MoveOpts{TaskID: "", StatusID: &todo, Priority: 0}, "id"},
		{"negative priority", MoveOpts{TaskID: "tsk-a0", StatusID: &todo, Priority: -1}, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Move(db, tt.opts, userID)
			ve, ok := apperr.AsValidation(err)
			if !ok {
				t.Fatalf("Move = %v, want validation error", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("validation field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestMove_MissingTask(t *testing.T) {
	db := testDB(t)
	_, statuses, userID := seedProject(t, db)

	err := Move(db, MoveOpts{TaskID: "tsk-nope", StatusID: &statuses[0].ID, Priority: 0}, userID)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Move on missing task = %v, want ErrNotFound", err)
	}
}

func TestMove_ConcurrentMovesStayDense(t *testing.T) {
	db := testDB(t)
	p, statuses, userID := seedProject(t, db)
	todo := statuses[0].ID
	progress := statuses[1].ID

	seedTask(t, db, "tsk-a0", p.ID, &todo, intp(0))
	seedTask(t, db, "tsk-a1", p.ID, &todo, intp(1))
	seedTask(t, db, "tsk-a2", p.ID, &todo, intp(2))
	seedTask(t, db, "tsk-b0", p.ID, &progress, intp(0))

	// Hold the project lock so the concurrent move takes its pre-lock
	// snapshot and then parks before its transaction.
	unlock := lockProject(p.ID)

	done := make(chan error, 1)
	go func() {
		done <- Move(db, MoveOpts{TaskID: "tsk-a2", StatusID: &progress, Priority: 0}, userID)
	}()

	// Reorder the todo column underneath the parked move, as a competing
	// same-column move would: a1=0, a2=1, a0=2.
	time.Sleep(20 * time.Millisecond)
	for id, pr := range map[string]int{"tsk-a1": 0, "tsk-a2": 1, "tsk-a0": 2} {
		if err := db.Model(&models.Task{}).Where("id = ?", id).
			UpdateColumn("priority", pr).Error; err != nil {
			t.Fatalf("reorder %s: %v", id, err)
		}
	}
	unlock()

	if err := <-done; err != nil {
		t.Fatalf("concurrent move: %v", err)
	}

	if got, want := bucketIDs(t, db, p.ID, &todo), []string{"tsk-a1", "tsk-a0"}; !equalIDs(got, want) {
		t.Errorf("todo bucket = %v, want %v", got, want)
	}
	if got, want := bucketIDs(t, db, p.ID, &progress), []string{"tsk-a2", "tsk-b0"}; !equalIDs(got, want) {
		t.Errorf("progress bucket = %v, want %v", got, want)
	}
	assertDense(t, db, p.ID, &todo)
	assertDense(t, db, p.ID, &progress)
}

func TestNormalizeAll(t *testing.T) {
	db := testDB(t)
	p, statuses, _ := seedProject(t, db)
	todo := statuses[0].ID

	seedTask(t, db, "tsk-a", p.ID, &todo, intp(9))
	seedTask(t, db, "tsk-b", p.ID, &todo, intp(9))

	if err := NormalizeAll(db); err != nil {
		t.Fatalf("NormalizeAll: %v", err)
	}
	assertDense(t, db, p.ID, &todo)
}

// assertDense reloads a bucket and fails unless its priorities read
// exactly 0..n-1.
func assertDense(t *testing.T, db *gorm.DB, projectID string, statusID *string) {
	t.Helper()
	q := db.Where("project_id = ?", projectID)
	if statusID == nil {
		q = q.Where("status_id IS NULL")
	} else {
		q = q.Where("status_id = ?", *statusID)
	}
	var tasks []models.Task
	if err := q.Order("priority ASC").Find(&tasks).Error; err != nil {
		t.Fatalf("load bucket: %v", err)
	}
	for i, task := range tasks {
		if task.Priority == nil || *task.Priority != i {
			t.Errorf("bucket position %d has priority %v, want %d", i, task.Priority, i)
		}
	}
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
