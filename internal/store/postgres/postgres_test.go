package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/alfredjeanlab/history/internal/model"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

var taskRowColumns = []string{
	"token", "location_name", "location_lat", "location_lng", "status", "created_by", "created_at",
}

var taskWithTotalColumns = append([]string{"total_count"}, taskRowColumns...)

func TestCreateTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO research_tasks").
		WithArgs("rs-abc", "Petra, Jordan", 30.3285, 35.4444, "queued", sql.NullString{String: "alice", Valid: true}).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	task := &model.ResearchTask{
		Token:        "rs-abc",
		LocationName: "Petra, Jordan",
		LocationLat:  30.3285,
		LocationLng:  35.4444,
		CreatedBy:    "alice",
	}
	if err := NewWithDB(db).CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Status != model.TaskQueued {
		t.Errorf("status = %q, want queued", task.Status)
	}
	if !task.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", task.CreatedAt, now)
	}
}

func TestCreateTask_AnonymousCreatorIsNull(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("INSERT INTO research_tasks").
		WithArgs("rs-x", "Giza", 0.0, 0.0, "running", sql.NullString{}).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	task := &model.ResearchTask{Token: "rs-x", LocationName: "Giza", Status: model.TaskRunning}
	if err := NewWithDB(db).CreateTask(context.Background(), task); err != nil {
		t.Fatal(err)
	}
}

func TestGetTask(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM research_tasks WHERE token = \\$1").WithArgs("rs-abc").
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow("rs-abc", "Kyoto, Japan", 35.0116, 135.7681, "completed", nil, now))

	task, err := NewWithDB(db).GetTask(context.Background(), "rs-abc")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.LocationName != "Kyoto, Japan" || task.Status != model.TaskCompleted || task.CreatedBy != "" {
		t.Errorf("task = %+v", task)
	}
	if loc := task.Location(); loc.Lat != 35.0116 || loc.Lng != 135.7681 {
		t.Errorf("location = %+v", loc)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT .+ FROM research_tasks").WithArgs("rs-none").
		WillReturnError(sql.ErrNoRows)

	_, err := NewWithDB(db).GetTask(context.Background(), "rs-none")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestListTasks(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := since.Add(time.Hour)

	for _, tc := range []struct {
		name   string
		filter model.TaskFilter
		query  string
		args   []driver.Value
	}{
		{
			name:  "no filter",
			query: `SELECT COUNT\(\*\) OVER\(\) AS total_count, .+ FROM research_tasks ORDER BY created_at DESC, token$`,
		},
		{
			name:   "creator and paging",
			filter: model.TaskFilter{CreatedBy: "alice", Limit: 10, Offset: 20},
			query:  `FROM research_tasks WHERE created_by = \$1 ORDER BY created_at DESC, token LIMIT \$2 OFFSET \$3`,
			args:   []driver.Value{"alice", 10, 20},
		},
		{
			name:   "status and since",
			filter: model.TaskFilter{Status: []model.TaskStatus{model.TaskQueued, model.TaskRunning}, Since: since},
			query:  `WHERE status IN \(\$1, \$2\) AND created_at >= \$3 ORDER BY`,
			args:   []driver.Value{"queued", "running", since},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			exp := mock.ExpectQuery(tc.query)
			if len(tc.args) > 0 {
				exp = exp.WithArgs(tc.args...)
			}
			exp.WillReturnRows(sqlmock.NewRows(taskWithTotalColumns).
				AddRow(2, "rs-1", "Rome", 41.9, 12.5, "queued", "alice", now).
				AddRow(2, "rs-2", "Cairo", 30.0, 31.2, "running", nil, now))

			tasks, total, err := NewWithDB(db).ListTasks(context.Background(), tc.filter)
			if err != nil {
				t.Fatalf("ListTasks: %v", err)
			}
			if total != 2 || len(tasks) != 2 {
				t.Fatalf("total = %d, len = %d", total, len(tasks))
			}
			if tasks[0].CreatedBy != "alice" || tasks[1].Status != model.TaskRunning {
				t.Errorf("tasks = %+v %+v", tasks[0], tasks[1])
			}
		})
	}
}

func TestListTasks_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("FROM research_tasks").WillReturnError(errors.New("boom"))

	if _, _, err := NewWithDB(db).ListTasks(context.Background(), model.TaskFilter{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("UPDATE research_tasks SET status").WithArgs("rs-1", "completed").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE research_tasks SET status").WithArgs("rs-missing", "failed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s := NewWithDB(db)
	if err := s.UpdateTaskStatus(context.Background(), "rs-1", model.TaskCompleted); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if err := s.UpdateTaskStatus(context.Background(), "rs-missing", model.TaskFailed); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestGetUsage(t *testing.T) {
	window := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("existing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT count FROM quota_usage").WithArgs("alice", window).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
		n, err := NewWithDB(db).GetUsage(context.Background(), "alice", window)
		if err != nil || n != 3 {
			t.Fatalf("GetUsage = %d, %v; want 3", n, err)
		}
	})

	t.Run("no row is zero", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT count FROM quota_usage").WithArgs("bob", window).
			WillReturnError(sql.ErrNoRows)
		n, err := NewWithDB(db).GetUsage(context.Background(), "bob", window)
		if err != nil || n != 0 {
			t.Fatalf("GetUsage = %d, %v; want 0", n, err)
		}
	})

	t.Run("error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT count FROM quota_usage").WillReturnError(errors.New("conn reset"))
		if _, err := NewWithDB(db).GetUsage(context.Background(), "bob", window); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestIncrementUsage(t *testing.T) {
	db, mock := newMockDB(t)
	window := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO quota_usage .+ ON CONFLICT").WithArgs("alice", window).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := NewWithDB(db).IncrementUsage(context.Background(), "alice", window)
	if err != nil {
		t.Fatalf("IncrementUsage: %v", err)
	}
	if n != 4 {
		t.Errorf("count = %d, want 4", n)
	}
}

func TestNullString(t *testing.T) {
	if nullString("").Valid {
		t.Error(`nullString("") should be invalid`)
	}
	if ns := nullString("hello"); !ns.Valid || ns.String != "hello" {
		t.Errorf(`nullString("hello") = %v`, ns)
	}
}
