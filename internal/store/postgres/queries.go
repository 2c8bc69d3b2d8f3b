package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alfredjeanlab/history/internal/model"
)

const taskColumns = `token, location_name, location_lat, location_lng, status, created_by, created_at`

// executor is satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateTask(ctx context.Context, db executor, t *model.ResearchTask) error {
	if t.Status == "" {
		t.Status = model.TaskQueued
	}
	return db.QueryRowContext(ctx, `
		INSERT INTO research_tasks (
			token, location_name, location_lat, location_lng, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`,
		t.Token,
		t.LocationName,
		t.LocationLat,
		t.LocationLng,
		string(t.Status),
		nullString(t.CreatedBy),
	).Scan(&t.CreatedAt)
}

func queryGetTask(ctx context.Context, db executor, token string) (*model.ResearchTask, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM research_tasks WHERE token = $1`, token)
	return scanTask(row)
}

func queryListTasks(ctx context.Context, db executor, filter model.TaskFilter) ([]*model.ResearchTask, int, error) {
	var (
		whereClauses []string
		args         []any
		argIdx       int
	)

	nextArg := func() string {
		argIdx++
		return fmt.Sprintf("$%d", argIdx)
	}

	if filter.CreatedBy != "" {
		whereClauses = append(whereClauses, "created_by = "+nextArg())
		args = append(args, filter.CreatedBy)
	}

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			placeholders[i] = nextArg()
			args = append(args, string(s))
		}
		whereClauses = append(whereClauses, "status IN ("+strings.Join(placeholders, ", ")+")")
	}

	if !filter.Since.IsZero() {
		whereClauses = append(whereClauses, "created_at >= "+nextArg())
		args = append(args, filter.Since)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	dataQuery := "SELECT COUNT(*) OVER() AS total_count, " + taskColumns +
		" FROM research_tasks" + whereSQL + " ORDER BY created_at DESC, token"

	if filter.Limit > 0 {
		dataQuery += " LIMIT " + nextArg()
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		dataQuery += " OFFSET " + nextArg()
		args = append(args, filter.Offset)
	}

	rows, err := db.QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*model.ResearchTask
	var total int
	for rows.Next() {
		t, n, err := scanTaskWithTotal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan tasks: %w", err)
		}
		total = n
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan tasks: %w", err)
	}
	return tasks, total, nil
}

func queryUpdateTaskStatus(ctx context.Context, db executor, token string, status model.TaskStatus) error {
	res, err := db.ExecContext(ctx, `UPDATE research_tasks SET status = $2 WHERE token = $1`, token, string(status))
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryGetUsage(ctx context.Context, db executor, actor string, windowStart time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT count FROM quota_usage
		WHERE actor = $1 AND window_start = $2`,
		actor, windowStart.UTC(),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get usage: %w", err)
	}
	return count, nil
}

// queryIncrementUsage bumps the actor's counter for the window atomically
// and returns the new count.
func queryIncrementUsage(ctx context.Context, db executor, actor string, windowStart time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		INSERT INTO quota_usage (actor, window_start, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (actor, window_start)
		DO UPDATE SET count = quota_usage.count + 1, updated_at = NOW()
		RETURNING count`,
		actor, windowStart.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment usage: %w", err)
	}
	return count, nil
}
