package postgres

import (
	"database/sql"

	"github.com/alfredjeanlab/history/internal/model"
)

// scannable is satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanTask scans a row in taskColumns order.
func scanTask(row scannable) (*model.ResearchTask, error) {
	var t model.ResearchTask
	var createdBy sql.NullString
	err := row.Scan(
		&t.Token,
		&t.LocationName,
		&t.LocationLat,
		&t.LocationLng,
		&t.Status,
		&createdBy,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.CreatedBy = createdBy.String
	return &t, nil
}

// scanTaskWithTotal scans a row with a leading COUNT(*) OVER() column.
func scanTaskWithTotal(row scannable) (*model.ResearchTask, int, error) {
	var t model.ResearchTask
	var total int
	var createdBy sql.NullString
	err := row.Scan(
		&total,
		&t.Token,
		&t.LocationName,
		&t.LocationLat,
		&t.LocationLng,
		&t.Status,
		&createdBy,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, 0, err
	}
	t.CreatedBy = createdBy.String
	return &t, total, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
