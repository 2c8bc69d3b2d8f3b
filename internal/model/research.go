package model

import "time"

// TaskStatus is the lifecycle state of a research task.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// IsValid checks whether the status is a known value.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskQueued, TaskRunning, TaskCompleted, TaskFailed:
		return true
	}
	return false
}

// ResearchTask is a research run for a location, addressed by its shareable token.
type ResearchTask struct {
	Token        string     `json:"token"`
	LocationName string     `json:"location_name"`
	LocationLat  float64    `json:"location_lat"`
	LocationLng  float64    `json:"location_lng"`
	Status       TaskStatus `json:"status"`
	CreatedBy    string     `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Location returns the task's location.
func (t *ResearchTask) Location() Location {
	return Location{Name: t.LocationName, Lat: t.LocationLat, Lng: t.LocationLng}
}

// TaskFilter narrows ListTasks results.
type TaskFilter struct {
	CreatedBy string
	Status    []TaskStatus
	Since     time.Time // created at or after
	Limit     int
	Offset    int
}
