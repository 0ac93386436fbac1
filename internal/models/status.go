package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// TaskStatus is the closed set of states a task can be in. Any transition
// between them is allowed.
type TaskStatus int

const (
	TaskStatusPending TaskStatus = iota
	TaskStatusInProgress
	TaskStatusDone
)

var taskStatusNames = map[TaskStatus]string{
	TaskStatusPending:    "pending",
	TaskStatusInProgress: "in-progress",
	TaskStatusDone:       "done",
}

// TaskStatuses lists every valid status in display order.
func TaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusDone}
}

// ParseTaskStatus converts the wire form into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	for status, name := range taskStatusNames {
		if name == s {
			return status, nil
		}
	}
	return TaskStatusPending, fmt.Errorf("unknown task status %q", s)
}

func (s TaskStatus) String() string {
	if name, ok := taskStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TaskStatus(%d)", int(s))
}

// Valid reports whether s is one of the declared statuses.
func (s TaskStatus) Valid() bool {
	_, ok := taskStatusNames[s]
	return ok
}

func (s TaskStatus) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid task status %d", int(s))
	}
	return json.Marshal(s.String())
}

func (s *TaskStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("task status must be a string: %w", err)
	}
	parsed, err := ParseTaskStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the status by its wire name.
func (s TaskStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot store invalid task status %d", int(s))
	}
	return s.String(), nil
}

func (s *TaskStatus) Scan(src any) error {
	var name string
	switch v := src.(type) {
	case string:
		name = v
	case []byte:
		name = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TaskStatus", src)
	}
	parsed, err := ParseTaskStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
