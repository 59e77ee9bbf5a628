package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskToDo, TaskInProgress, true},
		{TaskToDo, TaskCompleted, true},
		{TaskInProgress, TaskCompleted, true},
		{TaskInProgress, TaskInProgress, true},
		{TaskCompleted, TaskInProgress, false},
		{TaskInProgress, TaskToDo, false},
		{TaskToDo, TaskStatus("Blocked"), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestParseTaskStatus(t *testing.T) {
	st, err := ParseTaskStatus("In Progress")
	assert.NoError(t, err)
	assert.Equal(t, TaskInProgress, st)

	_, err = ParseTaskStatus("done")
	assert.Error(t, err)
}
