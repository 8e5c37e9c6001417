package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

var now = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func tasks(done, open int) []*hierarchy.Task {
	var out []*hierarchy.Task
	for i := 0; i < done; i++ {
		out = append(out, &hierarchy.Task{Status: hierarchy.TaskStatusDone})
	}
	for i := 0; i < open; i++ {
		out = append(out, &hierarchy.Task{Status: hierarchy.TaskStatusInProgress})
	}
	return out
}

func TestRating(t *testing.T) {
	p := DefaultPolicy()
	cases := []struct {
		completed, total int
		want             float64
	}{
		{1, 4, 2.5},
		{1, 3, 3.3},
		{2, 3, 6.7},
		{3, 3, 10},
		{0, 7, 0},
		{1, 8, 1.3},
	}
	for _, tc := range cases {
		got, err := p.Rating(tc.completed, tc.total)
		require.NoError(t, err)
		assert.InDelta(t, tc.want, got, 1e-9, "%d/%d", tc.completed, tc.total)
	}

	_, err := p.Rating(0, 0)
	require.ErrorIs(t, err, ErrNoTasks)
	assert.True(t, serrors.Is(err, serrors.KindInvalidState))

	_, err = p.Rating(5, 4)
	assert.Error(t, err)
}

func TestComputeFirstCompletionScenario(t *testing.T) {
	res := DefaultPolicy().Compute(tasks(1, 3), now)
	require.NotNil(t, res.Rating)
	assert.InDelta(t, 2.5, *res.Rating, 1e-9)
	assert.Equal(t, 1, res.Completed)
	assert.Equal(t, 3, res.Pending)
	assert.True(t, res.IsAvailable)
}

func TestComputeCapacity(t *testing.T) {
	p := DefaultPolicy()
	assert.True(t, p.Compute(tasks(0, 4), now).IsAvailable)
	assert.False(t, p.Compute(tasks(0, 5), now).IsAvailable)

	p.CapacityThreshold = 8
	assert.True(t, p.Compute(tasks(0, 7), now).IsAvailable)
}

func TestComputeOverdue(t *testing.T) {
	ts := []*hierarchy.Task{
		{Status: hierarchy.TaskStatusTodo, Deadline: now.Add(-time.Minute)},
		{Status: hierarchy.TaskStatusDone, Deadline: now.Add(-time.Hour)},
		{Status: hierarchy.TaskStatusInProgress, Deadline: now.Add(time.Hour)},
		{Status: hierarchy.TaskStatusTodo},
	}
	res := DefaultPolicy().Compute(ts, now)
	assert.Equal(t, 1, res.Overdue)
	assert.Equal(t, 3, res.Pending)
}

func TestComputeWithoutTasksKeepsRating(t *testing.T) {
	res := DefaultPolicy().Compute(nil, now)
	assert.Nil(t, res.Rating)

	prev := 7.5
	u := &hierarchy.User{Performance: hierarchy.Performance{Rating: &prev, ActiveProjects: 2}}
	Apply(u, res, now)
	require.NotNil(t, u.Performance.Rating)
	assert.Equal(t, 7.5, *u.Performance.Rating)
	assert.Equal(t, 2, u.Performance.ActiveProjects)
	require.NotNil(t, u.Performance.LastActiveAt)
	assert.True(t, u.IsAvailable)

	fresh := &hierarchy.User{}
	Apply(fresh, res, now)
	assert.Nil(t, fresh.Performance.Rating)
}

func TestApply(t *testing.T) {
	u := &hierarchy.User{IsAvailable: true, Performance: hierarchy.Performance{ActiveProjects: 3}}
	res := DefaultPolicy().Compute(tasks(2, 6), now)
	Apply(u, res, now)

	require.NotNil(t, u.Performance.Rating)
	assert.InDelta(t, 2.5, *u.Performance.Rating, 1e-9)
	assert.Equal(t, 2, u.Performance.CompletedTasks)
	assert.Equal(t, 6, u.Performance.PendingTasks)
	assert.Equal(t, 3, u.Performance.ActiveProjects)
	assert.False(t, u.IsAvailable)
	assert.Equal(t, now, *u.Performance.LastActiveAt)
}
