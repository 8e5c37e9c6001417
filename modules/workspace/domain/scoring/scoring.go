package scoring

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/hierarchy"
	"github.com/jacksonlee411/taskgrid/pkg/serrors"
)

const (
	DefaultCapacityThreshold = 5
	DefaultScale             = 10
	DefaultPrecision         = 1
)

// Policy holds the constants of the rating formula.
type Policy struct {
	// CapacityThreshold is the pending task count at which a user stops being available.
	CapacityThreshold int
	Scale             int32
	Precision         int32
}

func DefaultPolicy() Policy {
	return Policy{
		CapacityThreshold: DefaultCapacityThreshold,
		Scale:             DefaultScale,
		Precision:         DefaultPrecision,
	}
}

var ErrNoTasks = serrors.InvalidState("SCORING_NO_TASKS", "cannot rate a user without tasks")

// Rating returns completed/total scaled and rounded half away from zero.
func (p Policy) Rating(completed, total int) (float64, error) {
	if total <= 0 {
		return 0, ErrNoTasks
	}
	if completed < 0 || completed > total {
		return 0, serrors.InvalidState("SCORING_COUNTS", "completed tasks out of range")
	}
	r := decimal.NewFromInt(int64(completed)).
		Div(decimal.NewFromInt(int64(total))).
		Mul(decimal.NewFromInt32(p.Scale)).
		Round(p.Precision)
	f, _ := r.Float64()
	return f, nil
}

// Result is the recomputed performance of a user.
type Result struct {
	// Rating is nil when there were no tasks to rate, meaning the stored rating is kept.
	Rating      *float64
	Total       int
	Completed   int
	Pending     int
	Overdue     int
	IsAvailable bool
}

// Compute derives performance from the full task set of one assignee.
func (p Policy) Compute(tasks []*hierarchy.Task, now time.Time) Result {
	res := Result{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == hierarchy.TaskStatusDone {
			res.Completed++
			continue
		}
		if t.Overdue(now) {
			res.Overdue++
		}
	}
	res.Pending = res.Total - res.Completed
	if rating, err := p.Rating(res.Completed, res.Total); err == nil {
		res.Rating = &rating
	}
	res.IsAvailable = res.Pending < p.CapacityThreshold
	return res
}

// Apply writes res onto u. ActiveProjects is left unchanged.
func Apply(u *hierarchy.User, res Result, now time.Time) {
	if res.Rating != nil {
		r := *res.Rating
		u.Performance.Rating = &r
	}
	u.Performance.CompletedTasks = res.Completed
	u.Performance.PendingTasks = res.Pending
	u.Performance.OverdueTasks = res.Overdue
	at := now
	u.Performance.LastActiveAt = &at
	u.IsAvailable = res.IsAvailable
}
