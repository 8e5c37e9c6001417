package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/events"
	"github.com/jacksonlee411/taskgrid/modules/workspace/domain/scoring"
	"github.com/jacksonlee411/taskgrid/pkg/eventbus"
)

const defaultScoringTimeout = 10 * time.Second

var (
	scoringRecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workspace",
		Subsystem: "scoring",
		Name:      "recompute_total",
		Help:      "Total number of performance recomputations broken down by result.",
	}, []string{"result"})

	scoringRecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "workspace",
		Subsystem: "scoring",
		Name:      "recompute_duration_seconds",
		Help:      "Duration of performance recomputations.",
		Buckets:   prometheus.DefBuckets,
	})
)

// PerformanceService keeps the derived performance fields of users in step with their tasks.
// Failures never reach callers; they are logged and counted.
type PerformanceService struct {
	repos     Repositories
	publisher eventbus.EventBus
	policy    scoring.Policy
	timeout   time.Duration
	logger    *logrus.Entry
	now       clock
	wg        sync.WaitGroup
}

func NewPerformanceService(repos Repositories, publisher eventbus.EventBus, policy scoring.Policy, timeout time.Duration, logger *logrus.Logger) *PerformanceService {
	if timeout <= 0 {
		timeout = defaultScoringTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PerformanceService{
		repos:     repos,
		publisher: publisher,
		policy:    policy,
		timeout:   timeout,
		logger:    logger.WithField("component", "scoring"),
	}
}

// RecomputeScore recomputes and stores the performance of userID from its full task set.
func (s *PerformanceService) RecomputeScore(ctx context.Context, organizationID, userID uuid.UUID) {
	started := time.Now()
	defer func() { scoringRecomputeDuration.Observe(time.Since(started).Seconds()) }()

	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "org_id": organizationID})
	if err := s.recompute(ctx, organizationID, userID); err != nil {
		scoringRecomputeTotal.WithLabelValues("error").Inc()
		log.WithError(err).Error("scoring: recompute failed")
		return
	}
	scoringRecomputeTotal.WithLabelValues("ok").Inc()
	log.Debug("scoring: recomputed")
}

func (s *PerformanceService) recompute(ctx context.Context, organizationID, userID uuid.UUID) error {
	u, err := s.repos.Users.GetByID(ctx, organizationID, userID)
	if err != nil {
		return err
	}
	tasks, err := s.repos.Tasks.ListByAssignee(ctx, organizationID, userID)
	if err != nil {
		return err
	}
	now := s.now.now()
	scoring.Apply(u, s.policy.Compute(tasks, now), now)
	if err := s.repos.Users.UpdatePerformance(ctx, u); err != nil {
		return err
	}
	s.publisher.Publish(events.NewUserPerformanceUpdated(u, now))
	return nil
}

// RecomputeAsync runs RecomputeScore in the background. The work outlives ctx's
// cancellation and is bounded by the service timeout.
func (s *PerformanceService) RecomputeAsync(ctx context.Context, organizationID, userID uuid.UUID) {
	base := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runCtx, cancel := context.WithTimeout(base, s.timeout)
		defer cancel()
		s.RecomputeScore(runCtx, organizationID, userID)
	}()
}

// Wait blocks until every background recomputation has finished.
func (s *PerformanceService) Wait() {
	s.wg.Wait()
}
