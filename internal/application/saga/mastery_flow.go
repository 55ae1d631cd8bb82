// Package saga contains multi-step business processes that orchestrate
// commands in reaction to domain events.
package saga

import (
	"context"
	"sync"
	"time"

	"github.com/learnloop/learnloop-core/internal/application/command"
	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MASTERY FLOW SAGA
// Flow: quiz scored → outcome check → cooldown check → regenerate the
// learner's report.
//
// A passed quiz is the strongest signal that the learner's profile has
// moved, so it refreshes the report. The cooldown keeps a fast run of
// passes from hammering the engine; the learner can always regenerate
// on demand through the reports endpoint.
// ══════════════════════════════════════════════════════════════════════════════

// ReportTrigger runs report generation. Satisfied by the trigger-report
// command handler.
type ReportTrigger interface {
	Handle(ctx context.Context, cmd command.TriggerReportCommand) (*command.TriggerReportResult, error)
}

// MasteryFlowConfig configures the saga.
type MasteryFlowConfig struct {
	// Cooldown is the minimum interval between automatic regenerations
	// for one learner.
	Cooldown time.Duration

	// TriggerTimeout bounds one report generation run.
	TriggerTimeout time.Duration
}

// DefaultMasteryFlowConfig returns the default configuration.
func DefaultMasteryFlowConfig() MasteryFlowConfig {
	return MasteryFlowConfig{
		Cooldown:       time.Hour,
		TriggerTimeout: 30 * time.Second,
	}
}

// MasteryFlowSaga regenerates learner reports after passed quizzes.
type MasteryFlowSaga struct {
	trigger ReportTrigger
	log     *logger.Logger
	config  MasteryFlowConfig

	mu            sync.Mutex
	lastTriggered map[string]time.Time

	triggered int64
	skipped   int64
}

// NewMasteryFlowSaga creates a new MasteryFlowSaga.
func NewMasteryFlowSaga(trigger ReportTrigger, log *logger.Logger, config MasteryFlowConfig) *MasteryFlowSaga {
	if log == nil {
		log = logger.Default()
	}
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultMasteryFlowConfig().Cooldown
	}
	if config.TriggerTimeout <= 0 {
		config.TriggerTimeout = DefaultMasteryFlowConfig().TriggerTimeout
	}

	return &MasteryFlowSaga{
		trigger:       trigger,
		log:           log.With(logger.Component("saga.mastery_flow")),
		config:        config,
		lastTriggered: make(map[string]time.Time),
	}
}

// EventType returns the event type this saga consumes.
func (s *MasteryFlowSaga) EventType() shared.EventType {
	return shared.EventQuizScored
}

// Handle processes a quiz.scored event.
// Failures are logged, never propagated: report regeneration is a
// best-effort reaction, and the scoring that triggered it is already
// committed.
func (s *MasteryFlowSaga) Handle(event shared.Event) error {
	scored, ok := event.(shared.QuizScoredEvent)
	if !ok {
		return nil
	}
	if scored.Outcome != quiz.OutcomePassed.String() {
		return nil
	}

	if !s.claimSlot(scored.LearnerID) {
		s.mu.Lock()
		s.skipped++
		s.mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.TriggerTimeout)
	defer cancel()

	if _, err := s.trigger.Handle(ctx, command.TriggerReportCommand{LearnerID: scored.LearnerID}); err != nil {
		s.log.Warn("report regeneration failed",
			logger.LearnerID(scored.LearnerID),
			logger.AttemptID(scored.AttemptID),
			logger.Err(err),
		)
		// Release the slot so the next pass retries sooner.
		s.releaseSlot(scored.LearnerID)
		return nil
	}

	s.mu.Lock()
	s.triggered++
	s.mu.Unlock()

	s.log.Info("report regenerated after passed quiz",
		logger.LearnerID(scored.LearnerID),
		logger.AttemptID(scored.AttemptID),
	)

	return nil
}

// claimSlot reserves the learner's cooldown slot. Reserving before
// triggering keeps two concurrent passes from both regenerating.
func (s *MasteryFlowSaga) claimSlot(learnerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if last, ok := s.lastTriggered[learnerID]; ok && now.Sub(last) < s.config.Cooldown {
		return false
	}
	s.lastTriggered[learnerID] = now
	return true
}

func (s *MasteryFlowSaga) releaseSlot(learnerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastTriggered, learnerID)
}

// Stats reports how many regenerations ran and how many were absorbed
// by the cooldown.
func (s *MasteryFlowSaga) Stats() (triggered, skipped int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.triggered, s.skipped
}
