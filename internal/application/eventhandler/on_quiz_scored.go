// Package eventhandler contains subscribers for domain events.
package eventhandler

import (
	"sync/atomic"

	"github.com/learnloop/learnloop-core/internal/domain/quiz"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON QUIZ SCORED HANDLER
// Observes scoring outcomes: structured audit log plus running
// pass/fail counters for the health endpoint.
// ══════════════════════════════════════════════════════════════════════════════

// OnQuizScoredHandler processes quiz.scored events.
type OnQuizScoredHandler struct {
	log *logger.Logger

	passed atomic.Int64
	failed atomic.Int64
}

// NewOnQuizScoredHandler creates a new OnQuizScoredHandler.
func NewOnQuizScoredHandler(log *logger.Logger) *OnQuizScoredHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnQuizScoredHandler{
		log: log.With(logger.Component("eventhandler.on_quiz_scored")),
	}
}

// EventType returns the event type this handler consumes.
func (h *OnQuizScoredHandler) EventType() shared.EventType {
	return shared.EventQuizScored
}

// Handle processes the event.
func (h *OnQuizScoredHandler) Handle(event shared.Event) error {
	scored, ok := event.(shared.QuizScoredEvent)
	if !ok {
		h.log.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	if scored.Outcome == quiz.OutcomePassed.String() {
		h.passed.Add(1)
	} else {
		h.failed.Add(1)
	}

	h.log.Info("quiz attempt scored",
		logger.AttemptID(scored.AttemptID),
		logger.LearnerID(scored.LearnerID),
		logger.Score(scored.Score),
		logger.String("outcome", scored.Outcome),
	)

	return nil
}

// Stats returns the running outcome counters.
func (h *OnQuizScoredHandler) Stats() (passed, failed int64) {
	return h.passed.Load(), h.failed.Load()
}
