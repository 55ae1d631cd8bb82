package eventhandler

import (
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON LEARNER REGISTERED HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// OnLearnerRegisteredHandler processes learner.registered events.
type OnLearnerRegisteredHandler struct {
	log *logger.Logger
}

// NewOnLearnerRegisteredHandler creates a new OnLearnerRegisteredHandler.
func NewOnLearnerRegisteredHandler(log *logger.Logger) *OnLearnerRegisteredHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnLearnerRegisteredHandler{
		log: log.With(logger.Component("eventhandler.on_learner_registered")),
	}
}

// EventType returns the event type this handler consumes.
func (h *OnLearnerRegisteredHandler) EventType() shared.EventType {
	return shared.EventLearnerRegistered
}

// Handle processes the event. The email is deliberately left out of
// the log line.
func (h *OnLearnerRegisteredHandler) Handle(event shared.Event) error {
	reg, ok := event.(shared.LearnerRegisteredEvent)
	if !ok {
		h.log.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	h.log.Info("learner registered",
		logger.LearnerID(reg.AggregateID()),
		logger.Tier(reg.Tier),
	)

	return nil
}
