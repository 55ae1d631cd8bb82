package eventhandler

import (
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ON TIER UPGRADED HANDLER
// Writes the upgrade audit record. Report redaction reads the tier
// from the learner row on every request, so nothing needs refreshing
// here; the log line ties the upgrade back to the payment event for
// support investigations.
// ══════════════════════════════════════════════════════════════════════════════

// OnTierUpgradedHandler processes learner.tier_upgraded events.
type OnTierUpgradedHandler struct {
	log *logger.Logger
}

// NewOnTierUpgradedHandler creates a new OnTierUpgradedHandler.
func NewOnTierUpgradedHandler(log *logger.Logger) *OnTierUpgradedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnTierUpgradedHandler{
		log: log.With(logger.Component("eventhandler.on_tier_upgraded")),
	}
}

// EventType returns the event type this handler consumes.
func (h *OnTierUpgradedHandler) EventType() shared.EventType {
	return shared.EventTierUpgraded
}

// Handle processes the event.
func (h *OnTierUpgradedHandler) Handle(event shared.Event) error {
	upgrade, ok := event.(shared.TierUpgradedEvent)
	if !ok {
		h.log.Warn("received unexpected event", logger.String("event_type", string(event.EventType())))
		return nil
	}

	h.log.Info("learner upgraded",
		logger.LearnerID(upgrade.LearnerID),
		logger.Tier(upgrade.NewTier),
		logger.Credits(upgrade.CreditsGranted),
		logger.String("payment_event_id", upgrade.PaymentEventID),
	)

	return nil
}
