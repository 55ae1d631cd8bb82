package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/learnloop/learnloop-core/internal/application/command"
	"github.com/learnloop/learnloop-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PAYMENT WEBHOOK
// The signature is an HMAC-SHA256 over the raw request body, hex
// encoded. Verification runs before any parsing: an unsigned or
// mis-signed payload never reaches JSON decoding.
// ══════════════════════════════════════════════════════════════════════════════

type paymentWebhookPayload struct {
	EventID   string `json:"event_id"`
	LearnerID string `json:"learner_id"`
}

type paymentWebhookResponse struct {
	Applied bool `json:"applied"`
}

// handlePaymentWebhook processes a payment provider confirmation.
// POST /webhooks/payments
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	if s.config.PaymentWebhookSecret == "" {
		// Refusing is safer than accepting unverifiable upgrades.
		s.logger.Error("payment webhook received but no secret is configured")
		writeError(w, http.StatusServiceUnavailable, "webhook_not_configured", "Webhook verification is not configured")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "Could not read request body")
		return
	}

	if !s.verifyWebhookSignature(body, r.Header.Get(s.config.PaymentSignatureHeader)) {
		s.logger.Warn("payment webhook signature mismatch",
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeError(w, http.StatusUnauthorized, "invalid_signature", "Webhook signature verification failed")
		return
	}

	var payload paymentWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "Webhook payload is not valid JSON")
		return
	}

	result, err := s.deps.ApplyPayment.Handle(r.Context(), command.ApplyPaymentCommand{
		PaymentEventID: payload.EventID,
		LearnerID:      payload.LearnerID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, paymentWebhookResponse{Applied: result.Applied})
}

// verifyWebhookSignature checks the hex HMAC-SHA256 of the raw body in
// constant time.
func (s *Server) verifyWebhookSignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.config.PaymentWebhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
