package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/internal/http/response"
	"github.com/lakayhq/lakay-bookings/internal/payments"
	stripeadapter "github.com/lakayhq/lakay-bookings/internal/payments/providers/stripe"
	"github.com/lakayhq/lakay-bookings/pkg/events"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
)

const maxWebhookBody = 1 << 20 // 1 MiB

type WebhooksHandler struct {
	registry     payments.Registry
	reconciler   *payments.Reconciler
	bus          events.Publisher
	stripeSecret string
}

func NewWebhooksHandler(registry payments.Registry, reconciler *payments.Reconciler, bus events.Publisher, stripeSecret string) *WebhooksHandler {
	return &WebhooksHandler{
		registry:     registry,
		reconciler:   reconciler,
		bus:          bus,
		stripeSecret: stripeSecret,
	}
}

func (h *WebhooksHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{provider}", h.receive)
	return r
}

// receive ingests one provider notification. Status codes follow what
// makes providers behave: 200 for everything handled, including payloads
// we log and drop (retrying a payload that can never parse cannot help),
// 400 only for a failed signature check, 500 only when persistence
// failed and a retry can.
func (h *WebhooksHandler) receive(w http.ResponseWriter, r *http.Request) {
	provider, ok := domain.ParsePaymentProvider(chi.URLParam(r, "provider"))
	if !ok {
		response.NotFound(w, "unknown provider")
		return
	}
	adapter, ok := h.registry[provider]
	if !ok {
		response.NotFound(w, "unknown provider")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "cannot read body")
		return
	}

	if provider == domain.ProviderStripe {
		if err := stripeadapter.VerifySignature(body, r.Header.Get("Stripe-Signature"), h.stripeSecret); err != nil {
			logger.WarnContext(r.Context(), "stripe signature rejected", "error", err)
			response.BadRequest(w, "invalid signature")
			return
		}
	}

	ev, err := adapter.Normalize(body)
	if err != nil {
		// Acknowledged either way: event kinds we do not consume must
		// stop retrying, and a malformed payload stays malformed on
		// every retry.
		if !errors.Is(err, payments.ErrUnhandled) {
			logger.WarnContext(r.Context(), "malformed webhook payload dropped", "provider", provider, "error", err)
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := h.reconciler.Apply(r.Context(), ev); err != nil {
		// Park the raw payload for replay, then let the provider retry
		// too; the idempotency ledger makes double delivery harmless.
		h.queueReplay(r, provider, body)
		logger.ErrorContext(r.Context(), "webhook apply failed", "provider", provider, "error", err)
		response.InternalError(w, "event not applied")
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *WebhooksHandler) queueReplay(r *http.Request, provider domain.PaymentProvider, body []byte) {
	if h.bus == nil {
		return
	}
	err := h.bus.Publish(r.Context(), events.WebhookReplay, events.WebhookReplayEvent{
		Provider:   string(provider),
		RawPayload: body,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to queue webhook replay", "provider", provider, "error", err)
	}
}
