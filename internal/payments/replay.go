package payments

import (
	"context"
	"encoding/json"

	"github.com/lakayhq/lakay-bookings/internal/domain"
	"github.com/lakayhq/lakay-bookings/pkg/events"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
)

const replayQueue = "webhook-replay"

// ReplayConsumer re-applies webhook payloads that failed to persist on
// first delivery. The idempotency ledger makes replays of
// already-applied events harmless.
type ReplayConsumer struct {
	bus        events.Subscriber
	registry   Registry
	reconciler *Reconciler
}

func NewReplayConsumer(bus events.Subscriber, registry Registry, reconciler *Reconciler) *ReplayConsumer {
	return &ReplayConsumer{bus: bus, registry: registry, reconciler: reconciler}
}

func (c *ReplayConsumer) Start() error {
	return c.bus.QueueSubscribe(events.WebhookReplay, replayQueue, c.handle)
}

func (c *ReplayConsumer) handle(msg *events.Message) {
	ctx := context.Background()

	var replay events.WebhookReplayEvent
	if err := json.Unmarshal(msg.Data, &replay); err != nil {
		logger.Error("replay: malformed message dropped", "error", err)
		return
	}

	provider, ok := domain.ParsePaymentProvider(replay.Provider)
	if !ok {
		logger.Error("replay: unknown provider dropped", "provider", replay.Provider)
		return
	}
	adapter, ok := c.registry[provider]
	if !ok {
		logger.Error("replay: no adapter for provider", "provider", replay.Provider)
		return
	}

	ev, err := adapter.Normalize(replay.RawPayload)
	if err != nil {
		logger.Error("replay: payload no longer parses", "provider", provider, "error", err)
		return
	}

	if err := c.reconciler.Apply(ctx, ev); err != nil {
		// Still failing; leave it to the provider's own retry schedule.
		logger.Error("replay: apply failed", "provider", provider, "error", err)
	}
}
