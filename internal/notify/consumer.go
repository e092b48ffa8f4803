// Package notify delivers guest-facing email from bus messages so the
// booking path never waits on a mail provider.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lakayhq/lakay-bookings/pkg/events"
	"github.com/lakayhq/lakay-bookings/pkg/logger"
)

// queue ensures one worker instance handles each message.
const queue = "notify-workers"

type Consumer struct {
	bus    events.Subscriber
	mailer Mailer
}

func NewConsumer(bus events.Subscriber, mailer Mailer) *Consumer {
	return &Consumer{bus: bus, mailer: mailer}
}

func (c *Consumer) Start() error {
	return c.bus.QueueSubscribe(events.NotifySend, queue, c.handle)
}

func (c *Consumer) handle(msg *events.Message) {
	ctx := context.Background()

	var n events.NotificationEvent
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		logger.Error("notify: malformed message dropped", "error", err)
		return
	}
	if n.Recipient == "" {
		logger.Warn("notify: message without recipient dropped", "type", n.Type)
		return
	}

	subject, text := render(n)
	if err := c.mailer.Send(ctx, n.Recipient, subject, text, ""); err != nil {
		logger.Error("notify: send failed", "type", n.Type, "recipient", n.Recipient, "error", err)
	}
}

func render(n events.NotificationEvent) (subject, text string) {
	subject = n.Subject
	if subject == "" {
		subject = "Lakay booking update"
	}

	switch n.Type {
	case "booking_created":
		text = fmt.Sprintf(
			"Your booking %v from %v to %v is %v. Total: %v %v.",
			n.Data["booking_id"], n.Data["check_in"], n.Data["check_out"],
			n.Data["status"], n.Data["total"], n.Data["currency"],
		)
	default:
		body, _ := json.Marshal(n.Data)
		text = string(body)
	}
	return subject, text
}
