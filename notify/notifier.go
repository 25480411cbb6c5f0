package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"happy-sandwich/config"
	"happy-sandwich/models"
)

// Message is one rendered notification plus the data it was built from.
type Message struct {
	Event   string
	Text    string
	Order   models.Order
	Summary *models.Summary
}

// Sender delivers a message over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Notifier fans a message out to every configured sender. Delivery is best
// effort: errors are logged and never returned.
type Notifier struct {
	senders []Sender
	timeout time.Duration
	log     *slog.Logger
}

func New(log *slog.Logger, timeout time.Duration, senders ...Sender) *Notifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Notifier{senders: senders, timeout: timeout, log: log}
}

// FromConfig builds a notifier with a sender for every channel that has credentials.
func FromConfig(cfg config.NotifyConfig, log *slog.Logger) *Notifier {
	var senders []Sender
	if cfg.Line.ChannelAccessToken != "" {
		senders = append(senders, NewLineSender(cfg.Line.ChannelAccessToken, cfg.Line.TargetIDs, cfg.Timeout))
	}
	if cfg.Telegram.Token != "" {
		senders = append(senders, NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChatIDs, cfg.Telegram.Channel, cfg.Timeout))
	}
	if cfg.AMQP.URL != "" {
		senders = append(senders, NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange))
	}
	return New(log, cfg.Timeout, senders...)
}

func (n *Notifier) Senders() []string {
	names := make([]string, 0, len(n.senders))
	for _, s := range n.senders {
		names = append(names, s.Name())
	}
	return names
}

// OrderCreated tells every channel about a new order. summary may be nil.
func (n *Notifier) OrderCreated(ctx context.Context, order models.Order, summary *models.Summary) {
	n.dispatch(ctx, Message{
		Event:   EventOrderCreated,
		Text:    FormatNewOrder(order, summary),
		Order:   order,
		Summary: summary,
	})
}

func (n *Notifier) dispatch(ctx context.Context, msg Message) {
	if len(n.senders) == 0 {
		n.log.Debug("no notification channel configured", slog.String("event", msg.Event))
		return
	}
	// Detach from the request so a client hang-up does not abort delivery.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	if err := n.deliver(ctx, msg); err != nil {
		n.log.Warn("failed to send notification",
			slog.String("event", msg.Event),
			slog.Int64("order_id", msg.Order.ID),
			slog.Any("error", err),
		)
	}
}

// deliver runs every sender at once and waits for all of them. The result
// joins each failure, prefixed with the sender name.
func (n *Notifier) deliver(ctx context.Context, msg Message) error {
	var g errgroup.Group
	errs := make([]error, len(n.senders))
	for i, s := range n.senders {
		g.Go(func() error {
			if err := s.Send(ctx, msg); err != nil {
				errs[i] = fmt.Errorf("%s: %w", s.Name(), err)
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}
	return errors.Join(errs...)
}

// Close releases senders holding connections.
func (n *Notifier) Close() error {
	for _, s := range n.senders {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				return fmt.Errorf("close %s: %w", s.Name(), err)
			}
		}
	}
	return nil
}

const EventOrderCreated = "order.created"

// FormatNewOrder renders the chat text for a new order, in Thai for the stall staff.
func FormatNewOrder(o models.Order, summary *models.Summary) string {
	status := "ยังไม่ชำระ"
	if o.IsPaid {
		status = "ชำระแล้ว"
	}
	var b strings.Builder
	b.WriteString("มีออเดอร์ใหม่!\n")
	fmt.Fprintf(&b, "ลูกค้า: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "เมนู: %s x%d\n", o.MenuItemName, o.Quantity)
	fmt.Fprintf(&b, "ราคา: %.0f บาท\n", o.Price)
	fmt.Fprintf(&b, "สถานะ: %s", status)
	if o.Note != nil && *o.Note != "" {
		fmt.Fprintf(&b, "\nหมายเหตุ: %s", *o.Note)
	}
	if summary != nil && len(summary.MenuBreakdown) > 0 {
		b.WriteString("\n\nยอดรวมตามเมนู:")
		for _, m := range summary.MenuBreakdown {
			fmt.Fprintf(&b, "\n- %s: %d (ค้างชำระ %d)", m.MenuItemName, m.TotalQuantity, m.UnpaidQuantity)
		}
	}
	return b.String()
}
