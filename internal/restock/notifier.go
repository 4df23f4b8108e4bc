package restock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
	"github.com/erazemk/zaloga/internal/telemetry"
)

var tracer = otel.Tracer("github.com/erazemk/zaloga/internal/restock")

// Notifier fans restock notices out to a product's subscribers.
type Notifier struct {
	db      *sql.DB
	channel Channel
	logger  *zap.Logger
	limit   int

	wg sync.WaitGroup
}

// NewNotifier returns a notifier sending through channel with at most
// concurrency sends in flight per restock.
func NewNotifier(db *sql.DB, channel Channel, logger *zap.Logger, concurrency int) *Notifier {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Notifier{db: db, channel: channel, logger: logger, limit: concurrency}
}

// StockChanged must be called after a stock update has committed. If the
// change is a restock, delivery starts in the background and StockChanged
// reports true. The caller's cancellation does not stop delivery.
func (n *Notifier) StockChanged(ctx context.Context, change model.StockChange) bool {
	if !change.IsRestock() {
		return false
	}

	ctx = context.WithoutCancel(ctx)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if _, err := n.Notify(ctx, change); err != nil {
			n.logger.Error("restock notification failed",
				zap.Int64("product_id", change.ProductID), zap.Error(err))
		}
	}()
	return true
}

// Wait blocks until background deliveries started by StockChanged finish.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Notify sends a notice to every subscriber of the product when change is a
// restock, and returns how many were sent. Subscriptions are kept and
// stamped with the time they were last notified. A failed send does not
// stop the others; the failures are returned joined.
func (n *Notifier) Notify(ctx context.Context, change model.StockChange) (int, error) {
	if !change.IsRestock() {
		return 0, nil
	}

	ctx, span := tracer.Start(ctx, "restock.notify")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("product.id", change.ProductID),
		attribute.Int("stock.old", change.OldStock),
		attribute.Int("stock.new", change.NewStock),
	)

	start := time.Now()
	defer func() { telemetry.RestockDispatchDuration.Observe(time.Since(start).Seconds()) }()

	subs, err := store.ListRestockSubscriptions(ctx, n.db, change.ProductID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing subscriptions")
		return 0, err
	}
	if len(subs) == 0 {
		return 0, nil
	}

	body := fmt.Sprintf("%s is back in stock (%d available).", change.ProductName, change.NewStock)

	var (
		mu       sync.Mutex
		sent     []int64
		failures []error
	)

	var g errgroup.Group
	g.SetLimit(n.limit)
	for _, sub := range subs {
		g.Go(func() error {
			if err := n.channel.Send(ctx, sub.Email, body); err != nil {
				telemetry.RestockNotifications.WithLabelValues("failed").Inc()
				mu.Lock()
				failures = append(failures, fmt.Errorf("notifying %s: %w", sub.Email, err))
				mu.Unlock()
				return nil
			}
			telemetry.RestockNotifications.WithLabelValues("sent").Inc()
			mu.Lock()
			sent = append(sent, sub.ID)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if err := store.MarkSubscriptionsNotified(ctx, n.db, sent, time.Now()); err != nil {
		failures = append(failures, err)
	}

	n.logger.Info("restock notices sent",
		zap.Int64("product_id", change.ProductID),
		zap.Int("sent", len(sent)),
		zap.Int("failed", len(subs)-len(sent)),
	)
	span.SetAttributes(attribute.Int("notices.sent", len(sent)))

	err = errors.Join(failures...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "some notices failed")
	}
	return len(sent), err
}
