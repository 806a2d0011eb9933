package events

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	RefreshRequestedSubject = "jobhub.refresh.requested"
	queueGroup              = "jobhub-dashboard"
	refreshTimeout          = time.Minute
)

// Refresher re-fetches the remote job set.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshHandler lets other services trigger a remote refresh by publishing
// on RefreshRequestedSubject.
type RefreshHandler struct {
	logger    *zap.Logger
	nc        *nats.Conn
	refresher Refresher
	sub       *nats.Subscription
}

func NewRefreshHandler(logger *zap.Logger, nc *nats.Conn, refresher Refresher) *RefreshHandler {
	return &RefreshHandler{
		logger:    logger,
		nc:        nc,
		refresher: refresher,
	}
}

func (h *RefreshHandler) RegisterSubscriptions(lc fx.Lifecycle) error {
	if h.nc == nil {
		return nil
	}

	sub, err := h.nc.QueueSubscribe(RefreshRequestedSubject, queueGroup, h.handleRefresh)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", RefreshRequestedSubject, err)
	}

	h.sub = sub
	h.logger.Info("Registered NATS subscriptions", zap.String("subject", RefreshRequestedSubject))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return h.sub.Unsubscribe()
		},
	})

	return nil
}

func (h *RefreshHandler) handleRefresh(msg *nats.Msg) {
	ctx, span := tracer.Start(context.Background(), "handleRefresh")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	err := h.refresher.Refresh(ctx)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to refresh remote jobs",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
	} else {
		h.logger.Info("Refreshed remote jobs on request",
			zap.String("subject", msg.Subject),
		)
	}

	if msg.Reply != "" {
		reply := []byte("ok")
		if err != nil {
			reply = []byte(err.Error())
		}
		if rerr := msg.Respond(reply); rerr != nil {
			h.logger.Warn("failed to reply to refresh request", zap.Error(rerr))
		}
	}
}
