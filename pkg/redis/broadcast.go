package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClearChannel carries cache-clear announcements between dashboard instances.
const ClearChannel = "axelarscope:cache.clear"

// ClearEvent is published when an instance clears its result cache.
type ClearEvent struct {
	Origin  string    `json:"origin"`
	Entries int       `json:"entries"`
	User    string    `json:"user,omitempty"`
	At      time.Time `json:"at"`
}

// Clearer is the cache side of a broadcast.
type Clearer interface {
	Clear() int
}

// Broadcaster announces local cache clears and applies remote ones.
type Broadcaster struct {
	client *Client
	origin string
	logger *zap.Logger
}

// NewBroadcaster tags announcements with origin so an instance ignores its own.
func NewBroadcaster(client *Client, origin string, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{client: client, origin: origin, logger: logger}
}

// Announce publishes a clear. Best-effort.
func (b *Broadcaster) Announce(ctx context.Context, entries int, user string) {
	payload, err := encodeClear(ClearEvent{Origin: b.origin, Entries: entries, User: user, At: time.Now().UTC()})
	if err != nil {
		b.logger.Warn("Failed to encode cache clear event", zap.Error(err))
		return
	}
	b.client.Publish(ctx, ClearChannel, payload)
}

// Listen applies remote clears to target until ctx is done, resubscribing with backoff when Redis drops.
func (b *Broadcaster) Listen(ctx context.Context, target Clearer) {
	const maxBackoff = 30 * time.Second
	backoff := time.Second
	for attempt := 1; ; attempt++ {
		err := b.listenOnce(ctx, target)
		if ctx.Err() != nil {
			return
		}
		b.logger.Warn("Cache clear subscription lost, will retry",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *Broadcaster) listenOnce(ctx context.Context, target Clearer) error {
	pubsub := b.client.Subscribe(ctx, ClearChannel)
	defer func() {
		if err := pubsub.Close(); err != nil {
			b.logger.Debug("Error closing Redis subscription", zap.Error(err))
		}
	}()

	receiveCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := pubsub.Receive(receiveCtx); err != nil {
		return fmt.Errorf("failed to confirm Redis subscription: %w", err)
	}
	b.logger.Info("Subscribed to cache clear announcements", zap.String("channel", ClearChannel))

	return b.consume(ctx, pubsub.Channel(), target)
}

func (b *Broadcaster) consume(ctx context.Context, ch <-chan *redis.Message, target Clearer) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription channel closed")
			}
			b.apply(msg.Payload, target)
		}
	}
}

// apply clears target for a well-formed event from another instance. It reports whether it cleared.
func (b *Broadcaster) apply(payload string, target Clearer) bool {
	ev, err := decodeClear(payload)
	if err != nil {
		b.logger.Warn("Ignoring malformed cache clear event", zap.Error(err))
		return false
	}
	if ev.Origin == b.origin {
		return false
	}
	n := target.Clear()
	b.logger.Info("Cache cleared by remote instance",
		zap.String("origin", ev.Origin),
		zap.String("user", ev.User),
		zap.Int("entries", n))
	return true
}

func encodeClear(ev ClearEvent) (string, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeClear(payload string) (ClearEvent, error) {
	var ev ClearEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, fmt.Errorf("decode clear event: %w", err)
	}
	if ev.Origin == "" {
		return ev, fmt.Errorf("decode clear event: missing origin")
	}
	return ev, nil
}
