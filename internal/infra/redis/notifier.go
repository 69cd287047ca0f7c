package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LeaderboardChannel carries a message every time user stats change.
const LeaderboardChannel = "quiz:leaderboard:changed"

// Notifier fans leaderboard change events out to every instance through Redis pub/sub.
type Notifier struct {
	client  *redis.Client
	channel string
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client, channel: LeaderboardChannel}
}

func (n *Notifier) Notify(ctx context.Context) error {
	if err := n.client.Publish(ctx, n.channel, "changed").Err(); err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	return nil
}

// Listen calls fn for each change event until ctx is done.
func (n *Notifier) Listen(ctx context.Context, fn func()) error {
	sub := n.client.Subscribe(ctx, n.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed before consuming
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", n.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			fn()
		}
	}
}
