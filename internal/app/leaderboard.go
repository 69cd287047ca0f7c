package app

import (
	"context"
	"log"
	"sync"
	"time"

	"quiz-web-service/internal/domain"
)

const (
	DefaultLeaderboardSize = 10
	MaxLeaderboardSize     = 100
)

// Standings ranks the top users.
func Standings(ctx context.Context, users UserRepository, limit int, now time.Time) (domain.Leaderboard, error) {
	limit = clampLimit(limit)
	top, err := users.TopUsers(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	entries := make([]domain.Standing, 0, len(top))
	for i, u := range top {
		entries = append(entries, domain.Standing{
			Rank:          i + 1,
			UserID:        u.ID,
			Name:          u.FullName(),
			Score:         u.Score,
			QuizzesTaken:  u.TotalQuizzesTaken,
			QuizzesPassed: u.QuizzesPassed,
			PassRate:      roundDiv(u.QuizzesPassed*100, u.TotalQuizzesTaken),
			AvatarColor:   u.AvatarColor,
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: now}, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardSize
	case limit > MaxLeaderboardSize:
		return MaxLeaderboardSize
	}
	return limit
}

// LeaderboardHub keeps the latest standings and fans them out to subscribers.
type LeaderboardHub struct {
	users UserRepository
	size  int
	now   func() time.Time

	mu          sync.Mutex
	current     domain.Leaderboard
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardHub(users UserRepository, size int) *LeaderboardHub {
	return &LeaderboardHub{
		users:       users,
		size:        clampLimit(size),
		now:         time.Now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Snapshot returns fresh standings of up to limit users.
func (h *LeaderboardHub) Snapshot(ctx context.Context, limit int) (domain.Leaderboard, error) {
	return Standings(ctx, h.users, limit, h.now())
}

// Refresh reloads standings and broadcasts them.
func (h *LeaderboardHub) Refresh(ctx context.Context) error {
	lb, err := Standings(ctx, h.users, h.size, h.now())
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = lb
	h.broadcastLocked(lb)
	return nil
}

// Run refreshes the hub on every change notification until ctx is done.
func (h *LeaderboardHub) Run(ctx context.Context, notifier ChangeNotifier) error {
	if err := h.Refresh(ctx); err != nil {
		log.Printf("leaderboard refresh: %v", err)
	}
	return notifier.Listen(ctx, func() {
		if err := h.Refresh(ctx); err != nil {
			log.Printf("leaderboard refresh: %v", err)
		}
	})
}

// Subscribe returns a channel that starts with the current standings, or with the
// first refresh if none has completed yet. The caller must invoke the returned cancel function.
func (h *LeaderboardHub) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	if !h.current.UpdatedAt.IsZero() {
		ch <- h.current
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *LeaderboardHub) broadcastLocked(lb domain.Leaderboard) {
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// slow subscriber: replace the oldest pending update
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
