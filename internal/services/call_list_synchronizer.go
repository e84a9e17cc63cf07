package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

// DefaultPollInterval is how often the call list is re-fetched.
const DefaultPollInterval = 30 * time.Second

// CallListSynchronizer keeps one user's call list fresh by polling the
// call directory and republishing immutable snapshots. Background poll
// failures are logged and otherwise invisible: the previous snapshot
// stays authoritative and the next tick retries.
type CallListSynchronizer struct {
	directory CallDirectory
	user      models.Identity
	interval  time.Duration
	logger    zerolog.Logger
	now       func() time.Time

	mu          sync.RWMutex
	snapshot    models.CallListSnapshot
	loading     bool
	stopped     bool
	subscribers map[int]chan models.CallListSnapshot
	nextSubID   int

	cancel context.CancelFunc
}

func NewCallListSynchronizer(directory CallDirectory, user models.Identity, interval time.Duration, logger zerolog.Logger) *CallListSynchronizer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &CallListSynchronizer{
		directory:   directory,
		user:        user,
		interval:    interval,
		logger:      logger.With().Str("component", "call_list").Str("user_id", user.UserID).Logger(),
		now:         time.Now,
		subscribers: make(map[int]chan models.CallListSnapshot),
	}
}

// Start begins the periodic refresh loop. Each tick fires a refresh
// regardless of whether the previous one finished; overlapping refreshes
// are fine because each produces an independent snapshot and the last
// completed write wins.
func (s *CallListSynchronizer) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil || s.stopped {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	go s.Refresh(ctx)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				go s.Refresh(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop. In-flight refreshes are not aborted but their
// results are discarded so nothing writes to torn-down state.
func (s *CallListSynchronizer) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancel
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Refresh fetches the call list once and installs a new snapshot. On
// error the previous snapshot is left in place and nothing is published.
func (s *CallListSynchronizer) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.loading = true
	s.mu.Unlock()

	calls, err := s.directory.Query(ctx, s.user.UserID)

	s.mu.Lock()
	s.loading = false
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("call list refresh failed, keeping previous snapshot")
		return
	}

	snap := models.CallListSnapshot{Calls: calls, FetchedAt: s.now()}
	s.snapshot = snap
	// Published under the lock: Stop and unsubscribe close these
	// channels while holding it, so a send can never hit a channel that
	// was just closed. The sends cannot block, each channel is buffered
	// and a full buffer just drops the intermediate snapshot.
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
}

// Snapshot returns the latest snapshot.
func (s *CallListSynchronizer) Snapshot() models.CallListSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// IsLoading reports whether a refresh is currently in flight.
func (s *CallListSynchronizer) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Ended partitions the latest snapshot: calls whose ended timestamp is
// set, or whose start time is strictly before now.
func (s *CallListSynchronizer) Ended(now time.Time) []models.CallRecord {
	snap := s.Snapshot()
	var out []models.CallRecord
	for _, call := range snap.Calls {
		if call.Ended(now) {
			out = append(out, call)
		}
	}
	return out
}

// Upcoming partitions the latest snapshot: calls not ended whose start
// time is strictly after now.
func (s *CallListSynchronizer) Upcoming(now time.Time) []models.CallRecord {
	snap := s.Snapshot()
	var out []models.CallRecord
	for _, call := range snap.Calls {
		if call.Upcoming(now) {
			out = append(out, call)
		}
	}
	return out
}

// Subscribe registers an observer for new snapshots. The returned func
// unsubscribes. Slow observers miss intermediate snapshots rather than
// blocking the refresh path.
func (s *CallListSynchronizer) Subscribe() (<-chan models.CallListSnapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.CallListSnapshot, 1)
	if s.stopped {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
	}
}
