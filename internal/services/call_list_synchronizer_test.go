package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestClassification(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	dir := newFakeCallDirectory()
	dir.queryResult = []models.CallRecord{
		// Ended timestamp always wins, even with a future start.
		{ID: "ended-future-start", StartsAt: timePtr(future), EndedAt: timePtr(past)},
		{ID: "upcoming", StartsAt: timePtr(future)},
		{ID: "already-started", StartsAt: timePtr(past)},
		// No start time: falls in neither bucket.
		{ID: "no-start"},
	}

	s := NewCallListSynchronizer(dir, testUser, time.Minute, zerolog.Nop())
	s.Refresh(context.Background())

	ended := s.Ended(now)
	upcoming := s.Upcoming(now)

	endedIDs := make([]string, 0, len(ended))
	for _, call := range ended {
		endedIDs = append(endedIDs, call.ID)
	}
	upcomingIDs := make([]string, 0, len(upcoming))
	for _, call := range upcoming {
		upcomingIDs = append(upcomingIDs, call.ID)
	}

	assert.ElementsMatch(t, []string{"ended-future-start", "already-started"}, endedIDs)
	assert.ElementsMatch(t, []string{"upcoming"}, upcomingIDs)
}

func TestClassificationUsesEvaluationTime(t *testing.T) {
	startsAt := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	dir := newFakeCallDirectory()
	dir.queryResult = []models.CallRecord{{ID: "call", StartsAt: timePtr(startsAt)}}

	s := NewCallListSynchronizer(dir, testUser, time.Minute, zerolog.Nop())
	s.Refresh(context.Background())

	// Same snapshot, different "now": the partition follows the clock,
	// not the fetch time.
	assert.Len(t, s.Upcoming(startsAt.Add(-time.Minute)), 1)
	assert.Empty(t, s.Ended(startsAt.Add(-time.Minute)))
	assert.Len(t, s.Ended(startsAt.Add(time.Minute)), 1)
	assert.Empty(t, s.Upcoming(startsAt.Add(time.Minute)))
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	dir := newFakeCallDirectory()
	dir.queryResult = []models.CallRecord{{ID: "call", StartsAt: timePtr(time.Now().Add(time.Hour))}}

	s := NewCallListSynchronizer(dir, testUser, time.Minute, zerolog.Nop())
	s.Refresh(context.Background())

	good := s.Snapshot()
	require.Len(t, good.Calls, 1)

	dir.mu.Lock()
	dir.queryErr = errors.New("network down")
	dir.mu.Unlock()

	for i := 0; i < 3; i++ {
		s.Refresh(context.Background())
		snap := s.Snapshot()
		assert.Equal(t, good.FetchedAt, snap.FetchedAt)
		assert.Equal(t, good.Calls, snap.Calls)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	dir := newFakeCallDirectory()
	dir.queryResult = []models.CallRecord{{ID: "call", StartsAt: timePtr(time.Now().Add(time.Hour))}}

	s := NewCallListSynchronizer(dir, testUser, time.Minute, zerolog.Nop())
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.Refresh(context.Background())

	select {
	case snap := <-ch:
		assert.Len(t, snap.Calls, 1)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}

func TestSubscribersNotNotifiedOnFailure(t *testing.T) {
	dir := newFakeCallDirectory()
	dir.queryErr = errors.New("network down")

	s := NewCallListSynchronizer(dir, testUser, time.Minute, zerolog.Nop())
	ch, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.Refresh(context.Background())

	select {
	case <-ch:
		t.Fatal("failed refresh must not publish")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStopDiscardsInFlightRefresh(t *testing.T) {
	dir := newFakeCallDirectory()
	dir.queryResult = []models.CallRecord{{ID: "call", StartsAt: timePtr(time.Now().Add(time.Hour))}}
	dir.queryGate = make(chan struct{})

	s := NewCallListSynchronizer(dir, testUser, time.Minute, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		s.Refresh(context.Background())
		close(done)
	}()

	s.Stop()
	close(dir.queryGate)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresh did not return")
	}

	assert.Empty(t, s.Snapshot().Calls, "result completing after Stop must be discarded")
}

func TestStartPollsOnInterval(t *testing.T) {
	dir := newFakeCallDirectory()

	s := NewCallListSynchronizer(dir, testUser, 10*time.Millisecond, zerolog.Nop())
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		dir.mu.Lock()
		defer dir.mu.Unlock()
		return dir.queryCalls >= 3
	}, time.Second, 5*time.Millisecond, "expected repeated polls")
}

func TestStopEndsPolling(t *testing.T) {
	dir := newFakeCallDirectory()

	s := NewCallListSynchronizer(dir, testUser, 10*time.Millisecond, zerolog.Nop())
	s.Start(context.Background())

	require.Eventually(t, func() bool {
		dir.mu.Lock()
		defer dir.mu.Unlock()
		return dir.queryCalls >= 1
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	time.Sleep(30 * time.Millisecond)

	dir.mu.Lock()
	after := dir.queryCalls
	dir.mu.Unlock()

	time.Sleep(50 * time.Millisecond)

	dir.mu.Lock()
	final := dir.queryCalls
	dir.mu.Unlock()

	assert.Equal(t, after, final, "no polls may fire after Stop")
}

func TestRefreshConcurrentWithSubscriberChurn(t *testing.T) {
	dir := newFakeCallDirectory()
	dir.queryResult = []models.CallRecord{{ID: "call", StartsAt: timePtr(time.Now().Add(time.Hour))}}

	s := NewCallListSynchronizer(dir, testUser, time.Minute, zerolog.Nop())

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				s.Refresh(context.Background())
			}
		}
	}()

	// Unsubscribing while refreshes publish must never land a send on a
	// closed channel.
	for i := 0; i < 500; i++ {
		ch, unsubscribe := s.Subscribe()
		select {
		case <-ch:
		default:
		}
		unsubscribe()
	}

	close(done)
	wg.Wait()
	s.Stop()
}
