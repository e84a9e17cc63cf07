package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

// SynchronizerPool hands out one running CallListSynchronizer per user,
// created lazily on first use and stopped together on shutdown. Poll
// loops run on the pool's own context, not the context of the request
// that happened to create them.
type SynchronizerPool struct {
	directory CallDirectory
	interval  time.Duration
	logger    zerolog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu     sync.Mutex
	byUser map[string]*CallListSynchronizer
	closed bool
}

func NewSynchronizerPool(directory CallDirectory, interval time.Duration, logger zerolog.Logger) *SynchronizerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &SynchronizerPool{
		directory:  directory,
		interval:   interval,
		logger:     logger,
		baseCtx:    ctx,
		baseCancel: cancel,
		byUser:     make(map[string]*CallListSynchronizer),
	}
}

// ForUser returns the user's synchronizer, starting one if needed.
func (p *SynchronizerPool) ForUser(user models.Identity) *CallListSynchronizer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.byUser[user.UserID]; ok {
		return s
	}

	s := NewCallListSynchronizer(p.directory, user, p.interval, p.logger)
	if !p.closed {
		s.Start(p.baseCtx)
		p.byUser[user.UserID] = s
	}
	return s
}

// Shutdown stops every synchronizer. No further polls fire afterwards.
func (p *SynchronizerPool) Shutdown() {
	p.mu.Lock()
	p.closed = true
	syncs := make([]*CallListSynchronizer, 0, len(p.byUser))
	for id, s := range p.byUser {
		syncs = append(syncs, s)
		delete(p.byUser, id)
	}
	p.mu.Unlock()

	p.baseCancel()
	for _, s := range syncs {
		s.Stop()
	}
}
