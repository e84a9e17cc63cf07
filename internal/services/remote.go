package services

import (
	"context"

	"github.com/adityaraj-dev/MeetFlow/internal/chat"
	"github.com/adityaraj-dev/MeetFlow/internal/models"
)

// CallDirectory is the remote call record service.
type CallDirectory interface {
	Query(ctx context.Context, userID string) ([]models.CallRecord, error)
	GetOrCreate(ctx context.Context, id string, params models.CreateCallParams) (*models.CallRecord, error)
}

// ChatDirectory is the remote chat provider. Both operations are
// idempotent on the provider side.
type ChatDirectory interface {
	ConnectUser(ctx context.Context, user models.Identity) error
	WatchChannel(ctx context.Context, ref chat.ChannelRef) error
}
