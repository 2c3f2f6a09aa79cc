package ledger

import (
	"context"
	"time"

	"github.com/dskart/payment-engine/model"
	"github.com/dskart/payment-engine/store"
)

func (s Session) GetClientsByTimeRange(ctx context.Context, minTime, maxTime time.Time, limit int) ([]model.Client, error) {
	clients, err := s.store.GetClientsByTimeRange(ctx, minTime, maxTime, limit)
	if err != nil {
		return nil, sanitize(s.logger, err)
	}
	return clients, nil
}

func (s Session) GetClientByID(ctx context.Context, id uint16) (*model.Client, error) {
	client, err := s.store.GetClientByID(ctx, id)
	if err != nil {
		return nil, sanitize(s.logger, err)
	}
	return client, nil
}

func (s Session) GetAllClients(ctx context.Context) ([]model.Client, error) {
	return s.GetClientsByTimeRange(ctx, store.DistantPast(), store.DistantFuture(), 0)
}

// GetClientRevision resolves a client's nth revision rather than its
// current state, for the admin/maintenance read surface.
func (s Session) GetClientRevision(ctx context.Context, id uint16, revision uint32) (*model.Client, error) {
	client, err := s.store.GetClientRevision(ctx, id, revision)
	if err != nil {
		return nil, sanitize(s.logger, err)
	}
	return client, nil
}

func (s Session) AddClient(ctx context.Context, client model.Client) error {
	return sanitize(s.logger, s.store.AddClient(ctx, client))
}
