package store

import (
	"context"
	"time"

	"github.com/dskart/payment-engine/backend"
	"github.com/dskart/payment-engine/model"
)

// AddClient writes the first revision of a client: current-key and
// revision-1 key both set-if-absent (so a concurrent create collides with
// Contention), and adds the client to the global client index.
func (s *Store) AddClient(ctx context.Context, client model.Client) error {
	serialized, err := serialize(client)
	if err != nil {
		return err
	}
	id := model.IDFromUint16(client.ID)

	batch := backend.NewWriteBatch().
		ZAdd([]byte(ClientsSetKey), id.Bytes(), TimeMicrosecondScore(client.RevisionTime)).
		SetIfAbsent(clientKey(id), serialized).
		SetIfAbsent(clientRevisionKey(id, client.RevisionNumber), serialized)

	committed, err := s.backend.AtomicWrite(ctx, batch)
	if err != nil {
		return wrapOther(err)
	}
	if !committed {
		return ErrContention
	}
	return nil
}

func (s *Store) GetClientByID(ctx context.Context, clientID uint16) (*model.Client, error) {
	id := model.IDFromUint16(clientID)
	raw, err := s.backend.Get(ctx, clientKey(id))
	if err != nil {
		return nil, wrapOther(err)
	}
	if raw == nil {
		return nil, nil
	}
	client, err := deserialize[model.Client](raw)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// GetClientRevision resolves a specific historical revision of a client
// rather than its current state, reading the immutable
// client_revision:{id}:{n} key a write never overwrites.
func (s *Store) GetClientRevision(ctx context.Context, clientID uint16, revision uint32) (*model.Client, error) {
	id := model.IDFromUint16(clientID)
	raw, err := s.backend.Get(ctx, clientRevisionKey(id, revision))
	if err != nil {
		return nil, wrapOther(err)
	}
	if raw == nil {
		return nil, nil
	}
	client, err := deserialize[model.Client](raw)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// GetClientsByTimeRange returns clients in [min, max]. limit > 0 takes the
// first N in ascending revision-time order; limit < 0 takes the last |limit|
// in descending order; limit == 0 is unlimited.
func (s *Store) GetClientsByTimeRange(ctx context.Context, min, max time.Time, limit int) ([]model.Client, error) {
	return getByTimeRange[model.Client](ctx, s.backend, []byte(ClientsSetKey), min, max, limit, ClientKey)
}
