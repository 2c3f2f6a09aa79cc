// Package redisbackend is the remote single-server Backend variant, backed
// by github.com/redis/go-redis/v9. Atomic multi-op writes use a
// WATCH/MULTI/EXEC optimistic transaction: a SetIfAbsent precondition that
// loses the race reports committed=false without ever becoming a transport
// error, matching the conflict-vs-transport-error split the whole Backend
// interface is built around. Dependency choice grounded on LerianStudio's
// production ledger platform, which uses the same client for its own store.
package redisbackend

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/dskart/payment-engine/backend"
)

type Backend struct {
	client *redis.Client
}

func New(client *redis.Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Get(ctx context.Context, key []byte) ([]byte, error) {
	v, err := b.client.Get(ctx, string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return v, err
}

func (b *Backend) BatchGet(ctx context.Context, keys [][]byte) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	strKeys := make([]string, len(keys))
	for i, k := range keys {
		strKeys[i] = string(k)
	}
	values, err := b.client.MGet(ctx, strKeys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for i, v := range values {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[strKeys[i]] = []byte(s)
	}
	return out, nil
}

func (b *Backend) ZAdd(ctx context.Context, setKey, member []byte, score float64) error {
	return b.client.ZAdd(ctx, string(setKey), redis.Z{Score: score, Member: string(member)}).Err()
}

func (b *Backend) ZRem(ctx context.Context, setKey, member []byte) error {
	return b.client.ZRem(ctx, string(setKey), string(member)).Err()
}

func (b *Backend) ZRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	return b.zRangeByScore(ctx, setKey, min, max, limit, false)
}

func (b *Backend) ZRevRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int) ([][]byte, error) {
	return b.zRangeByScore(ctx, setKey, min, max, limit, true)
}

func (b *Backend) zRangeByScore(ctx context.Context, setKey []byte, min, max float64, limit int, descending bool) ([][]byte, error) {
	byScore := &redis.ZRangeBy{
		Min: formatScore(min),
		Max: formatScore(max),
	}
	if limit > 0 {
		byScore.Count = int64(limit)
	}

	var members []string
	var err error
	if descending {
		members, err = b.client.ZRevRangeByScore(ctx, string(setKey), byScore).Result()
	} else {
		members, err = b.client.ZRangeByScore(ctx, string(setKey), byScore).Result()
	}
	if err != nil {
		return nil, err
	}

	out := make([][]byte, len(members))
	for i, m := range members {
		out[i] = []byte(m)
	}
	return out, nil
}

var errPreconditionFailed = errors.New("redisbackend: precondition failed")

// AtomicWrite implements the all-or-nothing multi-op write via WATCH on
// every SetIfAbsent key: if any of them has appeared since the watch began,
// go-redis surfaces redis.TxFailedErr, which we fold into committed=false
// right alongside an explicit pre-check failure.
func (b *Backend) AtomicWrite(ctx context.Context, batch *backend.WriteBatch) (bool, error) {
	ops := batch.Ops()

	var watchKeys []string
	for _, op := range ops {
		if op.Kind == backend.OpSetIfAbsent {
			watchKeys = append(watchKeys, string(op.Key))
		}
	}

	txFunc := func(tx *redis.Tx) error {
		for _, op := range ops {
			if op.Kind != backend.OpSetIfAbsent {
				continue
			}
			exists, err := tx.Exists(ctx, string(op.Key)).Result()
			if err != nil {
				return err
			}
			if exists > 0 {
				return errPreconditionFailed
			}
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, op := range ops {
				switch op.Kind {
				case backend.OpSet, backend.OpSetIfAbsent:
					pipe.Set(ctx, string(op.Key), op.Value, 0)
				case backend.OpZAdd:
					pipe.ZAdd(ctx, string(op.SetKey), redis.Z{Score: op.Score, Member: string(op.Member)})
				case backend.OpZRem:
					pipe.ZRem(ctx, string(op.SetKey), string(op.Member))
				}
			}
			return nil
		})
		return err
	}

	err := b.client.Watch(ctx, txFunc, watchKeys...)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errPreconditionFailed), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, err
	}
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
