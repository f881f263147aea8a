package transport

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultBlock = time.Second

// Redis is a Port over two Redis lists: RPUSH to send, BLPOP to receive.
// Each list is FIFO, which gives per-direction ordering across processes.
type Redis struct {
	client  redis.UniversalClient
	sendKey string
	recvKey string
	block   time.Duration
	closed  atomic.Bool
}

// DownKey is the list carrying background → foreground messages
func DownKey(channel string) string { return fmt.Sprintf("workerview:%s:down", channel) }

// UpKey is the list carrying foreground → background messages
func UpKey(channel string) string { return fmt.Sprintf("workerview:%s:up", channel) }

// NewRedisBackground returns the background end of a channel
func NewRedisBackground(client redis.UniversalClient, channel string) *Redis {
	return NewRedis(client, DownKey(channel), UpKey(channel))
}

// NewRedisForeground returns the foreground end of a channel
func NewRedisForeground(client redis.UniversalClient, channel string) *Redis {
	return NewRedis(client, UpKey(channel), DownKey(channel))
}

// NewRedis creates a port that pushes to sendKey and pops from recvKey
func NewRedis(client redis.UniversalClient, sendKey, recvKey string) *Redis {
	return &Redis{client: client, sendKey: sendKey, recvKey: recvKey, block: defaultBlock}
}

// WithBlock sets how long each BLPOP waits before rechecking for close
func (r *Redis) WithBlock(d time.Duration) *Redis {
	r.block = d
	return r
}

// Reset drops anything left in both lists by an earlier session
func (r *Redis) Reset(ctx context.Context) error {
	return r.client.Del(ctx, r.sendKey, r.recvKey).Err()
}

func (r *Redis) Send(ctx context.Context, msg []byte) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.client.RPush(ctx, r.sendKey, msg).Err(); err != nil {
		return fmt.Errorf("redis rpush %s: %w", r.sendKey, err)
	}
	return nil
}

func (r *Redis) Recv(ctx context.Context) ([]byte, error) {
	for {
		if r.closed.Load() {
			return nil, ErrClosed
		}
		res, err := r.client.BLPop(ctx, r.block, r.recvKey).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, redis.ErrClosed) {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("redis blpop %s: %w", r.recvKey, err)
		}
		// res is [key, value]
		return []byte(res[1]), nil
	}
}

// Close stops the port. The client is owned by the caller.
func (r *Redis) Close() error {
	r.closed.Store(true)
	return nil
}
