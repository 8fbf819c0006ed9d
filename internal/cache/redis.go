package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const pairingTTL = 5 * time.Minute

// Cache wraps Redis for pairing codes and the device current-playlist cache
// consulted by the device-facing endpoint.
type Cache struct {
	rdb *redis.Client
}

func New(addr, username, password string) *Cache {
	return &Cache{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
		DB:       0,
	})}
}

func (c *Cache) SetPairingCode(ctx context.Context, code, hardwareID string) error {
	return c.rdb.Set(ctx, "pairing:"+code, hardwareID, pairingTTL).Err()
}

// TakePairingCode consumes a pairing code, returning the hardware ID it was
// issued for. A code can be taken once.
func (c *Cache) TakePairingCode(ctx context.Context, code string) (string, error) {
	hardwareID, err := c.rdb.GetDel(ctx, "pairing:"+code).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("pairing code %q not found or expired", code)
	}
	return hardwareID, err
}

func playlistKey(deviceID int) string {
	return "device:current_playlist:" + strconv.Itoa(deviceID)
}

// SetCurrentPlaylist mirrors a device's assigned playlist. Failures are
// logged, not surfaced: the database stays the source of truth.
func (c *Cache) SetCurrentPlaylist(ctx context.Context, deviceID int, playlistID *int) {
	var err error
	if playlistID == nil {
		err = c.rdb.Del(ctx, playlistKey(deviceID)).Err()
	} else {
		err = c.rdb.Set(ctx, playlistKey(deviceID), *playlistID, 0).Err()
	}
	if err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("failed to cache current playlist")
	}
}

// GetCurrentPlaylist returns the cached playlist for a device; ok is false
// on a miss or Redis error, and callers fall back to the database.
func (c *Cache) GetCurrentPlaylist(ctx context.Context, deviceID int) (int, bool) {
	val, err := c.rdb.Get(ctx, playlistKey(deviceID)).Int()
	if err != nil {
		return 0, false
	}
	return val, true
}
