package notify

import (
	"context"

	"github.com/luminode/caster/internal/cache"
	"github.com/luminode/caster/internal/model"
)

// CacheSink mirrors playlist changes into the Redis cache the device-facing
// endpoint reads, then delegates to the real sink.
type CacheSink struct {
	Next  Sink
	Cache *cache.Cache
}

func (s CacheSink) PlaylistChanged(ctx context.Context, change model.ChangeRecord) error {
	s.Cache.SetCurrentPlaylist(ctx, change.DeviceID, change.NewPlaylistID)
	return s.Next.PlaylistChanged(ctx, change)
}

func (s CacheSink) DispatchAction(ctx context.Context, cmd model.DeviceCommand) error {
	return s.Next.DispatchAction(ctx, cmd)
}
