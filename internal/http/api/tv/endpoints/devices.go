package endpoints

import (
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/luminode/caster/internal/cache"
	"github.com/luminode/caster/internal/db"
	"github.com/luminode/caster/internal/http/api"
	"github.com/luminode/caster/internal/http/api/tv/packets"
)

type TVController struct {
	store db.Store
	cache *cache.Cache
}

func NewTVController(store db.Store, cache *cache.Cache) *TVController {
	return &TVController{store: store, cache: cache}
}

// Module mounts the device-facing routes. These are unauthenticated; a
// device identifies itself by hardware ID.
func Module(store db.Store, cache *cache.Cache) api.Module {
	ctl := NewTVController(store, cache)
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.POST("/pairing/request", api.ResolveEndpoint(ctl.requestPairing))
		c.Group.GET("/current_playlist", api.ResolveEndpoint(ctl.currentPlaylist))
	})
}

// requestPairing issues a short code an administrator types in to bind this
// hardware to a registered device. First-boot devices get a hardware ID
// assigned here.
func (t *TVController) requestPairing(ctx *gin.Context) (any, *api.APIError) {
	var request packets.PairingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	hardwareID := uuid.NewString()
	if request.HardwareID != nil && *request.HardwareID != "" {
		hardwareID = *request.HardwareID
	}

	code := generatePairCode()
	if err := t.cache.SetPairingCode(ctx.Request.Context(), code, hardwareID); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "internal error"}
	}
	return packets.PairingResponse{HardwareID: hardwareID, Code: code}, nil
}

// currentPlaylist is what devices poll on boot and reconnect; pushed updates
// arrive over MQTT in between. Cache first, database as fallback.
func (t *TVController) currentPlaylist(ctx *gin.Context) (any, *api.APIError) {
	hardwareID := ctx.Query("hardware_id")
	if hardwareID == "" {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "hardware_id is required"}
	}

	device, err := t.store.GetDeviceByHardwareID(ctx.Request.Context(), hardwareID)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "unknown device"}
	}

	if playlistID, ok := t.cache.GetCurrentPlaylist(ctx.Request.Context(), device.ID); ok {
		return packets.CurrentPlaylistResponse{DeviceID: device.ID, PlaylistID: &playlistID}, nil
	}
	return packets.CurrentPlaylistResponse{DeviceID: device.ID, PlaylistID: device.CurrentPlaylistID}, nil
}

func generatePairCode() string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	b := make([]byte, 6)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
