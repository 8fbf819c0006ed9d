package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/luminode/caster/internal/cache"
	"github.com/luminode/caster/internal/db"
	"github.com/luminode/caster/internal/http/api"
	"github.com/luminode/caster/internal/http/api/admin/packets"
	"github.com/luminode/caster/internal/model"
)

type DeviceController struct {
	store db.Store
	cache *cache.Cache
}

func NewDeviceController(store db.Store, cache *cache.Cache) *DeviceController {
	return &DeviceController{store: store, cache: cache}
}

func DeviceModule(store db.Store, cache *cache.Cache) api.Module {
	ctl := NewDeviceController(store, cache)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/devices", ctl.listDevices)
		c.POST("/devices", ctl.createDevice)
		c.GET("/devices/:id", ctl.getDevice)
		c.PATCH("/devices/:id", ctl.updateDevice)
		c.DELETE("/devices/:id", ctl.deleteDevice)

		// claim a pairing code a device requested
		c.POST("/devices/:id/pair", ctl.pairDevice)
	})
}

func (d *DeviceController) listDevices(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	devices, err := d.store.ListDevices(ctx.Request.Context())
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to list devices")
	}

	response := make([]packets.DeviceResponse, 0, len(devices))
	for _, device := range devices {
		response = append(response, packets.NewDeviceResponse(device))
	}
	return response, nil
}

func (d *DeviceController) createDevice(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	device, err := d.store.CreateDevice(ctx.Request.Context(), request.Name, request.Location, user.ID)
	if err != nil {
		return nil, api.ErrorFrom(err, "could not create device")
	}
	return packets.NewDeviceResponse(device), nil
}

func (d *DeviceController) getDevice(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	device, err := d.store.GetDevice(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to get device")
	}
	return packets.NewDeviceResponse(device), nil
}

func (d *DeviceController) updateDevice(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := d.store.UpdateDevice(ctx.Request.Context(), id, request.Name, request.Location); err != nil {
		return nil, api.ErrorFrom(err, "could not update device")
	}

	device, err := d.store.GetDevice(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to get device")
	}
	return packets.NewDeviceResponse(device), nil
}

func (d *DeviceController) deleteDevice(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := d.store.DeleteDevice(ctx.Request.Context(), id); err != nil {
		return nil, api.ErrorFrom(err, "could not delete device")
	}
	return gin.H{"message": "deleted"}, nil
}

func (d *DeviceController) pairDevice(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.PairDeviceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	hardwareID, err := d.cache.TakePairingCode(ctx.Request.Context(), request.Code)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusNotFound, Message: "pairing code not found or expired"}
	}

	if err := d.store.PairDevice(ctx.Request.Context(), id, hardwareID); err != nil {
		return nil, api.ErrorFrom(err, "could not pair device")
	}

	device, err := d.store.GetDevice(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to get device")
	}
	return packets.NewDeviceResponse(device), nil
}
