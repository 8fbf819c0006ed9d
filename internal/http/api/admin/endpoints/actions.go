package endpoints

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/luminode/caster/internal/db"
	"github.com/luminode/caster/internal/http/api"
	"github.com/luminode/caster/internal/http/api/admin/packets"
	"github.com/luminode/caster/internal/model"
)

type ActionController struct {
	store db.Store
}

func NewActionController(store db.Store) *ActionController {
	return &ActionController{store: store}
}

func ActionModule(store db.Store) api.Module {
	ctl := NewActionController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/actions", ctl.listActions)
		c.POST("/actions", ctl.createAction)
		c.GET("/actions/:id", ctl.getAction)
		c.PATCH("/actions/:id", ctl.updateAction)
		c.DELETE("/actions/:id", ctl.deleteAction)
	})
}

func (a *ActionController) listActions(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var deviceID *int
	if raw := ctx.Query("device_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid device_id"}
		}
		deviceID = &id
	}

	actions, err := a.store.ListActions(ctx.Request.Context(), deviceID)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to list actions")
	}

	response := make([]packets.ActionResponse, 0, len(actions))
	for _, action := range actions {
		response = append(response, packets.NewActionResponse(action))
	}
	return response, nil
}

func (a *ActionController) createAction(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreateActionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	rule, err := request.Rule.ToRule()
	if err != nil {
		return nil, api.ErrorFrom(err, "invalid rule")
	}

	enabled := true
	if request.Enabled != nil {
		enabled = *request.Enabled
	}

	action, err := a.store.CreateAction(ctx.Request.Context(), db.ActionParams{
		DeviceID:             request.DeviceID,
		Name:                 request.Name,
		Action:               model.ActionType(request.Action),
		Input:                request.Input,
		Priority:             request.Priority,
		Enabled:              enabled,
		CatchUpWindowMinutes: request.CatchUpWindowMinutes,
		Rule:                 rule,
	})
	if err != nil {
		return nil, api.ErrorFrom(err, "could not create action")
	}
	return packets.NewActionResponse(action), nil
}

func (a *ActionController) getAction(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	action, err := a.store.GetAction(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to get action")
	}
	return packets.NewActionResponse(action), nil
}

func (a *ActionController) updateAction(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateActionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	update := db.ActionUpdate{
		Name:                 request.Name,
		Input:                request.Input,
		Priority:             request.Priority,
		Enabled:              request.Enabled,
		CatchUpWindowMinutes: request.CatchUpWindowMinutes,
	}
	if request.Action != nil {
		actionType := model.ActionType(*request.Action)
		update.Action = &actionType
	}
	if request.Rule != nil {
		rule, err := request.Rule.ToRule()
		if err != nil {
			return nil, api.ErrorFrom(err, "invalid rule")
		}
		update.Rule = rule
	}

	action, err := a.store.UpdateAction(ctx.Request.Context(), id, update)
	if err != nil {
		return nil, api.ErrorFrom(err, "could not update action")
	}
	return packets.NewActionResponse(action), nil
}

func (a *ActionController) deleteAction(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := a.store.DeleteAction(ctx.Request.Context(), id); err != nil {
		return nil, api.ErrorFrom(err, "could not delete action")
	}
	return gin.H{"message": "deleted"}, nil
}
