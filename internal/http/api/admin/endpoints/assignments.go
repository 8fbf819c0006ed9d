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

type AssignmentController struct {
	store db.Store
}

func NewAssignmentController(store db.Store) *AssignmentController {
	return &AssignmentController{store: store}
}

func AssignmentModule(store db.Store) api.Module {
	ctl := NewAssignmentController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/assignments", ctl.listAssignments)
		c.POST("/assignments", ctl.createAssignment)
		c.GET("/assignments/:id", ctl.getAssignment)
		c.PATCH("/assignments/:id", ctl.updateAssignment)
		c.DELETE("/assignments/:id", ctl.deleteAssignment)
	})
}

func (a *AssignmentController) listAssignments(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var deviceID *int
	if raw := ctx.Query("device_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid device_id"}
		}
		deviceID = &id
	}

	assignments, err := a.store.ListAssignments(ctx.Request.Context(), deviceID)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to list assignments")
	}

	response := make([]packets.AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		response = append(response, packets.NewAssignmentResponse(assignment))
	}
	return response, nil
}

func (a *AssignmentController) createAssignment(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	var request packets.CreateAssignmentRequest
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

	assignment, err := a.store.CreateAssignment(ctx.Request.Context(), db.AssignmentParams{
		DeviceID:   request.DeviceID,
		PlaylistID: request.PlaylistID,
		Name:       request.Name,
		Priority:   request.Priority,
		Enabled:    enabled,
		Rule:       rule,
	})
	if err != nil {
		return nil, api.ErrorFrom(err, "could not create assignment")
	}
	return packets.NewAssignmentResponse(assignment), nil
}

func (a *AssignmentController) getAssignment(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	assignment, err := a.store.GetAssignment(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to get assignment")
	}
	return packets.NewAssignmentResponse(assignment), nil
}

func (a *AssignmentController) updateAssignment(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateAssignmentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	update := db.AssignmentUpdate{
		PlaylistID: request.PlaylistID,
		Name:       request.Name,
		Priority:   request.Priority,
		Enabled:    request.Enabled,
	}
	if request.Rule != nil {
		rule, err := request.Rule.ToRule()
		if err != nil {
			return nil, api.ErrorFrom(err, "invalid rule")
		}
		update.Rule = rule
	}

	assignment, err := a.store.UpdateAssignment(ctx.Request.Context(), id, update)
	if err != nil {
		return nil, api.ErrorFrom(err, "could not update assignment")
	}
	return packets.NewAssignmentResponse(assignment), nil
}

func (a *AssignmentController) deleteAssignment(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := a.store.DeleteAssignment(ctx.Request.Context(), id); err != nil {
		return nil, api.ErrorFrom(err, "could not delete assignment")
	}
	return gin.H{"message": "deleted"}, nil
}
