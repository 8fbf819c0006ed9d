package endpoints

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/luminode/caster/internal/db"
	"github.com/luminode/caster/internal/http/api"
	"github.com/luminode/caster/internal/http/api/admin/packets"
	"github.com/luminode/caster/internal/model"
	"github.com/luminode/caster/internal/schedule"
)

type SchedulerController struct {
	engine *schedule.Engine
	store  db.Store
}

func NewSchedulerController(engine *schedule.Engine, store db.Store) *SchedulerController {
	return &SchedulerController{engine: engine, store: store}
}

func SchedulerModule(engine *schedule.Engine, store db.Store) api.Module {
	ctl := NewSchedulerController(engine, store)
	return api.ModuleFunc(func(c *api.Controller) {
		// diagnostics, non-mutating
		c.GET("/devices/:id/preview", ctl.previewSchedule)
		c.GET("/devices/:id/conflicts", ctl.listConflicts)

		// run one evaluation pass immediately
		c.POST("/scheduler/run", ctl.runTick)
	})
}

// previewSchedule answers "what would device X show at date+time Y".
func (s *SchedulerController) previewSchedule(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var query packets.PreviewQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	at, err := time.Parse("2006-01-02 15:04", fmt.Sprintf("%s %s", query.Date, query.Time))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "expected date=YYYY-MM-DD and time=HH:MM"}
	}

	preview, err := s.engine.PreviewSchedule(ctx.Request.Context(), id, at)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to preview schedule")
	}
	return packets.NewPreviewResponse(preview), nil
}

func (s *SchedulerController) listConflicts(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	assignments, err := s.store.ListDeviceAssignments(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to list assignments")
	}

	conflicts := schedule.FindConflicts(assignments)
	if conflicts == nil {
		conflicts = []schedule.Conflict{}
	}
	return conflicts, nil
}

func (s *SchedulerController) runTick(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	report, err := s.engine.Run(ctx.Request.Context())
	if err != nil {
		return nil, api.ErrorFrom(err, "tick failed")
	}
	return report, nil
}
