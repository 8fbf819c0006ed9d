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

type PlaylistController struct {
	store db.Store
}

func NewPlaylistController(store db.Store) *PlaylistController {
	return &PlaylistController{store: store}
}

func PlaylistModule(store db.Store) api.Module {
	ctl := NewPlaylistController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/playlists", ctl.listPlaylists)
		c.POST("/playlists", ctl.createPlaylist)
		c.GET("/playlists/:id", ctl.getPlaylist)
		c.PATCH("/playlists/:id", ctl.updatePlaylist)
		c.DELETE("/playlists/:id", ctl.deletePlaylist)
	})
}

func (p *PlaylistController) listPlaylists(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	playlists, err := p.store.ListPlaylists(ctx.Request.Context())
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to list playlists")
	}

	response := make([]packets.PlaylistResponse, 0, len(playlists))
	for _, playlist := range playlists {
		response = append(response, packets.NewPlaylistResponse(playlist))
	}
	return response, nil
}

func (p *PlaylistController) createPlaylist(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreatePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	playlist, err := p.store.CreatePlaylist(ctx.Request.Context(), request.Name, request.Description, user.ID)
	if err != nil {
		return nil, api.ErrorFrom(err, "could not create playlist")
	}
	return packets.NewPlaylistResponse(playlist), nil
}

func (p *PlaylistController) getPlaylist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	playlist, err := p.store.GetPlaylist(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to get playlist")
	}
	return packets.NewPlaylistResponse(playlist), nil
}

func (p *PlaylistController) updatePlaylist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdatePlaylistRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := p.store.UpdatePlaylist(ctx.Request.Context(), id, request.Name, request.Description); err != nil {
		return nil, api.ErrorFrom(err, "could not update playlist")
	}

	playlist, err := p.store.GetPlaylist(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.ErrorFrom(err, "failed to get playlist")
	}
	return packets.NewPlaylistResponse(playlist), nil
}

func (p *PlaylistController) deletePlaylist(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := p.store.DeletePlaylist(ctx.Request.Context(), id); err != nil {
		return nil, api.ErrorFrom(err, "could not delete playlist")
	}
	return gin.H{"message": "deleted"}, nil
}
