package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/luminode/caster/internal/db"
	"github.com/luminode/caster/internal/http/api"
	"github.com/luminode/caster/internal/http/api/admin/auth/packets"
	"github.com/luminode/caster/internal/http/middleware"
	"github.com/luminode/caster/internal/model"
)

type AuthController struct {
	store  db.Store
	secret string
}

func NewAuthController(store db.Store, secret string) *AuthController {
	return &AuthController{store: store, secret: secret}
}

// AuthModule mounts the public signup/login routes.
func AuthModule(store db.Store, secret string) api.Module {
	ctl := NewAuthController(store, secret)
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.POST("/auth/signup", ctl.signup)
		c.Group.POST("/auth/login", api.ResolveEndpoint(ctl.login))
	})
}

// ProfileModule mounts the authenticated profile route.
func ProfileModule(store db.Store, secret string) api.Module {
	ctl := NewAuthController(store, secret)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/auth/current_profile", ctl.currentProfile)
	})
}

func (a *AuthController) signup(ctx *gin.Context) {
	var request packets.SignupRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashed, err := middleware.HashPassword(request.Password)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	userID, err := a.store.CreateUser(ctx.Request.Context(), request.Email, hashed, request.Name)
	if err != nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "could not create user"})
		return
	}

	token, err := middleware.GenerateJWT(userID, a.secret)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"token": token})
}

func (a *AuthController) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	user, err := a.store.GetUserByEmail(ctx.Request.Context(), request.Email)
	if err != nil || !middleware.CheckPassword(user.HashedPassword, request.Password) {
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: middleware.ErrInvalidCredentials.Error()}
	}

	token, err := middleware.GenerateJWT(user.ID, a.secret)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not issue token"}
	}
	return gin.H{"token": token}, nil
}

func (a *AuthController) currentProfile(_ *gin.Context, user *model.User) (any, *api.APIError) {
	return user, nil
}
