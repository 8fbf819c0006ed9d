package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/luminode/caster/internal/cache"
	"github.com/luminode/caster/internal/db"
	"github.com/luminode/caster/internal/http/api"
	authendpoints "github.com/luminode/caster/internal/http/api/admin/auth/endpoints"
	adminendpoints "github.com/luminode/caster/internal/http/api/admin/endpoints"
	tvendpoints "github.com/luminode/caster/internal/http/api/tv/endpoints"
	"github.com/luminode/caster/internal/schedule"
)

func setupRoutes(r *gin.Engine, env Environment, store db.Store, redisCache *cache.Cache, engine *schedule.Engine) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
	}))

	// public admin routes (signup/login)
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/admin"},
		authendpoints.AuthModule(store, env.SecretKey),
	)

	// authenticated admin control surface
	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		authendpoints.ProfileModule(store, env.SecretKey),
		adminendpoints.DeviceModule(store, redisCache),
		adminendpoints.PlaylistModule(store),
		adminendpoints.AssignmentModule(store),
		adminendpoints.ActionModule(store),
		adminendpoints.SchedulerModule(engine, store),
	)

	// device-facing routes
	api.MountGroup(r, api.GroupConfig{Prefix: "/api/tv"},
		tvendpoints.Module(store, redisCache),
	)
}
