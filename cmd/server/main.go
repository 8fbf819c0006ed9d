package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/cache"
	"github.com/luminode/caster/internal/db"
	"github.com/luminode/caster/internal/notify"
	"github.com/luminode/caster/internal/schedule"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	env := LoadEnvironment()

	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	conn, err := db.Init(env.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db init failed")
	}
	if err := db.RunMigrations(conn, env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	store := db.NewStore(conn)
	redisCache := cache.New(env.RedisAddress, env.RedisUsername, env.RedisPassword)

	var sink notify.Sink = notify.LogSink{}
	if env.MQTTBrokerURL != "" {
		mqttSink, err := notify.NewMQTTSink(env.MQTTBrokerURL, "caster-server")
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect failed")
		}
		defer mqttSink.Close()
		sink = mqttSink
	}
	sink = notify.CacheSink{Next: sink, Cache: redisCache}

	engine := schedule.New(store, sink)

	// one evaluation pass per minute; a failed tick is retried on the next
	// cadence with no carried state
	ticker := cron.New()
	if _, err := ticker.AddFunc("* * * * *", func() {
		ctx := context.Background()
		if _, err := engine.Run(ctx); err != nil {
			log.Error().Err(err).Msg("scheduled tick failed")
		}
		if _, err := engine.FireDueActions(ctx, engine.Now()); err != nil {
			log.Error().Err(err).Msg("action pass failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Msg("could not register tick")
	}
	ticker.Start()
	defer ticker.Stop()

	r := gin.Default()
	setupRoutes(r, env, store, redisCache, engine)

	log.Info().Str("address", env.ServerAddress).Msg("listening")
	if err := r.Run(env.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
