package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/meadowline/backend-dairy/internal/config"
	"github.com/meadowline/backend-dairy/internal/obs"
	"github.com/meadowline/backend-dairy/internal/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		asynq.Config{
			Concurrency: envInt("WORKER_CONCURRENCY", 10),
			Queues: map[string]int{
				tasks.QueueCritical: 6,
				tasks.QueueDefault:  3,
			},
		},
	)

	handlers := tasks.Handlers{
		SMS:      logSMS{log: logger},
		Email:    logEmail{log: logger},
		Currency: cfg.Currency,
		Log:      logger,
	}

	logger.Info().Msg("worker starting")
	if err := srv.Run(handlers.Mux()); err != nil {
		logger.Fatal().Err(err).Msg("worker exited unexpectedly")
	}
}

// logSMS writes outgoing messages to the log instead of a gateway. Swap in a
// real provider by implementing common.SMSSender.
type logSMS struct {
	log zerolog.Logger
}

func (s logSMS) Send(to, body string) error {
	s.log.Info().Str("to", to).Str("body", body).Msg("sms dispatched")
	return nil
}

type logEmail struct {
	log zerolog.Logger
}

func (s logEmail) Send(to, subject, html string) error {
	s.log.Info().Str("to", to).Str("subject", subject).Int("bytes", len(html)).Msg("email dispatched")
	return nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
