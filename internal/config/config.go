package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/pos/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func MustInit() {
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}
	SetDefaults()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/pos-svc")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

// SetDefaults registers the values used when config.yaml leaves a key out.
func SetDefaults() {
	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.http.read_header_timeout", 5*time.Second)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("postgres.migrations_path", "./migrations")
	viper.SetDefault("settlement.timeout", 10*time.Second)
	viper.SetDefault("printer.timeout", 5*time.Second)
	viper.SetDefault("tax.rate_bps", 0)
	viper.SetDefault("receipt.timezone", "Local")
	viper.SetDefault("rabbitmq.outbox.poll_interval_seconds", 10)
	viper.SetDefault("rabbitmq.outbox.batch_size", 100)
	viper.SetDefault("rabbitmq.outbox.retry_interval_seconds", 30)
	viper.SetDefault("rabbitmq.outbox.max_retries", 5)
}

func SetupLogger() {
	handler := logger.NewHandler(&slog.HandlerOptions{
		Level: logger.ParseLevel(viper.GetString("logger.level")),
	})
	log := slog.New(handler)
	slog.SetDefault(log)
}
