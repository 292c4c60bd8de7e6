package main

import (
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"auctionhub/api"
)

func ParseArgs() (Args, error) {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")
	pflag.String("id", "", "instance id, used as consumer name")
	pflag.String("log-level", "info", "debug, info, warn or error")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "", "")

	// redis config
	pflag.String("redis-addr", "", "")
	pflag.String("redis-password", "", "")
	pflag.Int("redis-db", 15, "")
	pflag.String("redis-key-prefix", "auctionhub:", "")
	pflag.String("redis-consumer-group", "auctionhub-notification", "")
	pflag.Duration("redis-snapshot-ttl", 0, "0 uses the default")

	// redis stream keys
	pflag.String("redis-stream-key-for-sse", "auctionhub-shared-sse-stream", "")
	pflag.String("redis-stream-key-for-notification", "auctionhub-notification-stream", "")

	// auth config
	pflag.String("auth-public-key-file", "", "PEM encoded ed25519 public key")
	pflag.String("auth-issuer", "", "")
	pflag.String("auth-audience", "", "")

	// engine config
	pflag.String("engine-locker", string(api.LockerRedis), "local or redis")
	pflag.Duration("engine-lock-timeout", 0, "")
	pflag.Duration("engine-commit-timeout", 0, "")
	pflag.Duration("engine-sweep-interval", 0, "")
	pflag.Duration("engine-sweep-grace", 0, "")
	pflag.Duration("engine-keep-alive", 0, "")

	// bind pflag to viper
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return Args{}, err
	}
	viper.AutomaticEnv()
	viper.SetEnvPrefix("Q4")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	var publicKey ed25519.PublicKey
	if path := viper.GetString("auth-public-key-file"); path != "" {
		key, err := loadPublicKey(path)
		if err != nil {
			return Args{}, err
		}
		publicKey = key
	}

	id := viper.GetString("id")
	if id == "" {
		id, _ = os.Hostname()
	}

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		LogLevel:  viper.GetString("log-level"),
		ServerConfig: api.ServerConfig{
			ID: id,
			DB: api.DBConfig{
				User:     viper.GetString("db-user"),
				Password: viper.GetString("db-password"),
				Host:     viper.GetString("db-host"),
				Port:     viper.GetInt("db-port"),
				Database: viper.GetString("db-database"),
				Schema:   viper.GetString("db-schema"),
			},
			Redis: api.RedisConfig{
				Addr:          viper.GetString("redis-addr"),
				Password:      viper.GetString("redis-password"),
				DB:            viper.GetInt("redis-db"),
				KeyPrefix:     viper.GetString("redis-key-prefix"),
				ConsumerGroup: viper.GetString("redis-consumer-group"),
				SnapshotTTL:   viper.GetDuration("redis-snapshot-ttl"),
				StreamKeys: api.RedisStreamKeys{
					SSE:          viper.GetString("redis-stream-key-for-sse"),
					Notification: viper.GetString("redis-stream-key-for-notification"),
				},
			},
			Auth: api.AuthConfig{
				PublicKey: publicKey,
				Issuer:    viper.GetString("auth-issuer"),
				Audience:  viper.GetString("auth-audience"),
			},
			Engine: api.EngineConfig{
				Locker:        api.LockerBackend(viper.GetString("engine-locker")),
				LockTimeout:   viper.GetDuration("engine-lock-timeout"),
				CommitTimeout: viper.GetDuration("engine-commit-timeout"),
				SweepInterval: viper.GetDuration("engine-sweep-interval"),
				SweepGrace:    viper.GetDuration("engine-sweep-grace"),
				KeepAlive:     viper.GetDuration("engine-keep-alive"),
			},
		},
	}, nil
}

func loadPublicKey(path string) (ed25519.PublicKey, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fail to read public key, err=%w", err)
	}
	key, err := jwt.ParseEdPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("fail to parse public key, err=%w", err)
	}
	edKey, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key is not ed25519")
	}
	return edKey, nil
}

type Args struct {
	ServerURL    string
	LogLevel     string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	return args.ServerURL != "" &&
		args.ServerConfig.ID != "" &&
		args.ServerConfig.DB.Host != "" &&
		args.ServerConfig.Redis.Addr != "" &&
		len(args.ServerConfig.Auth.PublicKey) == ed25519.PublicKeySize
}

func (args Args) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(args.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
