package api

import (
	"crypto/ed25519"
	"time"
)

type ServerConfig struct {
	// ID 是此服務實例的名稱，作為 consumer group 內的 consumer 名稱
	ID     string
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Engine EngineConfig
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string

	StreamKeys    RedisStreamKeys
	ConsumerGroup string
	// SnapshotTTL 是拍賣快照在 Redis 的存活時間
	SnapshotTTL time.Duration
}

type RedisStreamKeys struct {
	SSE          string
	Notification string
}

type AuthConfig struct {
	PublicKey ed25519.PublicKey
	Issuer    string
	Audience  string
}

// LockerBackend 拍賣鎖的實作方式
type LockerBackend string

const (
	LockerLocal LockerBackend = "local"
	LockerRedis LockerBackend = "redis"
)

type EngineConfig struct {
	Locker        LockerBackend
	LockTimeout   time.Duration
	CommitTimeout time.Duration
	SweepInterval time.Duration
	SweepGrace    time.Duration
	// KeepAlive 是 SSE 沒有事件時送出空白訊息的間隔
	KeepAlive time.Duration
}
