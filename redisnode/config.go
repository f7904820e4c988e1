package redisnode

import "time"

// Mode selects the go-redis client topology, following the teacher's
// redis.Mode. A Redlock deployment is free to point one Adapter at a
// standalone server and another at a cluster or sentinel deployment — each
// Adapter is still exactly one independent master as far as the DLM core
// is concerned.
type Mode int

const (
	// ModeStandalone is a single Redis server.
	ModeStandalone Mode = iota
	// ModeCluster is a Redis cluster.
	ModeCluster
	// ModeSentinel is Redis with Sentinel for automatic failover.
	ModeSentinel
)

func (m Mode) String() string {
	switch m {
	case ModeCluster:
		return "cluster"
	case ModeSentinel:
		return "sentinel"
	default:
		return "standalone"
	}
}

// Default connection pool values, mirroring the teacher's
// redis.DefaultPoolSize and friends.
const (
	DefaultPoolSize        = 10
	DefaultMinIdleConns    = 2
	DefaultConnMaxLifetime = 30 * time.Minute
	DefaultConnMaxIdleTime = 10 * time.Minute
	DefaultDialTimeout     = 5 * time.Second
	DefaultReadTimeout     = 3 * time.Second
	DefaultWriteTimeout    = 3 * time.Second
)

// ClientConfig describes how NewWithConfig builds its go-redis client.
// It exists alongside NewFromClient so callers who don't already manage
// their own redis.UniversalClient can still reach cluster/sentinel
// deployments and pool tuning without hand-building go-redis options.
type ClientConfig struct {
	// Addresses is host:port for standalone mode, or the member/sentinel
	// list for cluster/sentinel modes.
	Addresses []string
	Password  string
	DB        int

	PoolSize        int
	MinIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration

	Mode       Mode
	MasterName string // required for ModeSentinel
}

// DefaultClientConfig returns a ClientConfig with sensible defaults for a
// single standalone server at addr.
func DefaultClientConfig(addr string) ClientConfig {
	return ClientConfig{
		Addresses:       []string{addr},
		PoolSize:        DefaultPoolSize,
		MinIdleConns:    DefaultMinIdleConns,
		ConnMaxLifetime: DefaultConnMaxLifetime,
		ConnMaxIdleTime: DefaultConnMaxIdleTime,
		DialTimeout:     DefaultDialTimeout,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		Mode:            ModeStandalone,
	}
}
