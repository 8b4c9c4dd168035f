package config

import "time"

// RedisConfig configures the Progress Registry and Work Queue's shared
// Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoadRedisConfig loads Redis connection settings from environment.
func LoadRedisConfig(prefix string) RedisConfig {
	env := NewEnvConfig(prefix)
	return RedisConfig{
		Addr:     env.GetString("ADDR", "localhost:6379"),
		Password: env.GetString("PASSWORD", ""),
		DB:       env.GetInt("DB", 0),
	}
}

// WorkerConfig controls how many workers the Pool runs against each named
// queue and how long each worker's dequeue blocks.
type WorkerConfig struct {
	DefaultWorkersPerProvider int
	DequeueWait               time.Duration
	AdmissionPollInterval     time.Duration
}

// LoadWorkerConfig loads worker-pool tuning from environment.
func LoadWorkerConfig(prefix string) WorkerConfig {
	env := NewEnvConfig(prefix)
	return WorkerConfig{
		DefaultWorkersPerProvider: env.GetInt("WORKERS_PER_PROVIDER", 1),
		DequeueWait:               env.GetDuration("DEQUEUE_WAIT", 5*time.Second),
		AdmissionPollInterval:     env.GetDuration("ADMISSION_POLL_INTERVAL", 2*time.Second),
	}
}

// AppConfig is the complete configuration surface for the altimpact
// service: ambient server/service/auth/CORS settings plus the Item
// Store (CouchDB), Progress Registry + Work Queue (Redis), worker tuning,
// and the provider roster file path.
type AppConfig struct {
	Server  ServerConfig
	Service ServiceConfig
	Auth    AuthConfig
	CORS    CORSConfig
	Store   DatabaseConfig
	Redis   RedisConfig
	Worker  WorkerConfig
	Roster  RosterConfig
}

// RosterConfig locates the declarative provider-roster file.
type RosterConfig struct {
	Path string
}

// LoadRosterConfig loads the roster file location from environment.
func LoadRosterConfig(prefix string) RosterConfig {
	env := NewEnvConfig(prefix)
	return RosterConfig{Path: env.GetString("ROSTER_PATH", "roster.json")}
}

// LoadAppConfig loads every AppConfig section, each under its own
// prefix-derived environment namespace (e.g. ALTIMPACT_STORE_URL,
// ALTIMPACT_REDIS_ADDR), mirroring this codebase's existing per-concern
// config loader composition.
func LoadAppConfig(prefix string) (*AppConfig, error) {
	cfg := &AppConfig{
		Server:  LoadServerConfig(prefix),
		Service: LoadServiceConfig(prefix),
		Auth:    LoadAuthConfig(prefix + "_AUTH"),
		CORS:    LoadCORSConfig(prefix + "_CORS"),
		Store:   LoadDatabaseConfig(prefix + "_STORE"),
		Redis:   LoadRedisConfig(prefix + "_REDIS"),
		Worker:  LoadWorkerConfig(prefix + "_WORKER"),
		Roster:  LoadRosterConfig(prefix),
	}

	v := NewValidator()
	v.RequireString("Store.Database", cfg.Store.Database)
	v.RequireURL("Store.URL", cfg.Store.URL)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
