// Package config loads the coordinator's startup configuration from a
// YAML file. Validation failures are fatal at startup; the process
// never starts serving with an invalid config; so callers should
// treat any error from Load as a reason to log and os.Exit, never a
// recoverable condition.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sritchie73/bad-boyz-cluster/pkg/grid"
	"github.com/sritchie73/bad-boyz-cluster/pkg/walltime"
)

// Role names the three flat HTTP Basic roles the coordinator knows.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
	RoleNode   Role = "node"
)

// Credential is one HTTP Basic username/password principal. A role may
// list more than one.
type Credential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// QueueOverride lets an operator override one typed queue's target
// proportion and max wall time without recompiling; zero-value fields
// fall back to the built-in defaults.
type QueueOverride struct {
	TargetProportion *float64 `yaml:"target_proportion,omitempty"`
	MaxWallTime      *string  `yaml:"max_wall_time,omitempty"`
}

// Config is the coordinator's complete startup configuration.
type Config struct {
	BindAddress        string                          `yaml:"bind_address"`
	MetricsBindAddress string                          `yaml:"metrics_bind_address"`
	JobsRoot           string                          `yaml:"jobs_root"`
	SchedulerStrategy  string                          `yaml:"scheduler_strategy"`
	NodeTimeoutSeconds int                             `yaml:"node_timeout_seconds"`
	AllocatorInterval  string                          `yaml:"allocator_interval"`
	LogLevel           string                          `yaml:"log_level"`
	LogJSON            bool                            `yaml:"log_json"`
	Roles              map[Role][]Credential           `yaml:"roles"`
	Queues             map[grid.JobType]QueueOverride  `yaml:"queues"`
}

// Default returns a Config with every field at its built-in default
// except Roles, which has no safe default and must always come from
// the file.
func Default() Config {
	return Config{
		BindAddress:        ":8080",
		MetricsBindAddress: ":9090",
		JobsRoot:           "www/jobs",
		SchedulerStrategy:  "FCFS",
		NodeTimeoutSeconds: grid.NodeTimeoutSeconds,
		AllocatorInterval:  "2s",
		LogLevel:           "info",
		LogJSON:            false,
	}
}

// Load reads and validates a config file at path, starting from
// Default() so an operator's YAML only needs to name what it
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the startup invariants: every role has at least
// one credential, and no two roles share the same username/password
// pair (which would make role resolution ambiguous; a request
// authenticating with that pair could be either role, and auth assumes
// it's never both).
func (c Config) Validate() error {
	for _, role := range []Role{RoleAdmin, RoleClient, RoleNode} {
		if len(c.Roles[role]) == 0 {
			return fmt.Errorf("role %q has no configured credentials", role)
		}
	}

	seen := make(map[string]Role)
	for role, creds := range c.Roles {
		for _, cred := range creds {
			key := cred.Username + ":" + cred.Password
			if other, ok := seen[key]; ok && other != role {
				return fmt.Errorf("credential %q is configured for both role %q and %q", cred.Username, other, role)
			}
			seen[key] = role
		}
	}

	if _, err := c.RegistryConfig(); err != nil {
		return err
	}
	if _, err := c.AllocatorIntervalDuration(); err != nil {
		return fmt.Errorf("invalid allocator_interval %q: %w", c.AllocatorInterval, err)
	}

	return nil
}

// ResolveRole returns the role a username/password pair authenticates
// as, for the HTTP Basic auth middleware (C13).
func (c Config) ResolveRole(username, password string) (Role, bool) {
	for _, role := range []Role{RoleAdmin, RoleClient, RoleNode} {
		for _, cred := range c.Roles[role] {
			if cred.Username == username && cred.Password == password {
				return role, true
			}
		}
	}
	return "", false
}

// defaultQueueDefs is the standard typed-queue table, used to fill in
// whatever an operator's Queues overrides leave unset.
var defaultQueueDefs = map[grid.JobType]grid.TypedQueue{
	grid.JobTypeDefault: {TargetProportion: 0.5, MaxWallTime: 7 * 24 * 3600},
	grid.JobTypeBatch:   {TargetProportion: 0.3, MaxWallTime: -1},
	grid.JobTypeFast:    {TargetProportion: 0.2, MaxWallTime: 3600},
}

// RegistryConfig translates the YAML queue overrides into the typed
// grid.RegistryConfig the Grid constructor expects, parsing any
// max_wall_time override with the same DD:HH:MM:SS grammar job
// submissions use.
func (c Config) RegistryConfig() (grid.RegistryConfig, error) {
	queues := make(map[grid.JobType]*grid.TypedQueue, len(defaultQueueDefs))
	for t, def := range defaultQueueDefs {
		q := def
		queues[t] = &q
	}

	for t, override := range c.Queues {
		q, ok := queues[t]
		if !ok {
			return grid.RegistryConfig{}, fmt.Errorf("unknown job type %q in queues config", t)
		}
		if override.TargetProportion != nil {
			q.TargetProportion = *override.TargetProportion
		}
		if override.MaxWallTime != nil {
			wt, err := walltime.Parse(*override.MaxWallTime)
			if err != nil {
				return grid.RegistryConfig{}, fmt.Errorf("queues.%s.max_wall_time: %w", t, err)
			}
			q.MaxWallTime = wt.TotalSeconds()
		}
	}

	return grid.RegistryConfig{
		NodeTimeoutSeconds: c.NodeTimeoutSeconds,
		Queues:             queues,
	}, nil
}

// AllocatorIntervalDuration parses AllocatorInterval with
// time.ParseDuration, falling back to scheduler.DefaultInterval's
// value (2s) only when it is unset; a value that does not parse is
// returned as the ParseDuration error.
func (c Config) AllocatorIntervalDuration() (time.Duration, error) {
	if c.AllocatorInterval == "" {
		return 2 * time.Second, nil
	}
	return time.ParseDuration(c.AllocatorInterval)
}
