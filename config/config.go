package config

import (
	"maps"

	"github.com/pratham-garg-456/Network-Monitor/internal/admin"
	"github.com/pratham-garg-456/Network-Monitor/internal/agent"
	"github.com/pratham-garg-456/Network-Monitor/internal/events"
	"github.com/pratham-garg-456/Network-Monitor/internal/netif"
	"github.com/pratham-garg-456/Network-Monitor/internal/process"
	"github.com/pratham-garg-456/Network-Monitor/internal/server"
	"github.com/pratham-garg-456/Network-Monitor/internal/supervisor"
	"github.com/pratham-garg-456/Network-Monitor/util/conf"
)

// EnvPrefix is the prefix of env vars that set config keys, e.g.
// NETMON_STOP__ACK_TIMEOUT for stop.ack_timeout.
const EnvPrefix = "NETMON_"

// ListKeys are the config keys holding lists.
var ListKeys = []string{"interfaces", "agent.args"}

type Config struct {
	// LogLevel is the log level for the application
	LogLevel string `conf:"log_level"`

	// LogFormat is the log format for the application
	LogFormat string `conf:"log_format"`

	// Socket is the rendezvous endpoint shared by supervisor and agents
	Socket string `conf:"socket"`

	// Interfaces are the interfaces to monitor. The supervisor prompts
	// for them if empty.
	Interfaces []string `conf:"interfaces"`

	// Agent describes how agents are spawned and what they read
	Agent AgentConfig `conf:"agent"`

	// Stop controls the shutdown of agents
	Stop process.StopConfig `conf:"stop"`

	// Admin is the admin api configuration
	Admin admin.Config `conf:"admin"`

	// Http is the http status server configuration
	Http server.HttpConfig `conf:"http"`

	// Events is the event publishing configuration
	Events events.Config `conf:"events"`
}

type AgentConfig struct {
	process.StartConfig `conf:",squash"`

	// StatsRoot is the directory holding per-interface counters
	StatsRoot string `conf:"stats_root"`
}

var DefaultConfig = conf.DefaultConfig{
	"log_level":         "info",
	"log_format":        "production",
	"socket":            supervisor.DefaultSocket,
	"agent.args":        []string{"agent"},
	"agent.stats_root":  netif.DefaultStatsRoot,
	"stop.ack_timeout":  "2s",
	"stop.wait_timeout": "0s",
	"admin.endpoint":    admin.DefaultEndpoint,
	"http.enabled":      false,
	"http.host":         "localhost",
	"http.port":         8080,
	"http.h2c":          false,
}

// SupervisorConfig derives the supervisor config. If no agent command is
// configured, agents are spawned from executable. Settings agents share
// with the supervisor are passed in their environment.
func (c Config) SupervisorConfig(executable string) supervisor.Config {
	start := c.Agent.StartConfig
	if start.Cmd == "" {
		start.Cmd = executable
	}

	start.Env = maps.Clone(start.Env)
	if start.Env == nil {
		start.Env = make(map[string]string)
	}

	for key, value := range map[string]string{
		"LOG_LEVEL":         c.LogLevel,
		"LOG_FORMAT":        c.LogFormat,
		"AGENT__STATS_ROOT": c.Agent.StatsRoot,
	} {
		if _, ok := start.Env[EnvPrefix+key]; !ok && value != "" {
			start.Env[EnvPrefix+key] = value
		}
	}

	return supervisor.Config{
		Socket: c.Socket,
		Agent:  start,
		Stop:   c.Stop,
	}
}

// AgentConfig derives the config of the agent monitoring iface.
func (c Config) AgentConfig(iface string) agent.Config {
	return agent.Config{
		Interface: iface,
		Socket:    c.Socket,
		StatsRoot: c.Agent.StatsRoot,
	}
}
