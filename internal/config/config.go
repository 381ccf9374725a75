package config

import (
	"time"

	"github.com/creasty/defaults"
)

type Configuration struct {
	Server    Server `mapstructure:"server"`
	Agent     Agent  `mapstructure:"agent"`
	Bus       Bus    `mapstructure:"bus"`
	LogFormat string `mapstructure:"log-format" default:"console"`
	LogLevel  string `mapstructure:"log-level" default:"debug"`
}

type Server struct {
	ServerMode string `mapstructure:"mode" default:"dev"`
	HTTPPort   int    `mapstructure:"http-port" default:"8000"`
}

type Agent struct {
	DataFolder string `mapstructure:"data-folder"`
	Workers    int    `mapstructure:"workers" default:"4"`
	// TestMode disables parent lookups when converting bus messages.
	TestMode bool `mapstructure:"test-mode"`
}

type Bus struct {
	URL            string        `mapstructure:"url" default:"nats://127.0.0.1:4222"`
	ChangeSubject  string        `mapstructure:"change-subject" default:"ASSETS.changes"`
	StreamSubject  string        `mapstructure:"stream-subject" default:"ASSETS.stream"`
	GetIDSubject   string        `mapstructure:"get-id-subject" default:"GET_ID"`
	RequestTimeout time.Duration `mapstructure:"request-timeout" default:"5s"`
	ConnectTimeout time.Duration `mapstructure:"connect-timeout" default:"10s"`
}

// NewConfigurationWithDefaults returns a Configuration with every default applied.
func NewConfigurationWithDefaults() (*Configuration, error) {
	cfg := &Configuration{}
	if err := defaults.Set(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DebugMap returns the configuration as a flat map suitable for structured logging.
func (c *Configuration) DebugMap() map[string]any {
	return map[string]any{
		"server.mode":         c.Server.ServerMode,
		"server.http-port":    c.Server.HTTPPort,
		"agent.data-folder":   c.Agent.DataFolder,
		"agent.workers":       c.Agent.Workers,
		"agent.test-mode":     c.Agent.TestMode,
		"bus.url":             c.Bus.URL,
		"bus.change-subject":  c.Bus.ChangeSubject,
		"bus.stream-subject":  c.Bus.StreamSubject,
		"bus.get-id-subject":  c.Bus.GetIDSubject,
		"bus.request-timeout": c.Bus.RequestTimeout.String(),
		"bus.connect-timeout": c.Bus.ConnectTimeout.String(),
		"log-format":          c.LogFormat,
		"log-level":           c.LogLevel,
	}
}
