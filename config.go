package session

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// EnvConfig is the environment-driven Config implementation.
type EnvConfig struct {
	BaseURL              string        `env:"GIGZY_API_URL,         default=http://localhost:3001/gigzy"`
	HTTPTimeout          time.Duration `env:"GIGZY_HTTP_TIMEOUT,    default=15s"`
	LoginRoute           string        `env:"GIGZY_LOGIN_ROUTE,     default=/login"`
	RejectedRouteKey     string        `env:"GIGZY_REJECTED_ROUTE_KEY, default=rejected_route"`
	RejectedRouteDefault string        `env:"GIGZY_REJECTED_ROUTE_DEFAULT, default=/"`
}

var _ Config = &EnvConfig{}

// LoadConfig reads configuration from environment variables.
func LoadConfig(ctx context.Context) (*EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *EnvConfig) GetBaseURL() string              { return c.BaseURL }
func (c *EnvConfig) GetHTTPTimeout() time.Duration   { return c.HTTPTimeout }
func (c *EnvConfig) GetLoginRoute() string           { return c.LoginRoute }
func (c *EnvConfig) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c *EnvConfig) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }
