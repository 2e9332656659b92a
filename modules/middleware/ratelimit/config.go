package ratelimit

import (
	"time"
)

type KeyStrategyId string

const (
	RemoteIpKeyStrategy KeyStrategyId = "remote_ip"
	ApiKeyKeyStrategy   KeyStrategyId = "api_key"
)

// RestHTTPConfig configures the rate-limit middleware by route pattern.
// examples/petstore/main.go keys routes on the raw request path
// (operationRouteInfo) rather than the engine's operationId, since the
// engine has not routed the request at the point this middleware runs.
// DefaultPolicy.Window falls back to a minute when unset, so an unset
// POLICY_WINDOW env var still produces a usable limiter instead of a
// division that would never deny anything.
type (
	RestHTTPConfig struct {
		Routes              []Route      `envPrefix:"ROUTE_"`
		DefaultPolicy       EndpointRule `envPrefix:"DEFAULT_"`
		AllowIfNoMatch      bool         `env:"ALLOW_IF_NO_MATCH"`
		AllowIfNoIdentifier bool         `env:"ALLOW_IF_NO_ID"`
	}

	// Route matches by exact pattern string against RouteInfo.ID, e.g.
	// "/pets" or "/pets/{petId}" as produced by operationRouteInfo.
	Route struct {
		Pattern       string         `env:"PATTERN"`
		EndpointRules []EndpointRule `envPrefix:"POLICY_"`
	}

	EndpointRule struct {
		Method      string        `env:"METHOD"`
		Limit       int64         `env:"LIMIT" envDefault:"10000"`
		Window      time.Duration `env:"WINDOW" envDefault:"1m"`
		KeyStrategy KeyStrategyId `env:"KEY_STRATEGY" envDefault:"remote_ip"`
	}
)
