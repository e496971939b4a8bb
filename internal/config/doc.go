// Package config loads eve's configuration.
//
// Configuration lives in a single directory, ~/.config/eve by default or the
// directory given with --config-path. It holds:
//   - config.yaml, the optional settings file described by EveConfig
//   - token.json, the persisted bearer token (see internal/auth.FileStore)
//
// Values are layered: GetDefaultConfig, then config.yaml, then command-line
// flags applied by the caller. LoadConfig validates the merged result.
//
// Example config.yaml:
//
//	server:
//	  host: mdm.example.com
//	  timeout: 45s
//	auth:
//	  defaultTokenLifetime: 30m
//	proxy:
//	  listenAddress: localhost:8003
//	  authRateLimit: 0.5
//	  authBurst: 3
//	logging:
//	  level: debug
//
// ResolveServer decides which API base URL a command talks to.
package config
