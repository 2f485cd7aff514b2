// Package config provides configuration management for the pattern playground.
//
// Configuration is read from a YAML file, decoded on top of the defaults,
// overridden by environment variables and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("playground.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PLAYGROUND_SECTION_FIELD.
// For example:
//
//   - PLAYGROUND_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - PLAYGROUND_ENGINE_BACKEND overrides engine.backend
//   - PLAYGROUND_SOURCE_GIST_TOKEN overrides source.gist.token
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file (a missing file is treated as empty)
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example
//
//	server:
//	  listen_address: "127.0.0.1:8080"
//	engine:
//	  backend: "wasm"
//	  wasm:
//	    module_path: "./plwasm.wasm"
//	    sources_dir: "./sources"
//	source:
//	  gist:
//	    transport: "api"
//	  pattern_file: "./pattern.pat"
//	  watch: true
//	history:
//	  backend: "sqlite"
//	  max_records: 500
//	  prune_schedule: "@every 10m"
//	telemetry:
//	  logging:
//	    level: "debug"
//	    format: "text"
package config
