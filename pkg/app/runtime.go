package app

import (
	"fmt"
	"log/slog"

	"patternweb/playground/pkg/config"
	"patternweb/playground/pkg/engine"
	"patternweb/playground/pkg/engine/lua"
	"patternweb/playground/pkg/engine/wasm"
)

// NewRuntime creates the engine runtime selected by cfg.Backend.
func NewRuntime(cfg config.EngineConfig, logger *slog.Logger) (engine.Runtime, error) {
	switch cfg.Backend {
	case "wasm":
		return wasm.New(wasm.Options{
			ModulePath:       cfg.WASM.ModulePath,
			SourcesDir:       cfg.WASM.SourcesDir,
			MemoryLimitPages: cfg.WASM.MemoryLimitPages,
			Logger:           logger,
		}), nil
	case "lua", "":
		return lua.New(lua.Options{
			HeapSize:         uint32(cfg.Lua.HeapSize),
			ExecutionTimeout: cfg.Lua.ExecutionTimeout,
			Logger:           logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}
