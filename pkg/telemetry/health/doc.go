// Package health provides liveness and readiness endpoints.
//
// The playground registers one readiness check per component that must be
// up before a session is useful, most importantly the engine's readiness
// gate:
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("engine", health.ReadyFlag(bridge.Ready, bridge.InitErr))
//	health.Register(mux, checker, version, commit, buildTime)
package health
