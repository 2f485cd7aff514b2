// Package server is the HTTP front end of the playground.
//
// It serves the page (editor, file picker, console) and a small JSON API:
//
//	GET  /               page; the first load resolves ?gist= or ?code=
//	POST /api/file       multipart data file pick, runs the current source
//	GET  /api/source     current pattern source
//	PUT  /api/source     replace the source from the editor
//	POST /api/run        run again against the loaded data
//	GET  /api/console    console lines (JSON, or HTML with ?format=html)
//	GET  /api/state      label, source origin, engine readiness
//	GET  /api/runs       run history, newest first (?limit=)
//
// Health, readiness, version and Prometheus metrics are served alongside.
// Engine failures during a run are part of the run payload, not HTTP errors.
package server
