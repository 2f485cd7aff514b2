// Package logging provides structured logging built on log/slog.
//
// # Overview
//
// The package wraps log/slog to provide:
//   - JSON, text and console output formats
//   - Context fields (request_id, run_id, session) added to every record
//     logged with a context carrying them
//   - Masking of gist tokens and authorization values
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//	logger.SetDefault()
//
//	ctx = logging.WithRunID(ctx, runID)
//	slog.InfoContext(ctx, "pattern executed", "lines", 12) // includes run_id
package logging
