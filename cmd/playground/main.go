// Playground is a browser and terminal front end for the pattern language.
//
// A session holds one embedded engine. Picking a binary data file loads it
// into the engine and runs the current pattern source against it; the
// engine's console output is shown line by line, colored by severity.
// Pattern sources come from the editor, a local file, a gist or a
// base64url-encoded "code" link.
//
// Usage:
//
//	# Serve the browser playground
//	playground serve --config playground.yaml
//
//	# Run a pattern against data files in the terminal
//	playground run --pattern header.pat --data firmware.bin
//
//	# Run a shared gist
//	playground run --gist 0123abcd --data dump.bin
//
//	# Print a shareable link for a pattern file
//	playground share --pattern header.pat
//
//	# Show version information
//	playground version
package main

import "os"

func main() {
	os.Exit(Execute())
}
