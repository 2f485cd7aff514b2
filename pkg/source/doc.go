// Package source acquires the pattern program the engine runs.
//
// A Store holds the one current PatternSource. The Acquirer fills it from a
// gist deep link, a base64url code deep link or the editor, and drives the
// engine when a data file is picked: the data is loaded and the current
// source is executed against it right away. Deep links resolve in the order
// gist, code, none, and at most one strategy runs. Acquisition failures are
// logged and otherwise ignored; the previous source stays current.
//
// Gists are fetched either through the REST API (APIGistFetcher) or by
// cloning the gist repository into memory (GitGistFetcher). FileWatcher
// reloads a pattern file from disk whenever it changes.
package source
