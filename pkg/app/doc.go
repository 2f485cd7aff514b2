// Package app is the session controller of the playground.
//
// A Controller starts engine initialization in the background, resolves the
// page's deep link once, and turns each data file pick into an execution of
// the current pattern source. Every execution clears the console feed and
// renders the new output; failures of the engine bridge itself show up as
// [ERROR] lines in the same feed. Runs are recorded in the session history
// when one is configured.
package app
