// Package handlers contains the HTTP handlers of the autopage API: page
// read/write/history, the audit event log and health.
//
// Handlers report failures through foundation/errors so that the
// HTTPErrorAdapter chooses the status code, and encode bodies from the
// server/responses package.
package handlers
