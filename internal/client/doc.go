// Package client owns the resilient request layer for the admin backend.
//
// Ownership boundary:
// - operation -> HTTP request construction (verb mapping, headers, payload)
//
// - per-attempt outcome classification and the retry/backoff state machine
//
// - the error taxonomy surfaced to callers
//
// The session token lives in the injected session.Store; this package only
// attaches it to requests and clears it when the backend rejects it. Typed
// operations live in internal/api.
package client
