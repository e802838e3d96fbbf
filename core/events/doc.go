// Package events defines the search lifecycle events emitted on the event bus.
//
// Available event types:
//   - SearchStarted: a request passed validation and enumeration begins
//   - SearchCompleted: enumeration finished, was truncated or was cancelled
//   - RequestRejected: a request failed validation and never reached the search
package events
