// Package events defines the batch events emitted on the event bus.
//
// Available event types:
//   - SubsetEvent: one subset started, solved, skipped or failed
//   - BatchEvent: batch start and completion with running counts
package events
