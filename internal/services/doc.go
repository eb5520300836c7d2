// Package services defines shared utilities consumed by the workflows and the
// engine client.
//
// Key responsibilities:
//   - Context helpers that stamp the workflow name and a per-invocation run ID
//     for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is without parsing messages.
package services
