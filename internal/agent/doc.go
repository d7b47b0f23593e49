// Package agent implements the user-facing booking dialogue: the only caller
// of both the blocking conversation read and the reservation engine.
package agent
