// Package gateway runs the long-poll update loop and hands each chat to its
// own handler goroutine as an independent, stateful conversation.
package gateway
