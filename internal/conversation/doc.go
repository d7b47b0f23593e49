// Package conversation demultiplexes the single inbound update stream into
// independent per-chat mailboxes, each offering a blocking FIFO read.
package conversation
