// Package job implements the asynchronous bulk import/export pipeline:
// the AsyncJob record and its state machine, lock-free progress snapshots
// for concurrent pollers, the duplicate-resolution policy, the row-by-row
// coordinator with cooperative cancellation and deadline handling, and the
// queue plus worker runner that executes jobs in the background.
package job
