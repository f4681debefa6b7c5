// Package process runs the external version-control binary and captures
// its output.
//
// The Executor is capture-oriented: every invocation is an independent
// OS process whose stdout, stderr, and exit code are collected into a
// Result. A non-zero exit is a normal Result, not an error; callers
// decide what a given exit code means. The only error conditions are a
// binary that cannot be launched (SpawnError), a cancelled or timed-out
// context, and an invocation issued while the executor is saturated and
// the context expires first.
//
// Transient spawn failures (pipe or file-descriptor exhaustion) are
// retried a bounded number of times. Nothing else is ever retried.
package process
