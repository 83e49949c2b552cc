// Package rtos provides the fixed-capacity primitives the player tasks talk
// through: a slot pool, a bounded FIFO built on it, a latest-value mailbox,
// an event-flag group, and a kernel with a fixed task table and tick clock.
//
// Nothing in this package allocates after construction except what the Go
// runtime needs for goroutines and timers.
package rtos

import "errors"

var (
	ErrExhausted       = errors.New("rtos: pool exhausted")
	ErrInvalidHandle   = errors.New("rtos: invalid handle")
	ErrInvalidCapacity = errors.New("rtos: capacity must be positive")
	ErrQueueFull       = errors.New("rtos: queue is full")
	ErrTimeout         = errors.New("rtos: timeout")
	ErrKernelStarted   = errors.New("rtos: kernel already started")
	ErrNoTasks         = errors.New("rtos: no tasks to run")
	ErrPriorityTaken   = errors.New("rtos: priority already taken")
)
