package queue

import "errors"

// ErrAlreadyRunning is returned by Run when a worker loop is already active.
var ErrAlreadyRunning = errors.New("queue: worker already running")
