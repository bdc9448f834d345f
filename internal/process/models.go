package process

import (
	"errors"
	"io"
	"time"
)

var (
	ErrInvalidCommand       = errors.New("no command given")
	ErrWaitTimeout          = errors.New("wait timeout")
	ErrWorkerNotStarted     = errors.New("worker not started")
	ErrWorkerAlreadyStarted = errors.New("worker already started")
)

type StartConfig struct {
	// Cmd is the path or name of the binary to execute
	Cmd string `conf:"cmd"`

	// Cwd is the working directory in which
	// the binary should be executed
	Cwd string `conf:"cwd"`

	// Args is the list of arguments to pass to the command
	Args []string `conf:"args"`

	// Env is a map of environment variables to set in addition
	// to the environment inherited from the current process
	Env map[string]string `conf:"env"`

	// Stdout receives the standard output of the process.
	// It is discarded if nil.
	Stdout io.Writer `conf:"-"`

	// Stderr receives the standard error of the process.
	// It is discarded if nil.
	Stderr io.Writer `conf:"-"`
}

type StopConfig struct {
	// AckTimeout is the duration to wait for a worker to
	// acknowledge a shutdown request. Zero means no wait.
	AckTimeout time.Duration `conf:"ack_timeout"`

	// WaitTimeout is the duration to wait for the worker to
	// exit after it was interrupted. Zero waits indefinitely.
	WaitTimeout time.Duration `conf:"wait_timeout"`
}

type ExitEvent struct {
	// Code is the exit code of the process
	Code *int

	// Signal is the signal that caused the process to exit
	Signal *int
}

// Success reports whether the process exited with status 0.
func (e ExitEvent) Success() bool {
	return e.Code != nil && *e.Code == 0
}
