package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Worker is a handle to a spawned child process: it can be started,
// signalled and waited for.
type Worker interface {
	// Start spawns the process.
	Start(context.Context) error

	// Interrupt asks the process to exit. It returns without waiting.
	Interrupt() error

	// Kill forcefully stops the process. It returns without waiting.
	Kill() error

	// Wait blocks until the process exits or the context is done.
	Wait(context.Context) (ExitEvent, error)

	// WaitFor is Wait with an optional timeout. A zero timeout waits
	// indefinitely.
	WaitFor(context.Context, time.Duration) (ExitEvent, error)

	// Pid returns the process id, or 0 if the process was never started.
	Pid() int
}

// Factory creates a worker that is bound to the lifetime of ctx.
type Factory func(context.Context, StartConfig, *zap.Logger) Worker

// DefaultFactory creates process-backed workers.
func DefaultFactory(ctx context.Context, config StartConfig, log *zap.Logger) Worker {
	return NewProcessWorker(ctx, config, log)
}

type ProcessWorker struct {
	ctx    context.Context
	config StartConfig

	processLock sync.Mutex
	process     *proc

	exited    chan struct{}
	exitEvent ExitEvent

	log *zap.Logger
}

var _ Worker = (*ProcessWorker)(nil)

// NewProcessWorker creates a worker for the given command. The process
// is killed if ctx is cancelled while it is still running.
func NewProcessWorker(
	ctx context.Context,
	config StartConfig,
	log *zap.Logger,
) *ProcessWorker {
	return &ProcessWorker{
		ctx:    ctx,
		config: config,
		exited: make(chan struct{}),
		log:    log.Named("worker"),
	}
}

// Start starts the worker process.
func (w *ProcessWorker) Start(ctx context.Context) error {
	w.log.With(
		zap.String("command", w.config.Cmd),
		zap.Strings("args", w.config.Args),
		zap.String("cwd", w.config.Cwd),
	).Debug("starting worker process")

	// synchronize access to the process
	w.processLock.Lock()
	defer w.processLock.Unlock()

	// return if the worker is already started
	if w.process != nil {
		return ErrWorkerAlreadyStarted
	}

	// exit early if the context is already cancelled
	if ctx.Err() != nil {
		return fmt.Errorf("failed to start process: %w", ctx.Err())
	}

	process, err := startProc(w.config, w.log)
	if err != nil {
		return fmt.Errorf("failed to start process: %w", err)
	}

	w.process = process

	// wait for the process to terminate and record the exit event
	go func() {
		<-process.Done()

		w.exitEvent = getExitEvent(process.Err())
		close(w.exited)

		w.log.Debug("worker process exited",
			zap.Int("pid", process.pid),
			zap.Any("code", w.exitEvent.Code),
			zap.Any("signal", w.exitEvent.Signal),
		)
	}()

	// kill the process without further ado once the
	// context the worker is bound to is cancelled
	go func() {
		select {
		case <-process.Done():
			// the process has terminated, do nothing
		case <-w.ctx.Done():
			if err := process.Signal(os.Kill); err != nil {
				w.log.Error("kill failed", zap.Error(err))
			}
		}
	}()

	return nil
}

// Interrupt sends an interrupt to the worker process to request it to
// stop. The method returns immediately, without waiting for the process.
func (w *ProcessWorker) Interrupt() error {
	if process := w.acquireProcess(); process != nil {
		return process.Signal(interruptSignal)
	}

	return ErrWorkerNotStarted
}

// Kill sends a SIGKILL to the worker process. The method returns
// immediately, without waiting for the process to stop.
func (w *ProcessWorker) Kill() error {
	if process := w.acquireProcess(); process != nil {
		return process.Signal(os.Kill)
	}

	return ErrWorkerNotStarted
}

// Wait blocks until the process exits. If the process is already
// terminated, the method returns its exit event immediately. It may be
// called any number of times.
func (w *ProcessWorker) Wait(ctx context.Context) (ExitEvent, error) {
	if w.acquireProcess() == nil {
		return ExitEvent{}, ErrWorkerNotStarted
	}

	select {
	case <-w.exited:
		return w.exitEvent, nil
	case <-ctx.Done():
		return ExitEvent{}, ctx.Err()
	}
}

// WaitFor waits for the worker process to exit, for at most timeout.
func (w *ProcessWorker) WaitFor(
	ctx context.Context,
	timeout time.Duration,
) (ExitEvent, error) {
	if timeout <= 0 {
		return w.Wait(ctx)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	evt, err := w.Wait(waitCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return evt, ErrWaitTimeout
	}

	return evt, err
}

func (w *ProcessWorker) Pid() int {
	if process := w.acquireProcess(); process != nil {
		return process.pid
	}

	return 0
}

// acquireProcess returns the worker process. The method is thread-safe.
func (w *ProcessWorker) acquireProcess() *proc {
	w.processLock.Lock()
	defer w.processLock.Unlock()

	return w.process
}

// MARK: - Helpers

func getExitEvent(err error) ExitEvent {
	var cell int
	var exitStatus *int
	var signo *int

	if err == nil {
		// the process exited successfully, set the exit code to 0
		exitStatus = &cell
	} else if exitError, ok := err.(*exec.ExitError); ok {
		// the process exited with an error
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				// the process was terminated by a signal
				cell = int(status.Signal())
				signo = &cell
			} else {
				cell = status.ExitStatus()
				exitStatus = &cell
			}
		}
	}

	if signo == nil && exitStatus == nil {
		// could not determine the exit status or signal,
		// set exit status to 1
		cell = 1
		exitStatus = &cell
	}

	return ExitEvent{
		Code:   exitStatus,
		Signal: signo,
	}
}
