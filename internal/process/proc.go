package process

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

type proc struct {
	pid         int
	cmd         *exec.Cmd
	termination chan struct{}
	err         error

	log *zap.Logger
}

func startProc(config StartConfig, log *zap.Logger) (*proc, error) {
	if config.Cmd == "" {
		return nil, ErrInvalidCommand
	}

	cmd := exec.Command(config.Cmd, config.Args...)

	if config.Env != nil {
		env := os.Environ()
		for k, v := range config.Env {
			env = append(env, fmt.Sprintf("%s=%s", k, v))
		}
		cmd.Env = env
	}

	if config.Cwd != "" {
		cmd.Dir = config.Cwd
	}

	cmd.Stdin = nil
	cmd.Stdout = orDiscard(config.Stdout)
	cmd.Stderr = orDiscard(config.Stderr)

	initCmd(cmd)

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	process := &proc{
		pid:         cmd.Process.Pid,
		cmd:         cmd,
		termination: make(chan struct{}),
		log:         log.Named("proc").With(zap.Int("pid", cmd.Process.Pid)),
	}

	go func() {
		// block until the process exits, then publish the result
		process.err = cmd.Wait()
		close(process.termination)
	}()

	return process, nil
}

// Done is closed once the process has exited and was reaped.
func (p *proc) Done() <-chan struct{} {
	return p.termination
}

// Err returns the wait error. Only valid after Done is closed.
func (p *proc) Err() error {
	return p.err
}

// Signal delivers sig to the process. Signalling a process that has
// already exited is not an error.
func (p *proc) Signal(sig os.Signal) error {
	select {
	case <-p.termination:
		p.log.Debug("process already terminated")
		return nil
	default:
		// continue
	}

	p.log.Info("sending signal", zap.Stringer("signal", sig))

	err := p.cmd.Process.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}

	return err
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
