package process_test

import (
	"bytes"
	"context"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/pratham-garg-456/Network-Monitor/internal/process"
	"github.com/pratham-garg-456/Network-Monitor/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// syncBuffer is a bytes.Buffer safe for concurrent use by the
// process output copier and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWorker_Start_IsAlive(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{
		Cmd:  "sleep",
		Args: []string{"10"},
	}, zap.NewNop())

	err := w.Start(context.Background())
	require.NoError(t, err)

	defer w.Kill()

	pid := w.Pid()
	require.NotZero(t, pid, "pid should be set after Start")

	require.Eventually(t, func() bool {
		return util.IsProcessAlive(pid)
	}, 2*time.Second, 10*time.Millisecond, "process never reported alive")
}

func TestWorker_Start_FailsIfStarted(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{
		Cmd:  "sleep",
		Args: []string{"10"},
	}, zap.NewNop())

	err := w.Start(context.Background())
	require.NoError(t, err)

	defer w.Kill()

	err = w.Start(context.Background())
	assert.ErrorIs(t, err, process.ErrWorkerAlreadyStarted)
}

func TestWorker_Start_ReturnsErrorIfInvalidCommand(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{Cmd: ""}, zap.NewNop())

	err := w.Start(context.Background())
	assert.ErrorIs(t, err, process.ErrInvalidCommand)
	assert.Zero(t, w.Pid())
}

func TestWorker_Start_FailsIfContextCancelled(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{Cmd: "true"}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.Start(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_KilledIfBoundContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	w := process.NewProcessWorker(ctx, process.StartConfig{
		Cmd:  "sleep",
		Args: []string{"10"},
	}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	// cancel the worker context
	cancel()

	evt, err := w.WaitFor(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, evt.Signal)
	assert.Equal(t, syscall.SIGKILL, syscall.Signal(*evt.Signal))
	assert.Nil(t, evt.Code)
}

func TestWorker_ForwardsOutput(t *testing.T) {
	var stdout, stderr syncBuffer

	w := process.NewProcessWorker(context.Background(), process.StartConfig{
		Cmd:    "sh",
		Args:   []string{"-c", "echo out; >&2 echo err"},
		Stdout: &stdout,
		Stderr: &stderr,
	}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	evt, err := w.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, evt.Success())

	assert.Equal(t, "out\n", stdout.String())
	assert.Equal(t, "err\n", stderr.String())
}

func TestWorker_PassesEnv(t *testing.T) {
	var stdout syncBuffer

	w := process.NewProcessWorker(context.Background(), process.StartConfig{
		Cmd:    "sh",
		Args:   []string{"-c", "echo $NETMON_TEST"},
		Env:    map[string]string{"NETMON_TEST": "eth0"},
		Stdout: &stdout,
	}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	_, err := w.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "eth0\n", stdout.String())
}

func TestWorker_Wait_ReturnsExitCode(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{
		Cmd:  "sh",
		Args: []string{"-c", "exit 3"},
	}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	evt, err := w.Wait(context.Background())
	require.NoError(t, err)
	require.NotNil(t, evt.Code)
	assert.Equal(t, 3, *evt.Code)
	assert.Nil(t, evt.Signal)
	assert.False(t, evt.Success())
}

func TestWorker_Wait_CanBeCalledRepeatedly(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{Cmd: "true"}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	first, err := w.Wait(context.Background())
	require.NoError(t, err)

	second, err := w.Wait(context.Background())
	require.NoError(t, err)

	assert.Equal(t, *first.Code, *second.Code)
}

func TestWorker_Wait_ReturnsErrorIfNotStarted(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{Cmd: "true"}, zap.NewNop())

	_, err := w.Wait(context.Background())
	assert.ErrorIs(t, err, process.ErrWorkerNotStarted)
}

func TestWorker_Wait_ReturnsErrorIfContextCancelled(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{
		Cmd:  "sleep",
		Args: []string{"10"},
	}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	defer w.Kill()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_WaitFor_ReturnsErrorIfTimeout(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{
		Cmd:  "sleep",
		Args: []string{"10"},
	}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	defer w.Kill()

	_, err := w.WaitFor(context.Background(), 100*time.Millisecond)
	assert.ErrorIs(t, err, process.ErrWaitTimeout)
}

func TestWorker_Interrupt_StopsProcess(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{
		Cmd:  "sleep",
		Args: []string{"10"},
	}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, w.Interrupt())

	evt, err := w.WaitFor(context.Background(), 5*time.Second)
	require.NoError(t, err)

	// the process should have been terminated w/ a sigint
	require.NotNil(t, evt.Signal)
	assert.Equal(t, syscall.SIGINT, syscall.Signal(*evt.Signal))
	assert.Nil(t, evt.Code)

	// the process should not be alive
	assert.False(t, util.IsProcessAlive(w.Pid()))
}

func TestWorker_Interrupt_AfterExitIsNoop(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{Cmd: "true"}, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))

	_, err := w.Wait(context.Background())
	require.NoError(t, err)

	assert.NoError(t, w.Interrupt())
	assert.NoError(t, w.Interrupt())
}

func TestWorker_Interrupt_ReturnsErrorIfNotStarted(t *testing.T) {
	w := process.NewProcessWorker(context.Background(), process.StartConfig{Cmd: "true"}, zap.NewNop())

	assert.ErrorIs(t, w.Interrupt(), process.ErrWorkerNotStarted)
	assert.ErrorIs(t, w.Kill(), process.ErrWorkerNotStarted)
}

func TestDefaultFactory_CreatesProcessWorker(t *testing.T) {
	w := process.DefaultFactory(context.Background(), process.StartConfig{Cmd: "true"}, zap.NewNop())

	_, ok := w.(*process.ProcessWorker)
	assert.True(t, ok)
}
