package process

import (
	"os"
	"os/exec"
	"testing"

	"github.com/pratham-garg-456/Network-Monitor/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProc_Start_IsAlive(t *testing.T) {
	p, err := startProc(StartConfig{Cmd: "sleep", Args: []string{"10"}}, zap.NewNop())
	require.NoError(t, err)

	defer p.Signal(os.Kill)

	assert.True(t, util.IsProcessAlive(p.pid))
}

func TestProc_Done_ClosedAfterExit(t *testing.T) {
	p, err := startProc(StartConfig{Cmd: "true"}, zap.NewNop())
	require.NoError(t, err)

	<-p.Done()

	assert.NoError(t, p.Err())
	assert.False(t, util.IsProcessAlive(p.pid))
}

func TestProc_ExitsWithFailure_ReturnsError(t *testing.T) {
	p, err := startProc(StartConfig{
		Cmd:  "sh",
		Args: []string{"-c", "exit 1"},
	}, zap.NewNop())
	require.NoError(t, err)

	<-p.Done()

	var exitErr *exec.ExitError
	require.ErrorAs(t, p.Err(), &exitErr)
	assert.Equal(t, 1, exitErr.ExitCode())
}

func TestProc_Signal_AfterExitIsNoop(t *testing.T) {
	p, err := startProc(StartConfig{Cmd: "true"}, zap.NewNop())
	require.NoError(t, err)

	<-p.Done()

	assert.NoError(t, p.Signal(os.Interrupt))
}

func TestGetExitEvent_Success(t *testing.T) {
	evt := getExitEvent(nil)

	require.NotNil(t, evt.Code)
	assert.Equal(t, 0, *evt.Code)
	assert.Nil(t, evt.Signal)
	assert.True(t, evt.Success())
}

func TestGetExitEvent_UnknownErrorIsFailure(t *testing.T) {
	evt := getExitEvent(assert.AnError)

	require.NotNil(t, evt.Code)
	assert.Equal(t, 1, *evt.Code)
	assert.False(t, evt.Success())
}
