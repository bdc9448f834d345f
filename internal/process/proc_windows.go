package process

import (
	"os"
	"os/exec"
)

// interruptSignal is delivered by Interrupt. Windows cannot deliver an
// interrupt to another process, so the worker is killed instead.
var interruptSignal os.Signal = os.Kill

func initCmd(cmd *exec.Cmd) {
	// No-op on Windows.
}
