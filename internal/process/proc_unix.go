//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package process

import (
	"os"
	"os/exec"
	"syscall"
)

// interruptSignal is delivered by Interrupt.
var interruptSignal os.Signal = syscall.SIGINT

func initCmd(cmd *exec.Cmd) {
	// run the child in its own process group, so a terminal interrupt
	// only reaches the parent, which forwards it explicitly
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
