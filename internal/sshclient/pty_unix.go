//go:build !windows

package sshclient

import (
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/x/term"
	"github.com/creack/pty"
)

// runPTY starts cmd inside a pseudo-terminal and wires it to the client's
// terminal until the process exits.
func (c *Client) runPTY(cmd *exec.Cmd) error {
	f, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer f.Close()

	// Keep the PTY size in sync with the local terminal.
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go func() {
		for range winch {
			_ = pty.InheritSize(c.Stdin, f)
		}
	}()
	winch <- syscall.SIGWINCH
	defer func() {
		signal.Stop(winch)
		close(winch)
	}()

	fd := c.Stdin.Fd()
	if state, err := term.MakeRaw(fd); err == nil {
		defer func() { _ = term.Restore(fd, state) }()
	}

	// The stdin copy ends with the process: the next write to the closed PTY
	// fails.
	go func() {
		_, _ = io.Copy(f, c.Stdin)
	}()

	// Blocks until ssh exits and the PTY master returns EOF.
	_, _ = io.Copy(c.Stdout, f)

	return cmd.Wait()
}
