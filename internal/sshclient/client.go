// Package sshclient launches interactive sessions through the system ssh
// binary.
//
// This package does NOT implement the SSH protocol itself. It shells out to
// "ssh", which means it inherits the user's full SSH configuration (keys,
// agents, ProxyJump chains, etc.) without reimplementing any of that logic.
// The instance name is passed as the destination so that a matching Host
// block in ~/.ssh/config applies, while HostName is overridden with the
// instance's current public address.
//
// All arguments are passed via exec.Command's argv (not via local shell
// interpolation). The optional remote command is a single argv element that
// the remote login shell interprets; internal/session quotes it.
package sshclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/treykane/ec2-connect/internal/util"
)

// ErrNoAddress is returned when the target has no address to connect to,
// e.g. a running instance without a public IP.
var ErrNoAddress = errors.New("instance has no public IP address")

// RemoteCommandError reports a non-zero ssh exit. Login failures, refused
// connections and a failing remote command all surface the same way.
type RemoteCommandError struct {
	ExitCode int
	Err      error
}

func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("ssh exited with status %d", e.ExitCode)
}

func (e *RemoteCommandError) Unwrap() error { return e.Err }

// Target describes one interactive login.
type Target struct {
	// Alias is the ssh destination, matched against Host blocks in ~/.ssh/config.
	Alias string
	// Address overrides HostName.
	Address string
	User    string
	// RemoteCommand runs instead of the login shell when non-empty.
	RemoteCommand string
}

// Client manages SSH operations by creating and launching SSH processes.
//
// The zero value is not useful; use New() to create a Client instance.
type Client struct {
	binary string

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// New creates a new SSH client running binary ("ssh" when empty) with the
// process's standard streams.
func New(binary string) *Client {
	return &Client{
		binary: util.DefaultString(binary, util.DefaultSSHBinary),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Binary returns the ssh executable the client runs.
func (c *Client) Binary() string { return c.binary }

// EnsureSSHBinary checks that binary is available on the system PATH (or is
// an executable path).
//
// This should be called before any cloud calls so a missing client fails the
// run before an instance is started.
func EnsureSSHBinary(binary string) error {
	binary = util.DefaultString(binary, util.DefaultSSHBinary)
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%s binary not found in PATH", binary)
	}
	return nil
}

// BuildConnectArgs constructs the ssh arguments for t without starting a
// process.
//
// Example output: ["-t", "build-box", "-o", "HostName=3.90.1.2", "-o", "User=ubuntu", "tmux new -s se_14_7"]
func (c *Client) BuildConnectArgs(t Target) []string {
	args := []string{
		"-t",
		t.Alias,
		"-o", "HostName=" + t.Address,
		"-o", "User=" + t.User,
	}
	if strings.TrimSpace(t.RemoteCommand) != "" {
		args = append(args, t.RemoteCommand)
	}
	return args
}

// ConnectCommand creates the exec.Cmd for t. Cancelling ctx kills ssh.
func (c *Client) ConnectCommand(ctx context.Context, t Target) *exec.Cmd {
	return exec.CommandContext(ctx, c.binary, c.BuildConnectArgs(t)...)
}

// RunInteractive runs an interactive ssh session and blocks until it ends.
//
// When stdin is a terminal, ssh gets its own pseudo-terminal, the local
// terminal is switched to raw mode for the duration of the session and window
// resizes are forwarded. Otherwise ssh simply inherits the standard streams.
//
// A non-zero ssh exit is returned as *RemoteCommandError.
func (c *Client) RunInteractive(ctx context.Context, t Target) error {
	if strings.TrimSpace(t.Address) == "" {
		return ErrNoAddress
	}
	cmd := c.ConnectCommand(ctx, t)
	slog.Debug("spawning ssh", "binary", c.binary, "args", cmd.Args[1:])

	var err error
	if c.Stdin != nil && term.IsTerminal(c.Stdin.Fd()) {
		err = c.runPTY(cmd)
	} else {
		cmd.Stdin, cmd.Stdout, cmd.Stderr = c.Stdin, c.Stdout, c.Stderr
		err = cmd.Run()
	}
	return exitError(err)
}

func exitError(err error) error {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &RemoteCommandError{ExitCode: ee.ExitCode(), Err: err}
	}
	return err
}
