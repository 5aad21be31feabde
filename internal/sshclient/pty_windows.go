//go:build windows

package sshclient

import "os/exec"

// runPTY hands the console to ssh directly; Windows OpenSSH allocates its own
// console session.
func (c *Client) runPTY(cmd *exec.Cmd) error {
	cmd.Stdin, cmd.Stdout, cmd.Stderr = c.Stdin, c.Stdout, c.Stderr
	return cmd.Run()
}
