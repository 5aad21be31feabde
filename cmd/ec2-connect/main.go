// Package main is the entry point for the ec2-connect binary.
//
// ec2-connect finds an EC2 instance by its Name tag, starts it, waits until it
// is running and opens an interactive ssh session to its fresh public IP,
// optionally creating or attaching a tmux session on the remote host.
//
// Usage:
//
//	ec2-connect --name build-box                  # plain shell
//	ec2-connect --name build-box --tmux new       # new tmux session se_<h>_<m>
//	ec2-connect --name build-box --tmux se_14_7   # attach to an existing session
//	ec2-connect doctor --name build-box           # check prerequisites
//
// The CLI is constructed in internal/cli. This file wires process signals to
// the command context and turns the result into an exit status.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/treykane/ec2-connect/internal/cli"
)

func main() {
	// An interrupt cancels in-flight AWS calls and the running waiter. An
	// instance that was already started stays running.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Execute(ctx)
	stop()
	os.Exit(code)
}
