// Package util provides common utility functions and constants used across the
// ec2-connect application. This package is intentionally kept dependency-free
// (no imports from other internal/* packages) to serve as a shared foundation
// without introducing circular dependencies.
package util

import "time"

const (
	// RemoteUser is the login user for every ssh session. The images this tool
	// targets all ship with the "ubuntu" account and it is not configurable.
	// Used by: internal/connect (Runner.Run).
	RemoteUser = "ubuntu"

	// InstanceRunningMaxWait bounds how long the start step blocks on the EC2
	// instance-running waiter. It matches the stock waiter policy of 40 polls
	// at 15 second intervals.
	// Used by: internal/cloud (EC2.StartAndWait).
	InstanceRunningMaxWait = 10 * time.Minute

	// NewSessionPrefix prefixes tmux session names generated for "--tmux new".
	// Used by: internal/session (SessionName).
	NewSessionPrefix = "se"

	// ClockLayout is the timestamp format of operator progress messages.
	ClockLayout = "15:04:05"

	// DefaultSSHBinary is the ssh executable looked up on PATH when the config
	// file does not name one.
	DefaultSSHBinary = "ssh"
)
