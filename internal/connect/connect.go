// Package connect runs the whole workflow: locate the instance, start it,
// locate it again for its fresh public address, then hand the terminal to ssh.
package connect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/treykane/ec2-connect/internal/cloud"
	"github.com/treykane/ec2-connect/internal/config"
	"github.com/treykane/ec2-connect/internal/instance"
	"github.com/treykane/ec2-connect/internal/session"
	"github.com/treykane/ec2-connect/internal/sshclient"
	"github.com/treykane/ec2-connect/internal/ui"
	"github.com/treykane/ec2-connect/internal/util"
)

// Options is the immutable input of one run.
type Options struct {
	Name      string
	Directive session.Directive
}

// Launcher runs the interactive login.
type Launcher interface {
	RunInteractive(ctx context.Context, t sshclient.Target) error
}

// Runner wires the pipeline steps to their collaborators.
type Runner struct {
	Cloud    cloud.Cloud
	Launcher Launcher
	Out      *ui.Reporter
	// ResolveAlias looks up the ssh config entry for the instance name. Nil
	// skips the lookup.
	ResolveAlias func(alias string) (config.Resolution, error)
}

// Run executes locate → start → locate → launch. The first failure aborts the
// run; a started instance is left running.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	before, err := instance.Locate(ctx, r.Cloud, opts.Name, r.Out)
	if err != nil {
		return err
	}
	if err := instance.Start(ctx, r.Cloud, before.ID, r.Out); err != nil {
		return err
	}
	after, err := instance.Locate(ctx, r.Cloud, opts.Name, r.Out)
	if err != nil {
		return err
	}
	if after.ID != before.ID {
		return fmt.Errorf("instance %q changed from id=%s to id=%s while starting", opts.Name, before.ID, after.ID)
	}
	if !after.HasPublicIP() {
		return fmt.Errorf("instance id=%s: %w", after.ID, sshclient.ErrNoAddress)
	}
	r.logAlias(after.Name)

	target := sshclient.Target{
		Alias:         after.Name,
		Address:       after.IP,
		User:          util.RemoteUser,
		RemoteCommand: opts.Directive.RemoteCommand(r.Out.Now()),
	}
	slog.Debug("session directive", "directive", opts.Directive.String(), "remote_command", target.RemoteCommand)
	r.Out.Progress("ssh connect %s ...", after.IP)
	return r.Launcher.RunInteractive(ctx, target)
}

func (r *Runner) logAlias(alias string) {
	if r.ResolveAlias == nil {
		return
	}
	res, err := r.ResolveAlias(alias)
	if err != nil {
		slog.Debug("ssh config lookup failed", "alias", alias, "error", err)
		return
	}
	if !res.Matched {
		slog.Debug("no ssh config Host block for alias", "alias", alias)
		return
	}
	slog.Debug("ssh config applies", "alias", alias, "identity_file", res.Host.IdentityFile, "port", res.Host.Port, "proxy_jump", res.Host.ProxyJump)
}
