// Package cli provides the command-line interface for ec2-connect.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/treykane/ec2-connect/internal/appconfig"
	"github.com/treykane/ec2-connect/internal/cloud"
	"github.com/treykane/ec2-connect/internal/config"
	"github.com/treykane/ec2-connect/internal/connect"
	"github.com/treykane/ec2-connect/internal/doctor"
	"github.com/treykane/ec2-connect/internal/security"
	"github.com/treykane/ec2-connect/internal/session"
	"github.com/treykane/ec2-connect/internal/sshclient"
	"github.com/treykane/ec2-connect/internal/ui"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=...".
var Version = "dev"

// cloudClient is what the commands need from the cloud adapter.
type cloudClient interface {
	cloud.Cloud
	doctor.IdentityClient
}

type deps struct {
	loadConfig   func() (appconfig.Config, error)
	newCloud     func(ctx context.Context, opts cloud.Options) (cloudClient, error)
	newLauncher  func(binary string) connect.Launcher
	ensureSSH    func(binary string) error
	resolveAlias func(alias string) (config.Resolution, error)
	stdout       io.Writer
	stderr       io.Writer
	now          func() time.Time
}

func defaultDeps() deps {
	return deps{
		loadConfig: appconfig.Load,
		newCloud: func(ctx context.Context, opts cloud.Options) (cloudClient, error) {
			c, err := cloud.NewEC2(ctx, opts)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		newLauncher:  func(binary string) connect.Launcher { return sshclient.New(binary) },
		ensureSSH:    sshclient.EnsureSSHBinary,
		resolveAlias: config.ResolveDefault,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		now:          time.Now,
	}
}

type app struct {
	deps deps
	cfg  appconfig.Config

	region  string
	profile string
	verbose bool
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	return newApp(defaultDeps()).rootCommand()
}

// Execute runs the CLI and reports a failure on stderr. It returns the process
// exit code.
func Execute(ctx context.Context) int {
	a := newApp(defaultDeps())
	if err := a.rootCommand().ExecuteContext(ctx); err != nil {
		slog.Debug("command failed", "detail", security.DebugMessage(err))
		fmt.Fprintln(a.deps.stderr, "error:", security.UserMessage(err, a.cfg.RedactErrors))
		return 1
	}
	return 0
}

func newApp(d deps) *app {
	return &app{deps: d, cfg: appconfig.Default()}
}

func (a *app) rootCommand() *cobra.Command {
	var (
		name string
		tmux string
	)
	root := &cobra.Command{
		Use:   "ec2-connect --name <instance>",
		Short: "Start an EC2 instance by Name tag and ssh into it",
		Long: strings.Join([]string{
			"Looks up the EC2 instance whose Name tag equals --name, starts it, waits",
			"until it is running and opens an interactive ssh session as user ubuntu.",
			"",
			"The instance name is used as the ssh host alias, so a matching Host block",
			"in ~/.ssh/config supplies keys and other settings; HostName is always the",
			"instance's current public IP.",
			"",
			"--tmux new creates a tmux session named se_<hour>_<minute>;",
			"--tmux <session> attaches to an existing one.",
		}, "\n"),
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup() },
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return errors.New("--name must not be empty")
			}
			return a.runConnect(cmd.Context(), connect.Options{
				Name:      name,
				Directive: session.Parse(tmux),
			})
		},
	}
	root.Flags().StringVar(&name, "name", "", "value of the instance's Name tag (required)")
	root.Flags().StringVar(&tmux, "tmux", "", "\"new\" to create a tmux session, or the name of a session to attach to")
	_ = root.MarkFlagRequired("name")
	root.PersistentFlags().StringVar(&a.region, "region", "", "AWS region (overrides config.yaml and AWS_REGION)")
	root.PersistentFlags().StringVar(&a.profile, "profile", "", "AWS shared config profile")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(a.newDoctorCmd())
	root.AddCommand(a.newVersionCmd())
	return root
}

// setup loads config.yaml and installs the slog handler.
func (a *app) setup() error {
	cfg, err := a.deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if a.verbose || cfg.LogLevel == appconfig.LogLevelDebug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.deps.stderr, &slog.HandlerOptions{Level: level})))
	slog.Debug("config loaded", "region", cfg.Region, "profile", cfg.Profile, "ssh_binary", cfg.SSHBinary)
	return nil
}

func (a *app) cloudOptions() cloud.Options {
	opts := cloud.Options{Region: a.cfg.Region, Profile: a.cfg.Profile}
	if a.region != "" {
		opts.Region = a.region
	}
	if a.profile != "" {
		opts.Profile = a.profile
	}
	return opts
}

func (a *app) runConnect(ctx context.Context, opts connect.Options) error {
	// Fail before touching the instance when ssh cannot run anyway.
	if err := a.deps.ensureSSH(a.cfg.SSHBinary); err != nil {
		return err
	}
	c, err := a.deps.newCloud(ctx, a.cloudOptions())
	if err != nil {
		return err
	}
	slog.Debug("connecting", "name", opts.Name, "region", c.Region(), "session", opts.Directive.String())
	r := &connect.Runner{
		Cloud:        c,
		Launcher:     a.deps.newLauncher(a.cfg.SSHBinary),
		Out:          ui.NewReporter(a.deps.stdout, a.deps.now),
		ResolveAlias: a.deps.resolveAlias,
	}
	return r.Run(ctx, opts)
}

func (a *app) newDoctorCmd() *cobra.Command {
	var (
		name    string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check ssh, AWS credentials and the ssh config entry for an instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := doctor.Run(cmd.Context(), doctor.Options{
				SSHBinary: a.cfg.SSHBinary,
				Alias:     strings.TrimSpace(name),
				Connect: func(ctx context.Context) (doctor.IdentityClient, error) {
					c, err := a.deps.newCloud(ctx, a.cloudOptions())
					if err != nil {
						return nil, err
					}
					return c, nil
				},
			})
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(a.deps.stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(report); err != nil {
					return err
				}
			} else {
				printReport(a.deps.stdout, report)
			}
			if report.HasHigh() {
				return errors.New("doctor found high severity issues")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "instance name to check against ~/.ssh/config")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}

func printReport(w io.Writer, r doctor.Report) {
	if r.Region != "" {
		fmt.Fprintf(w, "region:   %s\n", r.Region)
	}
	if r.Identity != "" {
		fmt.Fprintf(w, "identity: %s\n", r.Identity)
	}
	if len(r.Issues) == 0 {
		fmt.Fprintln(w, "no issues found")
		return
	}
	fmt.Fprintf(w, "%-8s %-20s %-28s %s\n", "SEVERITY", "CHECK", "TARGET", "MESSAGE")
	for _, i := range r.Issues {
		fmt.Fprintf(w, "%-8s %-20s %-28s %s\n", i.Severity, i.Check, i.Target, i.Message)
		fmt.Fprintf(w, "%-8s %-20s %-28s -> %s\n", "", "", "", i.Recommendation)
	}
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.deps.stdout, Version)
			return nil
		},
	}
}
