package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/treykane/ec2-connect/internal/appconfig"
	"github.com/treykane/ec2-connect/internal/cloud"
	"github.com/treykane/ec2-connect/internal/config"
	"github.com/treykane/ec2-connect/internal/connect"
	"github.com/treykane/ec2-connect/internal/instance"
	"github.com/treykane/ec2-connect/internal/model"
	"github.com/treykane/ec2-connect/internal/sshclient"
)

type fakeCloud struct {
	reservations []model.Reservation
	started      []string
	opts         cloud.Options
}

func (f *fakeCloud) DescribeByName(context.Context, string) ([]model.Reservation, error) {
	return f.reservations, nil
}

func (f *fakeCloud) StartAndWait(_ context.Context, id string) error {
	f.started = append(f.started, id)
	for i := range f.reservations[0].Instances {
		f.reservations[0].Instances[i].State = model.StateRunning
		f.reservations[0].Instances[i].PublicIP = "3.90.1.2"
	}
	return nil
}

func (f *fakeCloud) Region() string { return f.opts.Region }

func (f *fakeCloud) CallerIdentity(context.Context) (string, string, error) {
	return "123456789012", "arn:aws:iam::123456789012:user/ops", nil
}

type fakeLauncher struct {
	targets []sshclient.Target
}

func (f *fakeLauncher) RunInteractive(_ context.Context, t sshclient.Target) error {
	f.targets = append(f.targets, t)
	return nil
}

type harness struct {
	app      *app
	cloud    *fakeCloud
	launcher *fakeLauncher
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	cfg      appconfig.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		cloud: &fakeCloud{reservations: []model.Reservation{{ID: "r-1", Instances: []model.InstanceRecord{{
			ID: "i-0123", Tags: map[string]string{model.NameTag: "build-box"}, State: model.StateStopped,
		}}}}},
		launcher: &fakeLauncher{},
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		cfg:      appconfig.Default(),
	}
	h.cfg.Region = "eu-west-1"
	h.app = newApp(deps{
		loadConfig: func() (appconfig.Config, error) { return h.cfg, nil },
		newCloud: func(_ context.Context, opts cloud.Options) (cloudClient, error) {
			h.cloud.opts = opts
			return h.cloud, nil
		},
		newLauncher:  func(string) connect.Launcher { return h.launcher },
		ensureSSH:    func(string) error { return nil },
		resolveAlias: func(alias string) (config.Resolution, error) { return config.Resolution{}, nil },
		stdout:       h.stdout,
		stderr:       h.stderr,
		now:          func() time.Time { return time.Date(2024, 3, 1, 14, 7, 3, 0, time.Local) },
	})
	return h
}

func (h *harness) execute(args ...string) error {
	cmd := h.app.rootCommand()
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(h.stdout)
	cmd.SetErr(h.stderr)
	return cmd.ExecuteContext(context.Background())
}

func TestConnectEndToEnd(t *testing.T) {
	h := newHarness(t)
	if err := h.execute("--name", "build-box", "--region", "us-east-1", "--tmux", "new"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if h.cloud.opts.Region != "us-east-1" {
		t.Fatalf("--region must override config: %+v", h.cloud.opts)
	}
	if len(h.cloud.started) != 1 || h.cloud.started[0] != "i-0123" {
		t.Fatalf("unexpected starts: %v", h.cloud.started)
	}
	want := sshclient.Target{Alias: "build-box", Address: "3.90.1.2", User: "ubuntu", RemoteCommand: "tmux new -s se_14_7"}
	if len(h.launcher.targets) != 1 || h.launcher.targets[0] != want {
		t.Fatalf("unexpected launch: %+v", h.launcher.targets)
	}
	if !strings.Contains(h.stdout.String(), "successfully started!") {
		t.Fatalf("expected progress output, got: %s", h.stdout.String())
	}
}

func TestConnectUsesConfigRegion(t *testing.T) {
	h := newHarness(t)
	if err := h.execute("--name", "build-box"); err != nil {
		t.Fatal(err)
	}
	if h.cloud.opts.Region != "eu-west-1" {
		t.Fatalf("expected config region, got %+v", h.cloud.opts)
	}
}

func TestConnectRequiresName(t *testing.T) {
	h := newHarness(t)
	if err := h.execute(); err == nil || !strings.Contains(err.Error(), "name") {
		t.Fatalf("expected required flag error, got %v", err)
	}
	if err := h.execute("--name", "  "); err == nil {
		t.Fatal("expected error for blank name")
	}
	if len(h.cloud.started) != 0 {
		t.Fatal("nothing should start")
	}
}

func TestConnectNotFound(t *testing.T) {
	h := newHarness(t)
	h.cloud.reservations = nil
	err := h.execute("--name", "build-box")
	var nf *instance.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestConnectStopsWhenSSHMissing(t *testing.T) {
	h := newHarness(t)
	h.app.deps.ensureSSH = func(string) error { return errors.New("ssh binary not found in PATH") }
	if err := h.execute("--name", "build-box"); err == nil {
		t.Fatal("expected error")
	}
	if len(h.cloud.started) != 0 {
		t.Fatal("instance must not be started without ssh")
	}
}

func TestDoctorJSONOutput(t *testing.T) {
	h := newHarness(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".ssh"), 0o700); err != nil {
		t.Fatal(err)
	}
	h.cfg.SSHBinary = os.Args[0]

	if err := h.execute("doctor", "--json"); err != nil {
		t.Fatalf("doctor: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(h.stdout.Bytes(), &payload); err != nil {
		t.Fatalf("invalid doctor json: %v; output=%s", err, h.stdout.String())
	}
	if _, ok := payload["issues"]; !ok {
		t.Fatalf("expected issues key in doctor output: %s", h.stdout.String())
	}
	if payload["region"] != "eu-west-1" {
		t.Fatalf("unexpected region: %v", payload["region"])
	}
}

func TestDoctorHighSeverityFails(t *testing.T) {
	h := newHarness(t)
	t.Setenv("HOME", t.TempDir())
	h.app.deps.newCloud = func(context.Context, cloud.Options) (cloudClient, error) { return nil, cloud.ErrNoRegion }
	h.cfg.SSHBinary = os.Args[0]

	err := h.execute("doctor")
	if err == nil {
		t.Fatal("expected failure for high severity issue")
	}
	if !strings.Contains(h.stdout.String(), "aws-config") {
		t.Fatalf("expected aws-config issue in output: %s", h.stdout.String())
	}
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	if err := h.execute("version"); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(h.stdout.String()) != Version {
		t.Fatalf("unexpected version output: %q", h.stdout.String())
	}
}
