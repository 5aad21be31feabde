// Package doctor runs local diagnostics for the prerequisites of a connect
// run: the ssh client, AWS credentials and region, and the ssh config entry
// for an instance alias.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/treykane/ec2-connect/internal/cloud"
	"github.com/treykane/ec2-connect/internal/config"
	"github.com/treykane/ec2-connect/internal/security"
	"github.com/treykane/ec2-connect/internal/sshclient"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	Severity       Severity `json:"severity"`
	Check          string   `json:"check"`
	Target         string   `json:"target"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

type Report struct {
	Region   string  `json:"region,omitempty"`
	Identity string  `json:"identity,omitempty"`
	Issues   []Issue `json:"issues"`
}

func (r Report) HasHigh() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// IdentityClient is the part of the cloud client doctor needs.
type IdentityClient interface {
	Region() string
	CallerIdentity(ctx context.Context) (account, arn string, err error)
}

// Options configures a diagnostics run.
type Options struct {
	SSHBinary string
	// Alias, when set, is checked against the ssh config.
	Alias string
	// SSHConfigPath defaults to ~/.ssh/config.
	SSHConfigPath string
	// Connect builds the cloud client; its error is reported, not returned.
	Connect func(ctx context.Context) (IdentityClient, error)
}

// Run executes local diagnostics. Failed checks are reported as issues; the
// returned error is reserved for problems running the checks themselves.
func Run(ctx context.Context, opts Options) (Report, error) {
	var (
		report Report
		issues []Issue
	)

	if err := sshclient.EnsureSSHBinary(opts.SSHBinary); err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "ssh-binary",
			Target:         "PATH",
			Message:        err.Error(),
			Recommendation: "install OpenSSH client and ensure `ssh` is on PATH, or set ssh_binary in config.yaml",
		})
	}

	if opts.Connect != nil {
		issues = append(issues, awsIssues(ctx, opts.Connect, &report)...)
	}

	sshConfig := opts.SSHConfigPath
	if sshConfig == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return Report{}, err
		}
		sshConfig = p
	}
	checkPathPerm(&issues, filepath.Dir(sshConfig), 0o700, false)
	checkPathPerm(&issues, sshConfig, 0o600, true)

	if opts.Alias != "" {
		res, err := config.ResolveFile(sshConfig, opts.Alias)
		if err != nil {
			return Report{}, err
		}
		for _, w := range res.Warnings {
			issues = append(issues, Issue{
				Severity:       SeverityLow,
				Check:          "ssh-config-warning",
				Target:         sshConfig,
				Message:        w,
				Recommendation: "fix malformed/unsupported SSH config directives",
			})
		}
		if !res.Matched {
			issues = append(issues, Issue{
				Severity:       SeverityLow,
				Check:          "ssh-host-alias",
				Target:         opts.Alias,
				Message:        "no Host block matches the instance name",
				Recommendation: fmt.Sprintf("add `Host %s` with IdentityFile to %s", opts.Alias, sshConfig),
			})
		}
	}

	sort.Slice(issues, func(i, j int) bool {
		ri := severityRank(issues[i].Severity)
		rj := severityRank(issues[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if issues[i].Check != issues[j].Check {
			return issues[i].Check < issues[j].Check
		}
		return issues[i].Target < issues[j].Target
	})
	report.Issues = issues
	return report, nil
}

func awsIssues(ctx context.Context, connect func(context.Context) (IdentityClient, error), report *Report) []Issue {
	client, err := connect(ctx)
	if err != nil {
		rec := "configure credentials with `aws configure` or AWS_PROFILE"
		if errors.Is(err, cloud.ErrNoRegion) {
			rec = "pass --region, set region in config.yaml or export AWS_REGION"
		}
		return []Issue{{
			Severity:       SeverityHigh,
			Check:          "aws-config",
			Target:         "aws",
			Message:        security.UserMessage(err, true),
			Recommendation: rec,
		}}
	}
	report.Region = client.Region()
	account, arn, err := client.CallerIdentity(ctx)
	if err != nil {
		return []Issue{{
			Severity:       SeverityHigh,
			Check:          "aws-identity",
			Target:         report.Region,
			Message:        security.UserMessage(err, true),
			Recommendation: "refresh credentials (e.g. `aws sso login`) and retry",
		}}
	}
	report.Identity = fmt.Sprintf("%s (%s)", arn, account)
	return nil
}

func checkPathPerm(issues *[]Issue, path string, max os.FileMode, isFile bool) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		*issues = append(*issues, Issue{
			Severity:       SeverityLow,
			Check:          "permissions",
			Target:         path,
			Message:        fmt.Sprintf("unable to inspect permissions: %v", err),
			Recommendation: "verify path and permissions manually",
		})
		return
	}
	if mode := st.Mode().Perm(); mode&^max != 0 {
		kind := "directory"
		if isFile {
			kind = "file"
		}
		*issues = append(*issues, Issue{
			Severity:       SeverityMedium,
			Check:          "permissions",
			Target:         path,
			Message:        fmt.Sprintf("%s permissions are too broad (%#o)", kind, mode),
			Recommendation: fmt.Sprintf("restrict permissions to %#o or tighter", max),
		})
	}
}

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}
