// Package session builds the remote tmux command that ssh runs after login.
package session

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/treykane/ec2-connect/internal/util"
)

// Kind selects what happens on the remote host after login.
type Kind int

const (
	// Shell opens a plain interactive shell.
	Shell Kind = iota
	// Create starts a new tmux session with a generated name.
	Create
	// Attach attaches to an existing tmux session.
	Attach
)

// NewKeyword is the --tmux value requesting a fresh session.
const NewKeyword = "new"

// Directive is the parsed --tmux value.
type Directive struct {
	Kind Kind
	Name string
}

// Parse interprets a --tmux value: "" is a plain shell, "new" creates a
// session, anything else names a session to attach to.
func Parse(v string) Directive {
	v = strings.TrimSpace(v)
	switch v {
	case "":
		return Directive{Kind: Shell}
	case NewKeyword:
		return Directive{Kind: Create}
	default:
		return Directive{Kind: Attach, Name: v}
	}
}

// SessionName is the generated name for a new session at t, e.g. se_14_7 at
// 14:07. Hour and minute are not zero padded.
func SessionName(t time.Time) string {
	return fmt.Sprintf("%s_%d_%d", util.NewSessionPrefix, t.Hour(), t.Minute())
}

// RemoteCommand returns the command string ssh passes to the remote shell,
// or "" for a plain shell. now is only consulted for Create.
func (d Directive) RemoteCommand(now time.Time) string {
	switch d.Kind {
	case Create:
		return "tmux new -s " + shellQuote(SessionName(now))
	case Attach:
		return "tmux attach -t " + shellQuote(d.Name)
	default:
		return ""
	}
}

func (d Directive) String() string {
	switch d.Kind {
	case Create:
		return "new session"
	case Attach:
		return "attach " + d.Name
	default:
		return "shell"
	}
}

var safeWord = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// shellQuote single-quotes s unless it is a plain word. The remote command is
// interpreted by the login shell on the instance.
func shellQuote(s string) string {
	if safeWord.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
