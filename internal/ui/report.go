// Package ui renders operator-facing progress output.
package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/treykane/ec2-connect/internal/model"
	"github.com/treykane/ec2-connect/internal/util"
)

// Reporter writes the human-readable progress lines of a connect run. Colors
// are only emitted when the writer is a terminal.
type Reporter struct {
	w   io.Writer
	now func() time.Time

	head  lipgloss.Style
	label lipgloss.Style
	clock lipgloss.Style
	good  lipgloss.Style
	plain lipgloss.Style
	state map[model.InstanceState]lipgloss.Style
}

// NewReporter creates a Reporter writing to w. now defaults to time.Now.
func NewReporter(w io.Writer, now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:     w,
		now:   now,
		head:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label: r.NewStyle().Foreground(lipgloss.Color("244")),
		clock: r.NewStyle().Foreground(lipgloss.Color("63")),
		good:  r.NewStyle().Foreground(lipgloss.Color("42")),
		plain: r.NewStyle(),
		state: map[model.InstanceState]lipgloss.Style{
			model.StateRunning:  r.NewStyle().Foreground(lipgloss.Color("42")),
			model.StatePending:  r.NewStyle().Foreground(lipgloss.Color("214")),
			model.StateStopping: r.NewStyle().Foreground(lipgloss.Color("214")),
			model.StateStopped:  r.NewStyle().Foreground(lipgloss.Color("196")),
		},
	}
}

// InstanceFound prints the lookup summary for inst.
func (r *Reporter) InstanceFound(inst model.Instance) {
	st, ok := r.state[inst.State]
	if !ok {
		st = r.plain
	}
	fmt.Fprintf(r.w, "%s %s id=%s\n", r.label.Render("Found instance:"), r.head.Render(inst.Name), inst.ID)
	fmt.Fprintf(r.w, "\t%s %s\n", r.label.Render("State:"), st.Render(string(inst.State)))
	fmt.Fprintf(r.w, "\t%s %s\n\n", r.label.Render("IP:"), util.EmptyDash(inst.IP))
}

// Progress prints a timestamped status line.
func (r *Reporter) Progress(format string, args ...any) {
	fmt.Fprintf(r.w, "%s %s\n", r.stamp(), fmt.Sprintf(format, args...))
}

// Done prints a timestamped success line.
func (r *Reporter) Done(format string, args ...any) {
	fmt.Fprintf(r.w, "%s %s\n", r.stamp(), r.good.Render(fmt.Sprintf(format, args...)))
}

// Now returns the reporter's clock reading.
func (r *Reporter) Now() time.Time { return r.now() }

func (r *Reporter) stamp() string {
	return r.clock.Render("[" + util.Clock(r.now()) + "]")
}
