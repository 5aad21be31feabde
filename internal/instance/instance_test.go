package instance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/treykane/ec2-connect/internal/cloud"
	"github.com/treykane/ec2-connect/internal/model"
	"github.com/treykane/ec2-connect/internal/ui"
)

type fakeCloud struct {
	reservations []model.Reservation
	describeErr  error
	startErr     error
	started      []string
}

func (f *fakeCloud) DescribeByName(context.Context, string) ([]model.Reservation, error) {
	return f.reservations, f.describeErr
}

func (f *fakeCloud) StartAndWait(_ context.Context, id string) error {
	f.started = append(f.started, id)
	return f.startErr
}

func record(id, name string, state model.InstanceState, ip string) model.InstanceRecord {
	return model.InstanceRecord{ID: id, Tags: map[string]string{model.NameTag: name}, State: state, PublicIP: ip}
}

func reporter(buf *bytes.Buffer) *ui.Reporter {
	return ui.NewReporter(buf, func() time.Time { return time.Date(2024, 3, 1, 14, 7, 3, 0, time.Local) })
}

func TestLocate_Errors(t *testing.T) {
	cases := []struct {
		name         string
		reservations []model.Reservation
		check        func(error) bool
	}{
		{
			name:  "no reservations",
			check: func(err error) bool { var e *NotFoundError; return errors.As(err, &e) && e.Name == "build-box" },
		},
		{
			name:         "empty reservation",
			reservations: []model.Reservation{{ID: "r-1"}},
			check:        func(err error) bool { var e *NotFoundError; return errors.As(err, &e) },
		},
		{
			name: "two reservations",
			reservations: []model.Reservation{
				{ID: "r-1", Instances: []model.InstanceRecord{record("i-1", "build-box", model.StateStopped, "")}},
				{ID: "r-2", Instances: []model.InstanceRecord{record("i-2", "build-box", model.StateRunning, "3.3.3.3")}},
			},
			check: func(err error) bool { var e *AmbiguousNameError; return errors.As(err, &e) && e.Matches == 2 },
		},
		{
			name: "two instances in one reservation",
			reservations: []model.Reservation{{ID: "r-1", Instances: []model.InstanceRecord{
				record("i-1", "build-box", model.StateStopped, ""),
				record("i-2", "build-box", model.StateStopped, ""),
			}}},
			check: func(err error) bool { var e *AmbiguousNameError; return errors.As(err, &e) && e.Matches == 2 },
		},
		{
			name: "name tag mismatch",
			reservations: []model.Reservation{{ID: "r-1", Instances: []model.InstanceRecord{
				record("i-1", "build-box-old", model.StateStopped, ""),
			}}},
			check: func(err error) bool {
				var e *ConsistencyError
				return errors.As(err, &e) && e.Found == "build-box-old" && e.Requested == "build-box"
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc := &fakeCloud{reservations: tc.reservations}
			var buf bytes.Buffer
			_, err := Locate(context.Background(), fc, "build-box", reporter(&buf))
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(fc.started) != 0 {
				t.Fatal("locate must not start instances")
			}
		})
	}
}

func TestLocate_SingleMatch(t *testing.T) {
	fc := &fakeCloud{reservations: []model.Reservation{{ID: "r-1", Instances: []model.InstanceRecord{
		record("i-0123", "build-box", model.StateRunning, "3.90.1.2"),
	}}}}
	var buf bytes.Buffer
	inst, err := Locate(context.Background(), fc, "build-box", reporter(&buf))
	if err != nil {
		t.Fatal(err)
	}
	want := model.Instance{ID: "i-0123", Name: "build-box", IP: "3.90.1.2", State: model.StateRunning}
	if inst != want {
		t.Fatalf("unexpected instance\nwant=%+v\n got=%+v", want, inst)
	}
	if !strings.Contains(buf.String(), "Found instance: build-box id=i-0123") {
		t.Fatalf("expected summary, got %q", buf.String())
	}
}

func TestLocate_DescribeErrorPropagates(t *testing.T) {
	boom := errors.New("throttled")
	fc := &fakeCloud{describeErr: boom}
	if _, err := Locate(context.Background(), fc, "build-box", nil); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped describe error, got %v", err)
	}
}

func TestStart(t *testing.T) {
	fc := &fakeCloud{}
	var buf bytes.Buffer
	if err := Start(context.Background(), fc, "i-0123", reporter(&buf)); err != nil {
		t.Fatal(err)
	}
	if len(fc.started) != 1 || fc.started[0] != "i-0123" {
		t.Fatalf("unexpected starts: %v", fc.started)
	}
	out := buf.String()
	if !strings.Contains(out, "[14:07:03] Instance id=i-0123 waiting until running ...") ||
		!strings.Contains(out, "[14:07:03] Instance id=i-0123 successfully started!") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStart_WaiterFailure(t *testing.T) {
	fc := &fakeCloud{startErr: fmt.Errorf("%w: %w", cloud.ErrNotRunning, errors.New("exceeded max wait time"))}
	var buf bytes.Buffer
	err := Start(context.Background(), fc, "i-0123", reporter(&buf))
	var we *WaiterError
	if !errors.As(err, &we) || we.ID != "i-0123" {
		t.Fatalf("expected WaiterError, got %v", err)
	}
	if strings.Contains(buf.String(), "successfully started") {
		t.Fatal("must not report success on waiter failure")
	}
}

func TestStart_APIErrorIsNotWaiterError(t *testing.T) {
	fc := &fakeCloud{startErr: errors.New("UnauthorizedOperation")}
	err := Start(context.Background(), fc, "i-0123", nil)
	var we *WaiterError
	if err == nil || errors.As(err, &we) {
		t.Fatalf("expected plain start error, got %v", err)
	}
}
