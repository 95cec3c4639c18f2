// Package harness runs named checks one after another and collects their
// outcomes into a Report. A failing check never stops the run.
package harness

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/m-kadula/ml2024-25/internal/logger"
	"github.com/m-kadula/ml2024-25/internal/verify"
)

// Check is one named unit of verification.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Status of a finished check.
type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusSkipped Status = "skipped"
)

// Outcome is the result of one check.
type Outcome struct {
	Check      string  `json:"check"`
	Status     Status  `json:"status"`
	Kind       string  `json:"kind,omitempty"`
	Fixture    *int    `json:"fixture,omitempty"`
	Deviation  float64 `json:"deviation,omitempty"`
	Message    string  `json:"message,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// Runner executes checks sequentially.
type Runner struct {
	Logger logger.Logger
	// Version is copied into every report.
	Version string
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run executes every check in order. Once ctx is done the remaining checks
// are reported as skipped.
func (r *Runner) Run(ctx context.Context, checks []Check) *Report {
	log := r.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	}
	rep := &Report{
		RunID:   uuid.NewString(),
		Version: r.Version,
		Started: r.now().UTC(),
	}
	log = log.With("run_id", rep.RunID)
	log.Info("run started", "checks", len(checks))

	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			rep.Outcomes = append(rep.Outcomes, Outcome{Check: c.Name, Status: StatusSkipped, Message: err.Error()})
			continue
		}
		start := r.now()
		err := verify.Invoke(c.Name, func() error { return c.Run(ctx) })
		o := outcome(c.Name, err)
		o.DurationMS = float64(r.now().Sub(start).Microseconds()) / 1000
		rep.Outcomes = append(rep.Outcomes, o)

		if o.Status == StatusPass {
			log.Info("check finished", "check", c.Name, logger.OutcomeKey, string(o.Status), "duration_ms", o.DurationMS)
		} else {
			log.Warn("check finished", "check", c.Name, logger.OutcomeKey, string(o.Status), "kind", o.Kind, "err", err)
		}
	}
	rep.Finished = r.now().UTC()
	log.Info("run finished", "passed", rep.Passed(), "failed", rep.Failed(), "skipped", rep.Skipped())
	return rep
}

// outcome classifies err. Errors that are not verification failures are
// reported with kind ERROR.
func outcome(name string, err error) Outcome {
	if err == nil {
		return Outcome{Check: name, Status: StatusPass}
	}
	o := Outcome{Check: name, Status: StatusFail, Kind: "ERROR", Message: err.Error()}
	var ve *verify.Error
	if errors.As(err, &ve) {
		o.Kind = string(ve.Kind)
		// JSON has no infinities; the message still carries the value.
		if !math.IsInf(ve.Deviation, 0) && !math.IsNaN(ve.Deviation) {
			o.Deviation = ve.Deviation
		}
		if ve.Fixture >= 0 {
			idx := ve.Fixture
			o.Fixture = &idx
		}
	}
	return o
}
