package harness

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/goccy/go-json"
)

// Report collects the outcomes of one run. RunID, Started, Finished and
// the durations vary between runs; everything else is a pure function of the
// checks and candidates.
type Report struct {
	RunID    string    `json:"run_id"`
	Version  string    `json:"version,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Outcomes []Outcome `json:"outcomes"`
}

func (r *Report) count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) Passed() int  { return r.count(StatusPass) }
func (r *Report) Failed() int  { return r.count(StatusFail) }
func (r *Report) Skipped() int { return r.count(StatusSkipped) }

// OK reports whether at least one check ran and every check passed.
func (r *Report) OK() bool { return len(r.Outcomes) > 0 && r.Passed() == len(r.Outcomes) }

// MarshalCanonical encodes the report as RFC 8785 canonical JSON.
func (r *Report) MarshalCanonical() ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	out, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize report: %w", err)
	}
	return out, nil
}

// WriteJSON writes the canonical JSON report followed by a newline.
func (r *Report) WriteJSON(w io.Writer) error {
	b, err := r.MarshalCanonical()
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// WriteText writes a table of outcomes and a summary line.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tKIND\tTIME\tMESSAGE")
	for _, o := range r.Outcomes {
		d := time.Duration(o.DurationMS * float64(time.Millisecond)).Round(time.Microsecond)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", o.Check, o.Status, o.Kind, d, o.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped (run %s)\n", r.Passed(), r.Failed(), r.Skipped(), r.RunID)
	return err
}
