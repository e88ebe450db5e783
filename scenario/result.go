package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/smartcontractkit/comet-scenarios/operations"
)

// Status is the outcome of one combination.
type Status string

const (
	StatusPassed      Status = "passed"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped"
	StatusUnsatisfied Status = "unsatisfied"
)

// Phase is the stage of a combination a failure happened in.
type Phase string

const (
	PhaseSetup Phase = "setup"
	PhaseBody  Phase = "body"
	PhaseCheck Phase = "check"
)

// Result is the outcome of running one scenario against one combination of solutions in one
// world. Skipped and unsatisfied scenarios get a single result with no solutions.
type Result struct {
	ID          string
	Scenario    string
	World       string
	Solutions   []string
	Status      Status
	Phase       Phase
	Err         error
	GasUsed     uint64
	Duration    time.Duration
	CheckErrors []string

	// Operations are the reports of the setup steps that ran for the combination.
	Operations []operations.Report[any, any]

	seq int
}

// Label identifies the combination: world, applied solutions and scenario.
func (r Result) Label() string {
	return fmt.Sprintf("%s [%s] %s", r.World, strings.Join(r.Solutions, ", "), r.Scenario)
}

type resultJSON struct {
	ID          string                        `json:"id"`
	Scenario    string                        `json:"scenario"`
	World       string                        `json:"world"`
	Solutions   []string                      `json:"solutions"`
	Status      Status                        `json:"status"`
	Phase       Phase                         `json:"phase,omitempty"`
	Error       string                        `json:"error,omitempty"`
	GasUsed     uint64                        `json:"gasUsed"`
	DurationMS  int64                         `json:"durationMs"`
	CheckErrors []string                      `json:"checkErrors,omitempty"`
	Operations  []operations.Report[any, any] `json:"operations,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		ID:          r.ID,
		Scenario:    r.Scenario,
		World:       r.World,
		Solutions:   r.Solutions,
		Status:      r.Status,
		Phase:       r.Phase,
		GasUsed:     r.GasUsed,
		DurationMS:  r.Duration.Milliseconds(),
		CheckErrors: r.CheckErrors,
		Operations:  r.Operations,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}

	return json.Marshal(out)
}

// Report collects the results of a run in world, scenario and combination order.
type Report struct {
	StartedAt time.Time
	Duration  time.Duration
	Results   []Result
}

// Summary counts results per status.
func (r *Report) Summary() map[Status]int {
	counts := map[Status]int{
		StatusPassed:      0,
		StatusFailed:      0,
		StatusSkipped:     0,
		StatusUnsatisfied: 0,
	}
	for _, res := range r.Results {
		counts[res.Status]++
	}

	return counts
}

// Failed returns the failed results.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}

	return out
}

// OK reports whether no combination failed.
func (r *Report) OK() bool {
	return r.Summary()[StatusFailed] == 0
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(struct {
		StartedAt time.Time      `json:"startedAt"`
		Duration  string         `json:"duration"`
		Summary   map[Status]int `json:"summary"`
		Results   []Result       `json:"results"`
	}{
		StartedAt: r.StartedAt,
		Duration:  r.Duration.String(),
		Summary:   r.Summary(),
		Results:   r.Results,
	})
}

// WriteText writes a table with one row per result followed by the summary.
func (r *Report) WriteText(w io.Writer) error {
	rows := make([][]string, 0, len(r.Results))
	for _, res := range r.Results {
		detail := ""
		switch {
		case res.Err != nil:
			detail = fmt.Sprintf("%s: %v", res.Phase, res.Err)
		case len(res.CheckErrors) > 0:
			detail = "check: " + strings.Join(res.CheckErrors, "; ")
		}
		rows = append(rows, []string{
			strings.ToUpper(string(res.Status)),
			res.Label(),
			strconv.FormatUint(res.GasUsed, 10),
			res.Duration.Round(time.Millisecond).String(),
			detail,
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Status", "Combination", "Gas", "Duration", "Detail"})
	table.SetBorders(tablewriter.Border{
		Left:   false,
		Right:  false,
		Top:    true,
		Bottom: true,
	})
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()

	s := r.Summary()
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped, %d unsatisfied in %s\n",
		s[StatusPassed], s[StatusFailed], s[StatusSkipped], s[StatusUnsatisfied], r.Duration.Round(time.Millisecond))

	return err
}
