package scenario

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/avast/retry-go/v4"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"

	"github.com/smartcontractkit/comet-scenarios/chain/evm/revert"
	"github.com/smartcontractkit/comet-scenarios/operations"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

// ContextFactory builds the context of a world. Every call must return a fresh context; a factory
// that hands out isolated contexts, such as private forks of a chain, allows combinations to run
// in parallel.
type ContextFactory[C any] func(ctx context.Context, world World) (C, error)

type runnerConfig struct {
	lggr          logger.Logger
	parallelism   int
	timeout       time.Duration
	enforceChecks bool
	retries       uint
}

// RunnerOption configures a Runner.
type RunnerOption func(*runnerConfig)

// WithLogger sets the logger of the runner.
func WithLogger(lggr logger.Logger) RunnerOption {
	return func(c *runnerConfig) {
		c.lggr = lggr
	}
}

// WithParallelism runs up to n combinations at the same time. Only use it with a factory that
// returns isolated contexts.
func WithParallelism(n int) RunnerOption {
	return func(c *runnerConfig) {
		c.parallelism = n
	}
}

// WithCombinationTimeout bounds the setup, body and checks of each combination.
func WithCombinationTimeout(d time.Duration) RunnerOption {
	return func(c *runnerConfig) {
		c.timeout = d
	}
}

// WithEnforcedChecks fails combinations whose constraint checks fail. By default check failures
// are recorded on the result only.
func WithEnforcedChecks() RunnerOption {
	return func(c *runnerConfig) {
		c.enforceChecks = true
	}
}

// WithRetry makes up to attempts attempts at setting up a combination when applying its
// solutions fails with a transient error. Every attempt starts from a fresh context built by the
// factory and applies all solutions again. Reverts are never retried.
func WithRetry(attempts uint) RunnerOption {
	return func(c *runnerConfig) {
		c.retries = attempts
	}
}

type applyInput struct {
	Constraint string `json:"constraint"`
	Solution   string `json:"solution"`
}

type applyDeps[C any] struct {
	solution Solution[C]
	current  C
	next     C
}

// Runner resolves the requirements of scenarios into combinations of solutions and runs every
// combination in every applicable world.
type Runner[C any] struct {
	factory     ContextFactory[C]
	constraints []Constraint[C]
	cfg         runnerConfig
	applyOp     *operations.Operation[applyInput, operations.EmptyOutput, *applyDeps[C]]
}

// NewRunner creates a runner. Constraints are solved, and their solutions applied, in the given
// order.
func NewRunner[C any](factory ContextFactory[C], constraints []Constraint[C], opts ...RunnerOption) *Runner[C] {
	cfg := runnerConfig{lggr: logger.Nop(), parallelism: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.parallelism < 1 {
		cfg.parallelism = 1
	}

	return &Runner[C]{
		factory:     factory,
		constraints: slices.Clone(constraints),
		cfg:         cfg,
		applyOp: operations.NewOperation(
			"apply-solution",
			semver.MustParse("1.0.0"),
			"Applies one constraint solution to the scenario context",
			func(b operations.Bundle, deps *applyDeps[C], _ applyInput) (operations.EmptyOutput, error) {
				next, err := deps.solution.Apply(operations.ContextWithBundle(b.GetContext(), b), deps.current)
				if err != nil {
					return operations.EmptyOutput{}, err
				}
				deps.next = next

				return operations.EmptyOutput{}, nil
			},
		),
	}
}

// step is a solution tagged with the constraint that offered it.
type step[C any] struct {
	constraint Constraint[C]
	solution   Solution[C]
}

// combination is one element of the cross product.
type combination[C any] struct {
	world    World
	scenario Scenario[C]
	steps    []step[C]
}

// Run runs every scenario in every world and returns the report. Failures of individual
// combinations are recorded in the report; the error is only set when the run itself could not
// complete.
func (r *Runner[C]) Run(ctx context.Context, worlds []World, scenarios []Scenario[C]) (*Report, error) {
	for _, w := range worlds {
		if err := w.Validate(); err != nil {
			return nil, err
		}
	}

	report := &Report{StartedAt: time.Now()}

	var (
		mu  sync.Mutex
		seq int
	)
	record := func(res Result) {
		mu.Lock()
		defer mu.Unlock()

		report.Results = append(report.Results, res)
	}
	next := func() int {
		seq++
		return seq
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.parallelism)

	var runErr error
	for _, world := range worlds {
		for _, sc := range scenarios {
			if err := gctx.Err(); err != nil {
				runErr = err
				break
			}

			combos, res, ok := r.resolve(gctx, world, sc)
			if !ok {
				res.seq = next()
				record(res)

				continue
			}

			for combo := range combos {
				if err := gctx.Err(); err != nil {
					runErr = err
					break
				}

				id := next()
				g.Go(func() error {
					res := r.runCombination(gctx, combo)
					res.seq = id
					record(res)

					return nil
				})
			}
		}
	}
	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}

	slices.SortFunc(report.Results, func(a, b Result) int { return a.seq - b.seq })
	report.Duration = time.Since(report.StartedAt)

	return report, runErr
}

// resolve evaluates the filter and solves every constraint for one scenario in one world. When
// the scenario does not run it returns false with the result to record.
func (r *Runner[C]) resolve(
	ctx context.Context, world World, sc Scenario[C],
) (iter.Seq[combination[C]], Result, bool) {
	lggr := r.cfg.lggr.With("world", world.Name, "scenario", sc.Name)
	res := Result{
		ID:        ksuid.New().String(),
		Scenario:  sc.Name,
		World:     world.Name,
		Solutions: []string{},
	}
	fail := func(err error) (iter.Seq[combination[C]], Result, bool) {
		res.Status, res.Phase, res.Err = StatusFailed, PhaseSetup, err
		lggr.Errorw("Scenario setup failed", "error", err)

		return nil, res, false
	}

	trial, err := r.factory(ctx, world)
	if err != nil {
		return fail(fmt.Errorf("build trial context: %w", err))
	}

	if sc.Requirements.Filter != nil {
		ok, ferr := sc.Requirements.Filter(ctx, trial)
		if ferr != nil {
			return fail(fmt.Errorf("filter: %w", ferr))
		}
		if !ok {
			res.Status = StatusSkipped
			lggr.Infow("Scenario does not apply to world")

			return nil, res, false
		}
	}

	lists := make([][]step[C], 0, len(r.constraints))
	for _, c := range r.constraints {
		sols, serr := solve(ctx, c, sc.Requirements, trial, world)
		if serr != nil {
			if errors.Is(serr, ErrUnsatisfiable) {
				res.Status = StatusUnsatisfied
				res.Err = fmt.Errorf("%w: %s: %w", ErrNoApplicableSetup, c.Name(), serr)
				lggr.Warnw("Scenario has no applicable setup", "constraint", c.Name(), "error", serr)

				return nil, res, false
			}

			return fail(fmt.Errorf("solve %s: %w", c.Name(), serr))
		}

		steps := make([]step[C], len(sols))
		for i, sol := range sols {
			steps[i] = step[C]{constraint: c, solution: sol}
		}
		lists = append(lists, steps)
	}

	lggr.Debugw("Resolved combinations", "count", ProductSize(lists))

	combos := func(yield func(combination[C]) bool) {
		for steps := range Product(lists) {
			if !yield(combination[C]{world: world, scenario: sc, steps: steps}) {
				return
			}
		}
	}

	return combos, res, true
}

// solve calls Solve on c and turns a panic into an error, so that a misbehaving constraint fails
// only the scenario it was solving.
func solve[C any](
	ctx context.Context, c Constraint[C], req Requirements[C], trial C, world World,
) (sols []Solution[C], err error) {
	defer func() {
		if p := recover(); p != nil {
			sols, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	return c.Solve(ctx, req, trial, world)
}

// setup builds a fresh context for combo and applies its solutions in order, each as a reported
// operation. With retries enabled a failed attempt is discarded along with its context: the next
// attempt builds a new context and applies every solution again, so no solution is ever applied
// twice to the same context. Reverts are not retried.
func (r *Runner[C]) setup(ctx context.Context, b operations.Bundle, combo combination[C]) (C, error) {
	attempt := func() (C, error) {
		var zero C
		c, err := r.factory(ctx, combo.world)
		if err != nil {
			return zero, fmt.Errorf("build context: %w", err)
		}
		for _, st := range combo.steps {
			deps := &applyDeps[C]{solution: st.solution, current: c}
			in := applyInput{Constraint: st.constraint.Name(), Solution: st.solution.Label}
			if _, err := operations.ExecuteOperation(b, r.applyOp, deps, in); err != nil {
				err = fmt.Errorf("apply %s: %w", st.solution.Label, err)
				if _, ok := revert.Data(err); ok {
					return zero, retry.Unrecoverable(err)
				}

				return zero, err
			}
			c = deps.next
		}

		return c, nil
	}

	if r.cfg.retries <= 1 {
		c, err := attempt()
		return c, unwrapUnrecoverable(err)
	}

	c, err := retry.DoWithData(attempt,
		retry.Attempts(r.cfg.retries),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			b.Logger.Infow("Combination setup failed. Retrying on a fresh context...", "attempt", n+1, "error", err)
		}),
	)

	return c, unwrapUnrecoverable(err)
}

func unwrapUnrecoverable(err error) error {
	if err != nil && !retry.IsRecoverable(err) {
		if inner := errors.Unwrap(err); inner != nil {
			return inner
		}
	}

	return err
}

// runCombination builds a fresh context, applies the solutions of combo in order, runs the body
// and the constraint checks.
func (r *Runner[C]) runCombination(ctx context.Context, combo combination[C]) (res Result) {
	start := time.Now()
	labels := make([]string, len(combo.steps))
	for i, st := range combo.steps {
		labels[i] = st.solution.Label
	}
	res = Result{
		ID:        ksuid.New().String(),
		Scenario:  combo.scenario.Name,
		World:     combo.world.Name,
		Solutions: labels,
	}
	lggr := r.cfg.lggr.With("id", res.ID, "world", combo.world.Name, "scenario", combo.scenario.Name, "solutions", labels)

	if r.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.timeout)
		defer cancel()
	}

	reporter := operations.NewMemoryReporter()
	defer func() {
		if p := recover(); p != nil {
			res.Status, res.Err = StatusFailed, fmt.Errorf("panic: %v", p)
			if res.Phase == "" {
				res.Phase = PhaseBody
			}
		}
		res.Operations, _ = reporter.GetReports()
		res.Duration = time.Since(start)
		lggr.Infow("Combination finished",
			"status", res.Status, "phase", res.Phase, "gas", res.GasUsed, "duration", res.Duration, "error", res.Err)
	}()

	lggr.Infow("Running combination")

	res.Phase = PhaseSetup
	c, err := r.setup(ctx, operations.NewBundle(ctx, lggr, reporter), combo)
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	res.Phase = PhaseBody
	receipt, err := combo.scenario.Body(ctx, c, combo.world)
	if receipt != nil {
		res.GasUsed = receipt.GasUsed
	}
	if err != nil {
		res.Status, res.Err = StatusFailed, err
		return res
	}

	var checkErrs []error
	for _, con := range r.constraints {
		if cerr := con.Check(ctx, combo.scenario.Requirements, c, combo.world); cerr != nil {
			checkErrs = append(checkErrs, fmt.Errorf("%s: %w", con.Name(), cerr))
			res.CheckErrors = append(res.CheckErrors, fmt.Sprintf("%s: %v", con.Name(), cerr))
		}
	}
	if len(checkErrs) > 0 {
		if r.cfg.enforceChecks {
			res.Status, res.Phase, res.Err = StatusFailed, PhaseCheck, errors.Join(checkErrs...)
			return res
		}
		lggr.Warnw("Constraint checks failed", "errors", res.CheckErrors)
	}

	res.Status, res.Phase = StatusPassed, ""

	return res
}
