package constraints

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/comet"
	"github.com/smartcontractkit/comet-scenarios/scenario"
)

// PauseConstraint sets the pause flags a scenario requires. Flags it does not name keep their
// current value.
type PauseConstraint struct{}

// NewPauseConstraint creates a PauseConstraint.
func NewPauseConstraint() *PauseConstraint {
	return &PauseConstraint{}
}

func (p *PauseConstraint) Name() string { return "pause" }

func (p *PauseConstraint) Solve(
	_ context.Context, req comet.Requirements, _ *comet.Context, _ scenario.World,
) ([]comet.Solution, error) {
	if len(req.Pause) == 0 {
		return nil, nil
	}

	var parts []string
	for _, flag := range scenario.AllPauseFlags() {
		if v, ok := req.Pause[flag]; ok {
			parts = append(parts, string(flag)+"="+strconv.FormatBool(v))
		}
	}

	return []comet.Solution{{
		Label: "pause[" + strings.Join(parts, ",") + "]",
		Apply: func(ctx context.Context, c *comet.Context) (*comet.Context, error) {
			cm, err := c.Comet()
			if err != nil {
				return nil, err
			}
			flags, err := cm.PauseFlags(&bind.CallOpts{Context: ctx})
			if err != nil {
				return nil, err
			}
			for flag, v := range req.Pause {
				*pauseFlag(&flags, flag) = v
			}
			if _, err := c.Actors.Admin.Pause(ctx, flags); err != nil {
				return nil, fmt.Errorf("pause: %w", err)
			}

			return c, nil
		},
	}}, nil
}

// Check verifies every requested flag holds.
func (p *PauseConstraint) Check(ctx context.Context, req comet.Requirements, c *comet.Context, _ scenario.World) error {
	if len(req.Pause) == 0 {
		return nil
	}
	cm, err := c.Comet()
	if err != nil {
		return err
	}
	flags, err := cm.PauseFlags(&bind.CallOpts{Context: ctx})
	if err != nil {
		return err
	}

	var errs []error
	for _, flag := range scenario.AllPauseFlags() {
		want, ok := req.Pause[flag]
		if !ok {
			continue
		}
		if got := *pauseFlag(&flags, flag); got != want {
			errs = append(errs, fmt.Errorf("%s: expected %t, got %t", flag, want, got))
		}
	}

	return errors.Join(errs...)
}

func pauseFlag(flags *devnet.PauseFlags, flag scenario.PauseFlag) *bool {
	switch flag {
	case scenario.SupplyPaused:
		return &flags.Supply
	case scenario.TransferPaused:
		return &flags.Transfer
	case scenario.WithdrawPaused:
		return &flags.Withdraw
	case scenario.AbsorbPaused:
		return &flags.Absorb
	case scenario.BuyPaused:
		return &flags.Buy
	}

	panic(fmt.Sprintf("unknown pause flag %q", flag))
}
