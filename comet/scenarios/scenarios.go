// Package scenarios is the scenario suite of the Comet market.
package scenarios

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"

	"github.com/smartcontractkit/comet-scenarios/chain/devnet"
	"github.com/smartcontractkit/comet-scenarios/comet"
)

// ErrExpectation is returned, wrapped, by a scenario body whose expectation does not hold.
var ErrExpectation = errors.New("expectation failed")

// Register adds the whole suite to reg.
func Register(reg *comet.Registry) {
	registerApproveThis(reg)
	registerTransfer(reg)
}

// customError renders the revert reason of a custom error without arguments.
func customError(name string) string {
	return fmt.Sprintf("custom error '%s()'", name)
}

// expectRevert returns nil iff err is the revert of the custom error name.
func expectRevert(err error, name string) error {
	return devnet.Errors.Expect(err, customError(name))
}

func expectEqual(what string, want, got *big.Int) error {
	if want.Cmp(got) != 0 {
		return fmt.Errorf("%w: %s: expected %s, got %s", ErrExpectation, what, want, got)
	}

	return nil
}

func expectBool(what string, want, got bool) error {
	if want != got {
		return fmt.Errorf("%w: %s: expected %t, got %t", ErrExpectation, what, want, got)
	}

	return nil
}

func callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx}
}

func mul(a *big.Int, n int64) *big.Int {
	return new(big.Int).Mul(a, big.NewInt(n))
}
