package scenario

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// BaseKey is the asset key of the protocol's base asset.
const BaseKey = "$base"

const assetKeyPrefix = "$asset"

var actorNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// AssetKey returns the asset key of the collateral asset at index i.
func AssetKey(i int) string {
	return assetKeyPrefix + strconv.Itoa(i)
}

// ParseAssetKey parses "$base" or "$assetN". For the base key the index is -1.
func ParseAssetKey(key string) (index int, base bool, err error) {
	if key == BaseKey {
		return -1, true, nil
	}
	raw, ok := strings.CutPrefix(key, assetKeyPrefix)
	if !ok {
		return 0, false, fmt.Errorf("invalid asset key %q: want %s or %sN", key, BaseKey, assetKeyPrefix)
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, false, fmt.Errorf("invalid asset key %q: bad index", key)
	}

	return i, false, nil
}

// FilterFunc decides whether a scenario applies to a context.
type FilterFunc[C any] func(ctx context.Context, c C) (bool, error)

// Balances maps actor name to asset key to the required amount.
type Balances map[string]map[string]AmountSpec

// Actors returns the actor names in sorted order.
func (b Balances) Actors() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

func (b Balances) validate(field string) error {
	var errs []error
	for actor, assets := range b {
		if !actorNameRe.MatchString(actor) {
			errs = append(errs, fmt.Errorf("%s: invalid actor name %q", field, actor))
		}
		for key := range assets {
			if _, _, err := ParseAssetKey(key); err != nil {
				errs = append(errs, fmt.Errorf("%s: actor %s: %w", field, actor, err))
			}
		}
	}

	return errors.Join(errs...)
}

// PauseFlag names one pausable protocol action.
type PauseFlag string

const (
	SupplyPaused   PauseFlag = "supplyPaused"
	TransferPaused PauseFlag = "transferPaused"
	WithdrawPaused PauseFlag = "withdrawPaused"
	AbsorbPaused   PauseFlag = "absorbPaused"
	BuyPaused      PauseFlag = "buyPaused"
)

// AllPauseFlags returns every pause flag in the order the protocol's pause call takes them.
func AllPauseFlags() []PauseFlag {
	return []PauseFlag{SupplyPaused, TransferPaused, WithdrawPaused, AbsorbPaused, BuyPaused}
}

// PauseFlags is the requested state of a subset of pause flags.
type PauseFlags map[PauseFlag]bool

// Requirements are the declarative preconditions of a scenario. Every field is optional; the zero
// value requires nothing.
type Requirements[C any] struct {
	// Filter decides whether the scenario applies to a world at all. Nil means it always applies.
	Filter FilterFunc[C]

	// Balances are protocol balances per actor, keyed by asset key.
	Balances Balances

	// TokenBalances are wallet balances per actor, keyed by asset key.
	TokenBalances Balances

	// Pause requests the state of pause flags.
	Pause PauseFlags

	// IncludeMigrations asks for the scenario to run against every subset of pending migrations.
	IncludeMigrations bool

	// Upgrade asks for the scenario to also run after an in-place upgrade of the implementation.
	Upgrade bool
}

// Validate checks actor names, asset keys and pause flag names.
func (r Requirements[C]) Validate() error {
	errs := []error{
		r.Balances.validate("balances"),
		r.TokenBalances.validate("token balances"),
	}
	for flag := range r.Pause {
		if !slices.Contains(AllPauseFlags(), flag) {
			errs = append(errs, fmt.Errorf("pause: unknown flag %q", flag))
		}
	}

	return errors.Join(errs...)
}
