// Package devnet is an in-memory development chain with the protocol contracts the scenario
// suite needs.
//
// The chain keeps EVM semantics where scenarios can observe them: accounts and nonces, native
// balances paying for gas, atomic transactions whose reverts carry ABI encoded custom errors, and
// receipts with deterministic gas. It does not execute bytecode; contracts are Go
// implementations of their Solidity counterparts. Like a local hardhat node it accepts any
// sender, which makes impersonation free.
//
// A Chain is not safe for concurrent transactions. Fork it to give every concurrent user a
// private copy.
package devnet

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	gethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	chainsel "github.com/smartcontractkit/chain-selectors"

	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

const (
	genesisTimestamp = 1_700_000_000
	blockTime        = 12
	intrinsicGas     = 21_000
	defaultCallGas   = 60_000
)

var (
	defaultBaseFee = big.NewInt(1_000_000_000)
	maxUint256     = gethmath.MaxBig256
)

// gasTable is the gas charged on top of the intrinsic gas per kind of call.
var gasTable = map[string]uint64{
	"deploy":            1_500_000,
	"allocateTo":        30_000,
	"approve":           24_000,
	"transfer":          30_000,
	"transferFrom":      36_000,
	"setPrice":          8_000,
	"supply":            85_000,
	"withdraw":          90_000,
	"transferAsset":     70_000,
	"transferAssetFrom": 74_000,
	"allow":             25_000,
	"approveThis":       28_000,
	"pause":             12_000,
	"propose":           110_000,
	"queue":             45_000,
	"execute":           80_000,
	"upgrade":           16_000,
	"deployAndUpgrade":  1_900_000,
	"configure":         35_000,
}

func gasFor(kind string) uint64 {
	if g, ok := gasTable[kind]; ok {
		return intrinsicGas + g
	}

	return intrinsicGas + defaultCallGas
}

// contractState is the storage of one contract.
type contractState interface {
	clone() contractState
}

type state struct {
	block     uint64
	timestamp uint64
	nonces    map[common.Address]uint64
	native    map[common.Address]*big.Int
	contracts map[common.Address]contractState
}

func (s *state) clone() *state {
	c := &state{
		block:     s.block,
		timestamp: s.timestamp,
		nonces:    maps.Clone(s.nonces),
		native:    cloneBalances(s.native),
		contracts: make(map[common.Address]contractState, len(s.contracts)),
	}
	for addr, cs := range s.contracts {
		c.contracts[addr] = cs.clone()
	}

	return c
}

func cloneBalances(m map[common.Address]*big.Int) map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int, len(m))
	for k, v := range m {
		out[k] = new(big.Int).Set(v)
	}

	return out
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithLogger sets the logger transactions are logged to.
func WithLogger(lggr logger.Logger) ChainOption {
	return func(c *Chain) {
		c.lggr = lggr
	}
}

// WithBaseFee sets the base fee of every block.
func WithBaseFee(fee *big.Int) ChainOption {
	return func(c *Chain) {
		c.baseFee = new(big.Int).Set(fee)
	}
}

// Chain is an in-memory development chain.
type Chain struct {
	mu sync.Mutex

	lggr     logger.Logger
	selector uint64
	chainID  *big.Int
	baseFee  *big.Int

	// zeroNextBaseFee drops the base fee of the next block to zero.
	zeroNextBaseFee bool

	st       *state
	receipts []*types.Receipt
}

// NewChain creates an empty chain for the EVM chain identified by selector.
func NewChain(selector uint64, opts ...ChainOption) (*Chain, error) {
	id, err := chainsel.GetChainIDFromSelector(selector)
	if err != nil {
		return nil, fmt.Errorf("devnet: %w", err)
	}
	chainID, ok := new(big.Int).SetString(id, 10)
	if !ok {
		return nil, fmt.Errorf("devnet: chain id %q of selector %d is not numeric", id, selector)
	}

	c := &Chain{
		lggr:     logger.Nop(),
		selector: selector,
		chainID:  chainID,
		baseFee:  new(big.Int).Set(defaultBaseFee),
		st: &state{
			timestamp: genesisTimestamp,
			nonces:    make(map[common.Address]uint64),
			native:    make(map[common.Address]*big.Int),
			contracts: make(map[common.Address]contractState),
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Selector returns the chain selector.
func (c *Chain) Selector() uint64 {
	return c.selector
}

// ChainID returns the EVM chain id.
func (c *Chain) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

// BlockNumber returns the number of the latest block.
func (c *Chain) BlockNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.st.block
}

// Fund sets the native balance of addr.
func (c *Chain) Fund(addr common.Address, amount *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.st.native[addr] = new(big.Int).Set(amount)
}

// BalanceAt returns the native balance of addr.
func (c *Chain) BalanceAt(addr common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.nativeOf(addr)
}

func (c *Chain) nativeOf(addr common.Address) *big.Int {
	if b, ok := c.st.native[addr]; ok {
		return new(big.Int).Set(b)
	}

	return new(big.Int)
}

// NonceAt returns the nonce of addr.
func (c *Chain) NonceAt(addr common.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.st.nonces[addr]
}

// SetNextBaseFeeToZero drops the base fee of the next block to zero, so that accounts without
// native balance can send one transaction.
func (c *Chain) SetNextBaseFeeToZero() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.zeroNextBaseFee = true
}

// NewAccount generates a key and returns its transactor.
func (c *Chain) NewAccount() (*bind.TransactOpts, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	return bind.NewKeyedTransactorWithChainID(key, c.chainID)
}

// Impersonate returns a transactor for addr without its key.
func (c *Chain) Impersonate(addr common.Address) *bind.TransactOpts {
	return &bind.TransactOpts{
		From: addr,
		Signer: func(_ common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		},
	}
}

// Receipts returns the receipts of every mined transaction.
func (c *Chain) Receipts() []*types.Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*types.Receipt, len(c.receipts))
	copy(out, c.receipts)

	return out
}

// Fork returns an independent copy of the chain at its latest block.
func (c *Chain) Fork() *Chain {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &Chain{
		lggr:            c.lggr,
		selector:        c.selector,
		chainID:         new(big.Int).Set(c.chainID),
		baseFee:         new(big.Int).Set(c.baseFee),
		zeroNextBaseFee: c.zeroNextBaseFee,
		st:              c.st.clone(),
		receipts:        append([]*types.Receipt(nil), c.receipts...),
	}
}

type internalCallKey struct{}

// internalOpts returns the transactor of a message call made by contract from while executing a
// transaction.
func internalOpts(ctx context.Context, from common.Address) *bind.TransactOpts {
	if ctx == nil {
		ctx = context.Background()
	}

	return &bind.TransactOpts{From: from, Context: context.WithValue(ctx, internalCallKey{}, true)}
}

func isInternal(opts *bind.TransactOpts) bool {
	return opts.Context != nil && opts.Context.Value(internalCallKey{}) != nil
}

// send executes fn as one atomic transaction from opts.From. A failing fn reverts every state
// change it made and no transaction is mined. Message calls made while executing a transaction
// run inline.
func (c *Chain) send(
	opts *bind.TransactOpts, kind string, fn func(from common.Address) (created common.Address, err error),
) (*types.Receipt, error) {
	if opts == nil {
		return nil, errors.New("devnet: transact opts are required")
	}
	if isInternal(opts) {
		_, err := fn(opts.From)
		return nil, err
	}
	if opts.Context != nil {
		if err := opts.Context.Err(); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	from := opts.From
	baseFee := c.baseFee
	if c.zeroNextBaseFee {
		baseFee = new(big.Int)
	}
	price := baseFee
	if opts.GasPrice != nil {
		if opts.GasPrice.Cmp(baseFee) < 0 {
			return nil, fmt.Errorf("max fee per gas less than block base fee: address %s, maxFeePerGas: %s, baseFee: %s",
				from.Hex(), opts.GasPrice, baseFee)
		}
		price = opts.GasPrice
	}
	gas := gasFor(kind)
	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), price)
	if have := c.nativeOf(from); have.Cmp(fee) < 0 {
		return nil, fmt.Errorf("insufficient funds for gas * price + value: address %s have %s want %s",
			from.Hex(), have, fee)
	}

	snapshot := c.st.clone()
	created, err := fn(from)
	if err != nil {
		c.st = snapshot
		c.lggr.Debugw("Transaction reverted", "from", from.Hex(), "kind", kind, "error", err)

		return nil, err
	}

	nonce := c.st.nonces[from]
	c.st.native[from] = new(big.Int).Sub(c.nativeOf(from), fee)
	c.st.nonces[from] = nonce + 1
	c.st.block++
	c.st.timestamp += blockTime
	c.zeroNextBaseFee = false

	receipt := &types.Receipt{
		Type:              types.DynamicFeeTxType,
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: gas,
		GasUsed:           gas,
		EffectiveGasPrice: new(big.Int).Set(price),
		TxHash:            crypto.Keccak256Hash(c.chainID.Bytes(), from.Bytes(), new(big.Int).SetUint64(nonce).Bytes()),
		ContractAddress:   created,
		BlockNumber:       new(big.Int).SetUint64(c.st.block),
		Logs:              []*types.Log{},
	}
	c.receipts = append(c.receipts, receipt)
	c.lggr.Debugw("Transaction mined",
		"from", from.Hex(), "kind", kind, "block", c.st.block, "gas", gas, "tx", receipt.TxHash.Hex())

	return receipt, nil
}

// create executes build as a contract creation transaction. The new contract's address derives
// from the sender and its nonce.
func (c *Chain) create(
	opts *bind.TransactOpts, build func(from, addr common.Address) (contractState, error),
) (common.Address, *types.Receipt, error) {
	var addr common.Address
	receipt, err := c.send(opts, "deploy", func(from common.Address) (common.Address, error) {
		addr = c.nextAddress(from)
		cs, err := build(from, addr)
		if err != nil {
			return common.Address{}, err
		}
		c.st.contracts[addr] = cs

		return addr, nil
	})
	if err != nil {
		return common.Address{}, nil, err
	}

	return addr, receipt, nil
}

// call runs the read-only fn against the latest state.
func (c *Chain) call(opts *bind.CallOpts, fn func() error) error {
	if opts != nil && opts.Context != nil {
		if opts.Context.Value(internalCallKey{}) != nil {
			return fn()
		}
		if err := opts.Context.Err(); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return fn()
}

// view reads the storage of the contract of type T at addr.
func view[T contractState, R any](c *Chain, opts *bind.CallOpts, addr common.Address, fn func(T) (R, error)) (R, error) {
	var out R
	err := c.call(opts, func() error {
		st, err := stateAt[T](c, addr)
		if err != nil {
			return err
		}
		out, err = fn(st)

		return err
	})

	return out, err
}

// IsContract reports whether a contract is deployed at addr.
func (c *Chain) IsContract(addr common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.st.contracts[addr]

	return ok
}

// nextAddress returns the address the next contract created by from gets. Contracts created by
// contracts bump the creator's nonce immediately, as CREATE does.
func (c *Chain) nextAddress(from common.Address) common.Address {
	nonce := c.st.nonces[from]
	if _, isContract := c.st.contracts[from]; isContract {
		c.st.nonces[from] = nonce + 1
	}

	return crypto.CreateAddress(from, nonce)
}

// stateAt returns the storage of the contract of type T at addr.
func stateAt[T contractState](c *Chain, addr common.Address) (T, error) {
	var zero T
	cs, ok := c.st.contracts[addr]
	if !ok {
		return zero, fmt.Errorf("devnet: no contract at %s", addr.Hex())
	}
	typed, ok := cs.(T)
	if !ok {
		return zero, fmt.Errorf("devnet: contract at %s is a %T", addr.Hex(), cs)
	}

	return typed, nil
}

// Timestamp returns the timestamp of the latest block.
func (c *Chain) Timestamp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.st.timestamp
}
