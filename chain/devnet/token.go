package devnet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// FaucetTokenArtifact is the artifact path of the faucet token.
const FaucetTokenArtifact = "test/FaucetToken.sol"

type tokenState struct {
	name       string
	symbol     string
	decimals   uint8
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

func (t *tokenState) clone() contractState {
	c := *t
	c.supply = new(big.Int).Set(t.supply)
	c.balances = cloneBalances(t.balances)
	c.allowances = make(map[common.Address]map[common.Address]*big.Int, len(t.allowances))
	for owner, m := range t.allowances {
		c.allowances[owner] = cloneBalances(m)
	}

	return &c
}

func (t *tokenState) balanceOf(account common.Address) *big.Int {
	if b, ok := t.balances[account]; ok {
		return new(big.Int).Set(b)
	}

	return new(big.Int)
}

func (t *tokenState) allowance(owner, spender common.Address) *big.Int {
	if a, ok := t.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}

	return new(big.Int)
}

func (t *tokenState) mint(to common.Address, amount *big.Int) {
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)
	t.supply = new(big.Int).Add(t.supply, amount)
}

func (t *tokenState) approve(owner, spender common.Address, amount *big.Int) {
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[common.Address]*big.Int)
	}
	t.allowances[owner][spender] = new(big.Int).Set(amount)
}

func (t *tokenState) transfer(from, to common.Address, amount *big.Int) error {
	bal := t.balanceOf(from)
	if bal.Cmp(amount) < 0 {
		return reasonError("ERC20: transfer amount exceeds balance")
	}
	t.balances[from] = bal.Sub(bal, amount)
	t.balances[to] = new(big.Int).Add(t.balanceOf(to), amount)

	return nil
}

func (t *tokenState) transferFrom(spender, from, to common.Address, amount *big.Int) error {
	allowed := t.allowance(from, spender)
	if spender != from && allowed.Cmp(maxUint256) != 0 {
		if allowed.Cmp(amount) < 0 {
			return reasonError("ERC20: insufficient allowance")
		}
		t.approve(from, spender, allowed.Sub(allowed, amount))
	}

	return t.transfer(from, to, amount)
}

// Token is a faucet ERC20 token: anybody can allocate themselves tokens.
type Token struct {
	c    *Chain
	addr common.Address
}

// DeployFaucetToken deploys a token minting initialAmount to the deployer.
func DeployFaucetToken(
	opts *bind.TransactOpts, c *Chain, initialAmount *big.Int, name string, decimals uint8, symbol string,
) (*Token, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(from, _ common.Address) (contractState, error) {
		t := &tokenState{
			name:       name,
			symbol:     symbol,
			decimals:   decimals,
			supply:     new(big.Int),
			balances:   make(map[common.Address]*big.Int),
			allowances: make(map[common.Address]map[common.Address]*big.Int),
		}
		t.mint(from, initialAmount)

		return t, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &Token{c: c, addr: addr}, receipt, nil
}

// NewToken binds the token deployed at addr.
func NewToken(c *Chain, addr common.Address) *Token {
	return &Token{c: c, addr: addr}
}

// Address returns the token address.
func (t *Token) Address() common.Address { return t.addr }

func (t *Token) Name(opts *bind.CallOpts) (string, error) {
	return view(t.c, opts, t.addr, func(st *tokenState) (string, error) { return st.name, nil })
}

func (t *Token) Symbol(opts *bind.CallOpts) (string, error) {
	return view(t.c, opts, t.addr, func(st *tokenState) (string, error) { return st.symbol, nil })
}

func (t *Token) Decimals(opts *bind.CallOpts) (uint8, error) {
	return view(t.c, opts, t.addr, func(st *tokenState) (uint8, error) { return st.decimals, nil })
}

func (t *Token) TotalSupply(opts *bind.CallOpts) (*big.Int, error) {
	return view(t.c, opts, t.addr, func(st *tokenState) (*big.Int, error) { return new(big.Int).Set(st.supply), nil })
}

func (t *Token) BalanceOf(opts *bind.CallOpts, account common.Address) (*big.Int, error) {
	return view(t.c, opts, t.addr, func(st *tokenState) (*big.Int, error) { return st.balanceOf(account), nil })
}

func (t *Token) Allowance(opts *bind.CallOpts, owner, spender common.Address) (*big.Int, error) {
	return view(t.c, opts, t.addr, func(st *tokenState) (*big.Int, error) { return st.allowance(owner, spender), nil })
}

// AllocateTo mints amount to the given account.
func (t *Token) AllocateTo(opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.c.send(opts, "allocateTo", func(common.Address) (common.Address, error) {
		st, err := stateAt[*tokenState](t.c, t.addr)
		if err != nil {
			return common.Address{}, err
		}
		st.mint(to, amount)

		return common.Address{}, nil
	})
}

func (t *Token) Approve(opts *bind.TransactOpts, spender common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.c.send(opts, "approve", func(from common.Address) (common.Address, error) {
		st, err := stateAt[*tokenState](t.c, t.addr)
		if err != nil {
			return common.Address{}, err
		}
		st.approve(from, spender, amount)

		return common.Address{}, nil
	})
}

func (t *Token) Transfer(opts *bind.TransactOpts, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.c.send(opts, "transfer", func(from common.Address) (common.Address, error) {
		st, err := stateAt[*tokenState](t.c, t.addr)
		if err != nil {
			return common.Address{}, err
		}

		return common.Address{}, st.transfer(from, to, amount)
	})
}

func (t *Token) TransferFrom(opts *bind.TransactOpts, from, to common.Address, amount *big.Int) (*types.Receipt, error) {
	return t.c.send(opts, "transferFrom", func(spender common.Address) (common.Address, error) {
		st, err := stateAt[*tokenState](t.c, t.addr)
		if err != nil {
			return common.Address{}, err
		}

		return common.Address{}, st.transferFrom(spender, from, to, amount)
	})
}
