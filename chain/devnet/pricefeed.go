package devnet

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SimplePriceFeedArtifact is the artifact path of the settable price feed.
const SimplePriceFeedArtifact = "test/SimplePriceFeed.sol"

// PriceFeedDecimals is the number of decimals Comet requires of every price feed.
const PriceFeedDecimals = 8

type priceFeedState struct {
	decimals uint8
	price    *big.Int
}

func (p *priceFeedState) clone() contractState {
	return &priceFeedState{decimals: p.decimals, price: new(big.Int).Set(p.price)}
}

// PriceFeed is a price feed whose answer is set by hand.
type PriceFeed struct {
	c    *Chain
	addr common.Address
}

// DeploySimplePriceFeed deploys a feed answering initialPrice.
func DeploySimplePriceFeed(
	opts *bind.TransactOpts, c *Chain, initialPrice *big.Int, decimals uint8,
) (*PriceFeed, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(_, _ common.Address) (contractState, error) {
		return &priceFeedState{decimals: decimals, price: new(big.Int).Set(initialPrice)}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &PriceFeed{c: c, addr: addr}, receipt, nil
}

// NewPriceFeed binds the feed deployed at addr.
func NewPriceFeed(c *Chain, addr common.Address) *PriceFeed {
	return &PriceFeed{c: c, addr: addr}
}

// Address returns the feed address.
func (p *PriceFeed) Address() common.Address { return p.addr }

func (p *PriceFeed) Decimals(opts *bind.CallOpts) (uint8, error) {
	return view(p.c, opts, p.addr, func(st *priceFeedState) (uint8, error) { return st.decimals, nil })
}

// LatestAnswer returns the current price.
func (p *PriceFeed) LatestAnswer(opts *bind.CallOpts) (*big.Int, error) {
	return view(p.c, opts, p.addr, func(st *priceFeedState) (*big.Int, error) { return new(big.Int).Set(st.price), nil })
}

func (p *PriceFeed) SetPrice(opts *bind.TransactOpts, price *big.Int) (*types.Receipt, error) {
	return p.c.send(opts, "setPrice", func(common.Address) (common.Address, error) {
		st, err := stateAt[*priceFeedState](p.c, p.addr)
		if err != nil {
			return common.Address{}, err
		}
		st.price = new(big.Int).Set(price)

		return common.Address{}, nil
	})
}
