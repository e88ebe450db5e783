package devnet

import (
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	GovernorSimpleArtifact = "test/GovernorSimple.sol"
	SimpleTimelockArtifact = "test/SimpleTimelock.sol"
)

// Action is one message call a timelock makes while executing a proposal. Call receives the
// chain the proposal executes on and must resolve the contracts it calls through it, so that
// proposals survive a Fork.
type Action struct {
	Description string
	Call        func(c *Chain, opts *bind.TransactOpts) error
}

type timelockState struct {
	admin    common.Address
	executed uint64
}

func (t *timelockState) clone() contractState {
	c := *t
	return &c
}

// Timelock executes actions on behalf of its admin, the governor.
type Timelock struct {
	c    *Chain
	addr common.Address
}

// DeploySimpleTimelock deploys a timelock administered by admin.
func DeploySimpleTimelock(opts *bind.TransactOpts, c *Chain, admin common.Address) (*Timelock, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(_, _ common.Address) (contractState, error) {
		return &timelockState{admin: admin}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &Timelock{c: c, addr: addr}, receipt, nil
}

// NewTimelock binds the timelock deployed at addr.
func NewTimelock(c *Chain, addr common.Address) *Timelock {
	return &Timelock{c: c, addr: addr}
}

// Address returns the timelock address.
func (t *Timelock) Address() common.Address { return t.addr }

func (t *Timelock) Admin(opts *bind.CallOpts) (common.Address, error) {
	return view(t.c, opts, t.addr, func(st *timelockState) (common.Address, error) { return st.admin, nil })
}

// Executed returns the number of actions the timelock executed.
func (t *Timelock) Executed(opts *bind.CallOpts) (uint64, error) {
	return view(t.c, opts, t.addr, func(st *timelockState) (uint64, error) { return st.executed, nil })
}

func (t *Timelock) SetAdmin(opts *bind.TransactOpts, admin common.Address) (*types.Receipt, error) {
	return t.c.send(opts, "configure", func(from common.Address) (common.Address, error) {
		st, err := stateAt[*timelockState](t.c, t.addr)
		if err != nil {
			return common.Address{}, err
		}
		if from != st.admin && from != t.addr {
			return common.Address{}, reasonError("Timelock::setAdmin: Call must come from admin.")
		}
		st.admin = admin

		return common.Address{}, nil
	})
}

// ExecuteActions runs actions in order as the timelock. Any failing action reverts them all.
func (t *Timelock) ExecuteActions(opts *bind.TransactOpts, actions []Action) (*types.Receipt, error) {
	return t.c.send(opts, "execute", func(from common.Address) (common.Address, error) {
		st, err := stateAt[*timelockState](t.c, t.addr)
		if err != nil {
			return common.Address{}, err
		}
		if from != st.admin {
			return common.Address{}, reasonError("Timelock::executeTransactions: Call must come from admin.")
		}
		for _, a := range actions {
			if err := a.Call(t.c, internalOpts(opts.Context, t.addr)); err != nil {
				return common.Address{}, err
			}
			st.executed++
		}

		return common.Address{}, nil
	})
}

// ProposalState is the lifecycle stage of a proposal.
type ProposalState uint8

const (
	ProposalActive ProposalState = iota
	ProposalQueued
	ProposalExecuted
)

func (s ProposalState) String() string {
	switch s {
	case ProposalActive:
		return "active"
	case ProposalQueued:
		return "queued"
	case ProposalExecuted:
		return "executed"
	default:
		return fmt.Sprintf("ProposalState(%d)", uint8(s))
	}
}

type proposal struct {
	proposer    common.Address
	description string
	actions     []Action
	state       ProposalState
}

type governorState struct {
	initialized bool
	admins      []common.Address
	timelock    common.Address
	proposals   []proposal
}

func (g *governorState) clone() contractState {
	c := *g
	c.admins = slices.Clone(g.admins)
	c.proposals = slices.Clone(g.proposals)

	return &c
}

func (g *governorState) isAdmin(addr common.Address) bool {
	return slices.Contains(g.admins, addr)
}

func (g *governorState) proposal(id uint64) (*proposal, error) {
	if id >= uint64(len(g.proposals)) {
		return nil, reasonError("GovernorSimple::state: invalid proposal id")
	}

	return &g.proposals[id], nil
}

// Governor is a governor whose admins propose, queue and execute without voting.
type Governor struct {
	c    *Chain
	addr common.Address
}

// DeployGovernorSimple deploys an uninitialized governor.
func DeployGovernorSimple(opts *bind.TransactOpts, c *Chain) (*Governor, *types.Receipt, error) {
	addr, receipt, err := c.create(opts, func(_, _ common.Address) (contractState, error) {
		return &governorState{}, nil
	})
	if err != nil {
		return nil, nil, err
	}

	return &Governor{c: c, addr: addr}, receipt, nil
}

// NewGovernor binds the governor deployed at addr.
func NewGovernor(c *Chain, addr common.Address) *Governor {
	return &Governor{c: c, addr: addr}
}

// Address returns the governor address.
func (g *Governor) Address() common.Address { return g.addr }

func (g *Governor) Timelock(opts *bind.CallOpts) (common.Address, error) {
	return view(g.c, opts, g.addr, func(st *governorState) (common.Address, error) { return st.timelock, nil })
}

func (g *Governor) Admins(opts *bind.CallOpts) ([]common.Address, error) {
	return view(g.c, opts, g.addr, func(st *governorState) ([]common.Address, error) { return slices.Clone(st.admins), nil })
}

func (g *Governor) ProposalCount(opts *bind.CallOpts) (uint64, error) {
	return view(g.c, opts, g.addr, func(st *governorState) (uint64, error) { return uint64(len(st.proposals)), nil })
}

func (g *Governor) State(opts *bind.CallOpts, id uint64) (ProposalState, error) {
	return view(g.c, opts, g.addr, func(st *governorState) (ProposalState, error) {
		p, err := st.proposal(id)
		if err != nil {
			return 0, err
		}

		return p.state, nil
	})
}

// Initialize sets the timelock and the admins. It can run once.
func (g *Governor) Initialize(opts *bind.TransactOpts, timelock common.Address, admins []common.Address) (*types.Receipt, error) {
	return g.c.send(opts, "configure", func(common.Address) (common.Address, error) {
		st, err := stateAt[*governorState](g.c, g.addr)
		if err != nil {
			return common.Address{}, err
		}
		if st.initialized {
			return common.Address{}, reasonError("GovernorSimple::initialize: can only initialize once")
		}
		st.initialized = true
		st.timelock = timelock
		st.admins = slices.Clone(admins)

		return common.Address{}, nil
	})
}

// Propose records a proposal and returns its id.
func (g *Governor) Propose(opts *bind.TransactOpts, description string, actions []Action) (*types.Receipt, uint64, error) {
	var id uint64
	receipt, err := g.c.send(opts, "propose", func(from common.Address) (common.Address, error) {
		st, err := stateAt[*governorState](g.c, g.addr)
		if err != nil {
			return common.Address{}, err
		}
		if !st.isAdmin(from) {
			return common.Address{}, reasonError("GovernorSimple::propose: only governors can propose")
		}
		if len(actions) == 0 {
			return common.Address{}, reasonError("GovernorSimple::propose: must provide actions")
		}
		id = uint64(len(st.proposals))
		st.proposals = append(st.proposals, proposal{
			proposer:    from,
			description: description,
			actions:     slices.Clone(actions),
		})

		return common.Address{}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	return receipt, id, nil
}

func (g *Governor) Queue(opts *bind.TransactOpts, id uint64) (*types.Receipt, error) {
	return g.c.send(opts, "queue", func(from common.Address) (common.Address, error) {
		st, err := stateAt[*governorState](g.c, g.addr)
		if err != nil {
			return common.Address{}, err
		}
		if !st.isAdmin(from) {
			return common.Address{}, reasonError("GovernorSimple::queue: only governors can queue")
		}
		p, err := st.proposal(id)
		if err != nil {
			return common.Address{}, err
		}
		if p.state != ProposalActive {
			return common.Address{}, reasonError("GovernorSimple::queue: proposal can only be queued if it is active")
		}
		p.state = ProposalQueued

		return common.Address{}, nil
	})
}

// Execute hands a queued proposal to the timelock.
func (g *Governor) Execute(opts *bind.TransactOpts, id uint64) (*types.Receipt, error) {
	return g.c.send(opts, "execute", func(from common.Address) (common.Address, error) {
		st, err := stateAt[*governorState](g.c, g.addr)
		if err != nil {
			return common.Address{}, err
		}
		if !st.isAdmin(from) {
			return common.Address{}, reasonError("GovernorSimple::execute: only governors can execute")
		}
		p, err := st.proposal(id)
		if err != nil {
			return common.Address{}, err
		}
		if p.state != ProposalQueued {
			return common.Address{}, reasonError("GovernorSimple::execute: proposal can only be executed if it is queued")
		}
		p.state = ProposalExecuted
		actions := p.actions

		_, err = NewTimelock(g.c, st.timelock).ExecuteActions(internalOpts(opts.Context, g.addr), actions)

		return common.Address{}, err
	})
}

// ProposeAndExecute proposes actions, queues and executes them.
func (g *Governor) ProposeAndExecute(opts *bind.TransactOpts, description string, actions []Action) (*types.Receipt, error) {
	_, id, err := g.Propose(opts, description, actions)
	if err != nil {
		return nil, err
	}
	if _, err := g.Queue(opts, id); err != nil {
		return nil, err
	}

	return g.Execute(opts, id)
}
