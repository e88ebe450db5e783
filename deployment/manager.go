// Package deployment defines the deployment collaborator the scenario engine drives: contract
// deployment, address root bookkeeping and the stack of default transaction signers.
package deployment

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrContractNotFound = errors.New("contract not found")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidAddress   = errors.New("invalid address")
)

// Contract is a handle to a deployed contract. Concrete handles expose typed methods; callers
// type-assert to the protocol interface they need.
type Contract interface {
	Address() common.Address
}

// Manager is the deployment collaborator used by constraints, migrations and scenario bodies.
//
// A Manager is not safe for concurrent mutation: transactions are nonce ordered and the signer
// stack and roots are shared. Combinations that run in parallel must each own a Manager.
type Manager interface {
	// Network is the network identifier of the world this manager deploys to.
	Network() string

	// Deployment is the deployment identifier within the network.
	Deployment() string

	// Deploy deploys the artifact at artifactPath with the given constructor arguments. The
	// transaction is signed by the current default signer.
	Deploy(ctx context.Context, artifactPath string, args ...any) (Contract, error)

	// Roots returns a copy of the named root addresses of the deployment.
	Roots() *Roots

	// PutRoots replaces the named root addresses of the deployment.
	PutRoots(roots *Roots) error

	// Spider re-derives the full deployed contract graph from the roots.
	Spider(ctx context.Context) error

	// Contract returns the contract registered under name by the last Spider.
	Contract(name string) (Contract, error)

	// Signers returns the stack of default signers.
	Signers() *SignerStack
}
