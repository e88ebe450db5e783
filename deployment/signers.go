package deployment

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
)

var ErrSignerStackEmpty = errors.New("signer stack is empty")

// SignerStack is the stack of default transaction signers of a Manager. The top of the stack
// signs every transaction that is not explicitly given a signer.
//
// Temporary privilege elevation must go through Elevate or WithSigner, which guarantee that the
// stack is restored on every exit path. Push and Pop are exposed for the base signers a Manager
// is created with.
type SignerStack struct {
	mu      sync.Mutex
	signers []*bind.TransactOpts
}

// NewSignerStack creates a stack whose default signer is the last of the given signers.
func NewSignerStack(signers ...*bind.TransactOpts) *SignerStack {
	s := &SignerStack{}
	s.signers = append(s.signers, signers...)

	return s
}

// Push makes signer the default signer.
func (s *SignerStack) Push(signer *bind.TransactOpts) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signers = append(s.signers, signer)
}

// Pop removes and returns the default signer.
func (s *SignerStack) Pop() (*bind.TransactOpts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.signers) == 0 {
		return nil, ErrSignerStackEmpty
	}
	top := s.signers[len(s.signers)-1]
	s.signers = s.signers[:len(s.signers)-1]

	return top, nil
}

// Default returns the current default signer.
func (s *SignerStack) Default() (*bind.TransactOpts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.signers) == 0 {
		return nil, ErrSignerStackEmpty
	}

	return s.signers[len(s.signers)-1], nil
}

// Len returns the depth of the stack.
func (s *SignerStack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.signers)
}

// Elevate pushes signer as the default signer and returns the function that releases it.
//
// Release restores the stack to the depth it had before Elevate, which also drops any signer
// pushed and not popped in between. Calling release more than once is a no-op.
func (s *SignerStack) Elevate(signer *bind.TransactOpts) (release func()) {
	s.mu.Lock()
	depth := len(s.signers)
	s.signers = append(s.signers, signer)
	s.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			if len(s.signers) > depth {
				clear(s.signers[depth:])
				s.signers = s.signers[:depth]
			}
		})
	}
}

// WithSigner runs fn with signer as the default signer. The signer is released when fn returns,
// fails or panics.
func (s *SignerStack) WithSigner(signer *bind.TransactOpts, fn func() error) error {
	release := s.Elevate(signer)
	defer release()

	return fn()
}

// Clone returns a stack holding the same signers.
func (s *SignerStack) Clone() *SignerStack {
	s.mu.Lock()
	defer s.mu.Unlock()

	return NewSignerStack(s.signers...)
}
