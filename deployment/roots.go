package deployment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/ethereum/go-ethereum/common"
)

const rootsFileName = "roots.json"

// Roots are the named entry-point addresses of a deployment from which the rest of the contract
// graph is discovered. Names iterate in sorted order and addresses are stored EIP-55 checksummed.
type Roots struct {
	mu    sync.RWMutex
	names *treemap.Map
}

// NewRoots creates an empty set of roots.
func NewRoots() *Roots {
	return &Roots{names: treemap.NewWithStringComparator()}
}

// Set registers address under name, replacing any previous address.
func (r *Roots) Set(name string, address string) error {
	if name == "" {
		return errors.New("root name must not be empty")
	}
	if !common.IsHexAddress(address) {
		return fmt.Errorf("root %s: %w: %s", name, ErrInvalidAddress, address)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.names.Put(name, common.HexToAddress(address))

	return nil
}

// SetAddress registers address under name.
func (r *Roots) SetAddress(name string, address common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.names.Put(name, address)
}

// Get returns the address registered under name.
func (r *Roots) Get(name string) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.names.Get(name)
	if !ok {
		return common.Address{}, false
	}

	return v.(common.Address), true
}

// Names returns the registered names in sorted order.
func (r *Roots) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, r.names.Size())
	for _, k := range r.names.Keys() {
		names = append(names, k.(string))
	}

	return names
}

// Len returns the number of roots.
func (r *Roots) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.names.Size()
}

// Clone returns an independent copy.
func (r *Roots) Clone() *Roots {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRoots()
	it := r.names.Iterator()
	for it.Next() {
		c.names.Put(it.Key(), it.Value())
	}

	return c
}

// MarshalJSON encodes the roots as an object of name to checksummed address.
func (r *Roots) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, r.names.Size())
	it := r.names.Iterator()
	for it.Next() {
		out[it.Key().(string)] = it.Value().(common.Address).Hex()
	}

	return json.Marshal(out)
}

// UnmarshalJSON decodes an object of name to address, rejecting malformed addresses.
func (r *Roots) UnmarshalJSON(data []byte) error {
	var in map[string]string
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	decoded := NewRoots()
	for name, addr := range in {
		if err := decoded.Set(name, addr); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = decoded.names

	return nil
}

// RootsPath returns the location of the roots file of a deployment under dir.
func RootsPath(dir, network, deployment string) string {
	return filepath.Join(dir, network, deployment, rootsFileName)
}

// LoadRoots reads the roots file of a deployment. A missing file yields empty roots.
func LoadRoots(dir, network, deployment string) (*Roots, error) {
	b, err := os.ReadFile(RootsPath(dir, network, deployment))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewRoots(), nil
		}

		return nil, fmt.Errorf("failed to read roots: %w", err)
	}

	roots := NewRoots()
	if err := json.Unmarshal(b, roots); err != nil {
		return nil, fmt.Errorf("failed to decode roots of %s/%s: %w", network, deployment, err)
	}

	return roots, nil
}

// SaveRoots writes the roots file of a deployment, creating its directory if needed.
func SaveRoots(dir, network, deployment string, roots *Roots) error {
	path := RootsPath(dir, network, deployment)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create deployment directory: %w", err)
	}

	b, err := json.MarshalIndent(roots, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode roots: %w", err)
	}

	return os.WriteFile(path, b, 0o600)
}
