package migration

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrMigrationNotFound = errors.New("migration not found")
	ErrMigrationArchived = errors.New("migration is archived")
)

// Key identifies the deployment migrations belong to.
type Key struct {
	Network    string
	Deployment string
}

// String returns "<network>/<deployment>".
func (k Key) String() string {
	return k.Network + "/" + k.Deployment
}

type registryEntry struct {
	migration Migration

	// gitSHA is the commit the migration was archived at. Archived migrations are already enacted
	// on the deployment and are no longer discovered.
	gitSHA *string
}

func (e registryEntry) isArchived() bool {
	return e.gitSHA != nil
}

// Registry holds the migrations of every deployment, in the order they were added.
type Registry struct {
	mu sync.Mutex

	entries map[Key]map[string]registryEntry

	// history is the list of migration names per deployment in the order they were added.
	history map[Key][]string

	// validate enables or disables migration name validation.
	validate bool
}

// NewRegistry creates an empty Registry with name validation enabled.
func NewRegistry() *Registry {
	return &Registry{
		entries:  make(map[Key]map[string]registryEntry),
		history:  make(map[Key][]string),
		validate: true,
	}
}

// SetValidate sets whether migration names are validated on Add.
func (r *Registry) SetValidate(validate bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.validate = validate
}

// Add registers a migration for a deployment. Names must follow the "index_name" format with
// indexes increasing within a deployment, unless validation is disabled. Add panics on invalid
// names, duplicates and migrations without actions.
func (r *Registry) Add(network, deployment string, m Migration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key{Network: network, Deployment: deployment}
	if m.Actions.Prepare == nil || m.Actions.Enact == nil {
		panic(fmt.Sprintf("migration '%s' of %s must have prepare and enact actions", m.Name, key))
	}
	if _, ok := r.entries[key][m.Name]; ok {
		panic(fmt.Sprintf("migration '%s' of %s is already registered", m.Name, key))
	}
	if r.validate {
		if err := r.validateName(key, m.Name); err != nil {
			panic(fmt.Errorf("invalid migration name '%s': %w", m.Name, err))
		}
	}

	r.put(key, m.Name, registryEntry{migration: m})
}

// Archive marks a migration of a deployment as enacted at gitSHA.
func (r *Registry) Archive(network, deployment, name, gitSHA string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key{Network: network, Deployment: deployment}
	entry := r.entries[key][name]
	entry.gitSHA = &gitSHA
	if _, ok := r.entries[key][name]; ok {
		r.entries[key][name] = entry
		return
	}
	r.put(key, name, entry)
}

func (r *Registry) put(key Key, name string, entry registryEntry) {
	if r.entries[key] == nil {
		r.entries[key] = make(map[string]registryEntry)
	}
	r.entries[key][name] = entry
	r.history[key] = append(r.history[key], name)
}

// Discover returns the pending migrations of a deployment in the order they were added.
func (r *Registry) Discover(network, deployment string) []Migration {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key{Network: network, Deployment: deployment}
	out := make([]Migration, 0, len(r.history[key]))
	for _, name := range r.history[key] {
		if e := r.entries[key][name]; !e.isArchived() {
			out = append(out, e.migration)
		}
	}

	return out
}

// Get returns a pending migration of a deployment.
func (r *Registry) Get(network, deployment, name string) (Migration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := Key{Network: network, Deployment: deployment}
	e, ok := r.entries[key][name]
	if !ok {
		return Migration{}, fmt.Errorf("%w: '%s' of %s", ErrMigrationNotFound, name, key)
	}
	if e.isArchived() {
		return Migration{}, fmt.Errorf("%w: '%s' of %s at SHA '%s'", ErrMigrationArchived, name, key, *e.gitSHA)
	}

	return e.migration, nil
}

// Keys returns every deployment with registered migrations, sorted.
func (r *Registry) Keys() []Key {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]Key, 0, len(r.history))
	for k := range r.history {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int { return strings.Compare(a.String(), b.String()) })

	return keys
}

func (r *Registry) validateName(key Key, name string) error {
	currentIndex, err := extractIndexFromName(name)
	if err != nil {
		return err
	}

	history := r.history[key]
	if len(history) > 0 {
		last := history[len(history)-1]
		lastIndex, err := extractIndexFromName(last)
		if err != nil {
			return fmt.Errorf("invalid previous migration name '%s': %w", last, err)
		}
		if currentIndex <= lastIndex {
			return fmt.Errorf("migration index must be monotonically increasing: got %d, previous was %d",
				currentIndex, lastIndex)
		}
	}

	return nil
}

// extractIndexFromName extracts the numerical index from a migration name.
// Expected format: "0001_migration_name" where "0001" is the index.
func extractIndexFromName(name string) (int, error) {
	index, rest, ok := strings.Cut(name, "_")
	if !ok || rest == "" {
		return 0, fmt.Errorf("name '%s' does not follow the format 'index_name'", name)
	}

	i, err := strconv.Atoi(index)
	if err != nil {
		return 0, fmt.Errorf("could not parse index from name '%s': %w", name, err)
	}

	return i, nil
}
