package migration

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/comet-scenarios/deployment"
	"github.com/smartcontractkit/comet-scenarios/operations"
	"github.com/smartcontractkit/comet-scenarios/pkg/logger"
)

// fakeManager is a deployment.Manager that only tracks signers.
type fakeManager struct {
	signers *deployment.SignerStack
}

func (m *fakeManager) Network() string { return "development" }
func (m *fakeManager) Deployment() string { return "dai" }
func (m *fakeManager) Deploy(context.Context, string, ...any) (deployment.Contract, error) {
	return nil, deployment.ErrArtifactNotFound
}
func (m *fakeManager) Roots() *deployment.Roots { return deployment.NewRoots() }
func (m *fakeManager) PutRoots(*deployment.Roots) error { return nil }
func (m *fakeManager) Spider(context.Context) error { return nil }
func (m *fakeManager) Signers() *deployment.SignerStack { return m.signers }
func (m *fakeManager) Contract(string) (deployment.Contract, error) {
	return nil, deployment.ErrContractNotFound
}

func newSigner(t *testing.T) *bind.TransactOpts {
	t.Helper()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	return keyedSigner(t, key)
}

func keyedSigner(t *testing.T, key *ecdsa.PrivateKey) *bind.TransactOpts {
	t.Helper()

	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(1337))
	require.NoError(t, err)

	return opts
}

// journal records the steps migrations run and the signer each step ran under.
type journal struct {
	mu    sync.Mutex
	steps []string
}

func (j *journal) add(step string) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.steps = append(j.steps, step)
}

func recordingMigration(t *testing.T, j *journal, name string, proposer *bind.TransactOpts) Migration {
	t.Helper()

	assertProposer := func(m deployment.Manager) {
		top, err := m.Signers().Default()
		require.NoError(t, err)
		assert.Equal(t, proposer.From, top.From)
	}

	return Migration{
		Name: name,
		Actions: Actions{
			Prepare: func(_ context.Context, m deployment.Manager) (Artifact, error) {
				assertProposer(m)
				j.add("prepare " + name)

				return Artifact{"name": name}, nil
			},
			Enact: func(_ context.Context, m deployment.Manager, a Artifact) error {
				assertProposer(m)
				assert.Equal(t, name, a["name"])
				j.add("enact " + name)

				return nil
			},
		},
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	proposer := newSigner(t)
	j := &journal{}

	r := NewRegistry()
	r.Add("development", "dai", recordingMigration(t, j, "0001_deploy_ext", proposer))
	r.Add("development", "dai", recordingMigration(t, j, "0002_raise_cap", proposer))
	r.Add("development", "usdc", recordingMigration(t, j, "0001_raise_cap", proposer))

	assert.Equal(t, []string{"0001_deploy_ext", "0002_raise_cap"}, Names(r.Discover("development", "dai")))
	assert.Empty(t, r.Discover("mainnet", "dai"))
	assert.Equal(t, []Key{{"development", "dai"}, {"development", "usdc"}}, r.Keys())

	r.Archive("development", "dai", "0001_deploy_ext", "abc123")
	assert.Equal(t, []string{"0002_raise_cap"}, Names(r.Discover("development", "dai")))

	_, err := r.Get("development", "dai", "0001_deploy_ext")
	require.ErrorIs(t, err, ErrMigrationArchived)
	_, err = r.Get("development", "dai", "0009_missing")
	require.ErrorIs(t, err, ErrMigrationNotFound)
	got, err := r.Get("development", "dai", "0002_raise_cap")
	require.NoError(t, err)
	assert.Equal(t, "0002_raise_cap", got.Name)
}

func TestRegistry_AddPanics(t *testing.T) {
	t.Parallel()

	noop := Actions{
		Prepare: func(context.Context, deployment.Manager) (Artifact, error) { return nil, nil },
		Enact:   func(context.Context, deployment.Manager, Artifact) error { return nil },
	}

	tests := []struct {
		name string
		add  func(r *Registry)
	}{
		{
			name: "missing index",
			add:  func(r *Registry) { r.Add("development", "dai", Migration{Name: "raise", Actions: noop}) },
		},
		{
			name: "non numeric index",
			add:  func(r *Registry) { r.Add("development", "dai", Migration{Name: "one_raise", Actions: noop}) },
		},
		{
			name: "index not increasing",
			add: func(r *Registry) {
				r.Add("development", "dai", Migration{Name: "0002_b", Actions: noop})
				r.Add("development", "dai", Migration{Name: "0001_a", Actions: noop})
			},
		},
		{
			name: "duplicate",
			add: func(r *Registry) {
				r.SetValidate(false)
				r.Add("development", "dai", Migration{Name: "0001_a", Actions: noop})
				r.Add("development", "dai", Migration{Name: "0001_a", Actions: noop})
			},
		},
		{
			name: "missing actions",
			add:  func(r *Registry) { r.Add("development", "dai", Migration{Name: "0001_a"}) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Panics(t, func() { tt.add(NewRegistry()) })
		})
	}
}

func TestSortByName(t *testing.T) {
	t.Parallel()

	in := []Migration{{Name: "0003_c"}, {Name: "0001_a"}, {Name: "0002_b"}}
	sorted := SortByName(in)

	assert.Equal(t, []string{"0001_a", "0002_b", "0003_c"}, Names(sorted))
	assert.Equal(t, []string{"0003_c", "0001_a", "0002_b"}, Names(in))
}

func TestEnact_AscendingOrder(t *testing.T) {
	t.Parallel()

	base := newSigner(t)
	proposer := newSigner(t)
	m := &fakeManager{signers: deployment.NewSignerStack(base)}
	j := &journal{}

	// Discovered in reverse sorted order.
	r := NewRegistry()
	r.SetValidate(false)
	for _, name := range []string{"0003_c", "0002_b", "0001_a"} {
		r.Add("development", "dai", recordingMigration(t, j, name, proposer))
	}
	discovered := r.Discover("development", "dai")
	require.Equal(t, []string{"0003_c", "0002_b", "0001_a"}, Names(discovered))

	reporter := operations.NewMemoryReporter()
	b := operations.NewBundle(t.Context(), logger.Test(t), reporter)
	require.NoError(t, Enact(t.Context(), b, m, proposer, discovered))

	assert.Equal(t, []string{
		"prepare 0001_a", "enact 0001_a",
		"prepare 0002_b", "enact 0002_b",
		"prepare 0003_c", "enact 0003_c",
	}, j.steps)
	assert.Equal(t, 1, m.signers.Len())

	reports, err := reporter.GetReports()
	require.NoError(t, err)
	require.Len(t, reports, 6)
	assert.Equal(t, "migration-prepare", reports[0].Def.ID)
	assert.Equal(t, "migration-enact", reports[1].Def.ID)
	assert.Equal(t, Artifact{"name": "0001_a"}, reports[1].Input.(EnactInput).Artifact)
}

func TestEnact_ReleasesProposer(t *testing.T) {
	t.Parallel()

	errRevert := errors.New("custom error 'Unauthorized()'")

	ok := func(context.Context, deployment.Manager) (Artifact, error) { return Artifact{}, nil }
	enactOK := func(context.Context, deployment.Manager, Artifact) error { return nil }

	tests := []struct {
		name       string
		migrations []Migration
		wantErr    error
		wantMsg    string
		panics     bool
	}{
		{
			name: "no migrations",
		},
		{
			name: "prepare fails",
			migrations: []Migration{{Name: "0001_a", Actions: Actions{
				Prepare: func(context.Context, deployment.Manager) (Artifact, error) { return nil, errRevert },
				Enact:   enactOK,
			}}},
			wantErr: errRevert,
			wantMsg: "prepare 0001_a",
		},
		{
			name: "second enact fails",
			migrations: []Migration{
				{Name: "0002_b", Actions: Actions{
					Prepare: ok,
					Enact:   func(context.Context, deployment.Manager, Artifact) error { return errRevert },
				}},
				{Name: "0001_a", Actions: Actions{Prepare: ok, Enact: enactOK}},
			},
			wantErr: errRevert,
			wantMsg: "enact 0002_b",
		},
		{
			name: "artifact is not serializable",
			migrations: []Migration{{Name: "0001_a", Actions: Actions{
				Prepare: func(context.Context, deployment.Manager) (Artifact, error) {
					return Artifact{"cap": math.NaN()}, nil
				},
				Enact: enactOK,
			}}},
			wantErr: operations.ErrNotSerializable,
		},
		{
			name: "enact panics",
			migrations: []Migration{{Name: "0001_a", Actions: Actions{
				Prepare: ok,
				Enact:   func(context.Context, deployment.Manager, Artifact) error { panic("boom") },
			}}},
			panics: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := &fakeManager{signers: deployment.NewSignerStack(newSigner(t))}
			b := operations.NewBundle(t.Context(), logger.Test(t), operations.NewMemoryReporter())
			enact := func() error { return Enact(t.Context(), b, m, newSigner(t), tt.migrations) }

			switch {
			case tt.panics:
				assert.Panics(t, func() { _ = enact() })
			case tt.wantErr != nil:
				err := enact()
				require.ErrorIs(t, err, tt.wantErr)
				if tt.wantMsg != "" {
					require.ErrorContains(t, err, tt.wantMsg)
				}
			default:
				require.NoError(t, enact())
			}

			assert.Equal(t, 1, m.signers.Len())
		})
	}
}

func TestEnact_RequiresProposer(t *testing.T) {
	t.Parallel()

	m := &fakeManager{signers: deployment.NewSignerStack()}
	b := operations.NewBundle(t.Context(), logger.Nop(), operations.NewMemoryReporter())
	require.ErrorContains(t, Enact(t.Context(), b, m, nil, nil), "proposer is required")
	assert.Equal(t, 0, m.signers.Len())
}
