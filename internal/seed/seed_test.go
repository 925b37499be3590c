package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldtrace/fieldtrace/internal/model"
	"github.com/fieldtrace/fieldtrace/internal/store"
)

const fixture = `
actor: admin
users:
  - username: admin
    full_name: Administrator
tables:
  vehicles:
    - ref: truck
      plate: ABC-123
      company_id: "@acme"
  transport_companies:
    - ref: acme
      name: Acme Logistics
  producers:
    - ref: p001
      code: P001
  plantations:
    - producer_id: "@p001"
  processes:
    - producer_id: "@p001"
      vehicle_id: "@truck"
      transport_company_id: "@acme"
`

func openStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, store.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "seed.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Migrate(ctx)
	require.NoError(t, err)
	return s
}

func TestApply(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	f, err := Parse([]byte(fixture))
	require.NoError(t, err)

	res, err := Apply(ctx, s, f)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Users)
	assert.Equal(t, map[string]int{
		model.TableTransportCompanies: 1,
		model.TableVehicles:           1,
		model.TableProducers:          1,
		model.TablePlantations:        1,
		model.TableProcesses:          1,
	}, res.Counts)

	vehicle, err := store.Get[model.Vehicle](ctx, s, res.Refs["truck"])
	require.NoError(t, err)
	require.NotNil(t, vehicle.CompanyID)
	assert.Equal(t, res.Refs["acme"], *vehicle.CompanyID)
	assert.Equal(t, "ABC-123", *vehicle.Plate)

	admin, err := s.FindUser(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, vehicle.CreatedByID)

	// Seeded rows are protected like any other.
	err = s.Delete(ctx, &model.Producer{Model: model.Model{ID: res.Refs["p001"]}})
	assert.ErrorIs(t, err, store.ErrReferentialIntegrity)
}

func TestApplyLeavesFixtureReusable(t *testing.T) {
	ctx := context.Background()

	f, err := Parse([]byte(fixture))
	require.NoError(t, err)

	first, err := Apply(ctx, openStore(t), f)
	require.NoError(t, err)

	s := openStore(t)
	second, err := Apply(ctx, s, f)
	require.NoError(t, err)
	assert.Equal(t, first.Counts, second.Counts)
	assert.Equal(t, first.Refs, second.Refs)

	vehicle, err := store.Get[model.Vehicle](ctx, s, second.Refs["truck"])
	require.NoError(t, err)
	require.NotNil(t, vehicle.CompanyID)
	assert.Equal(t, second.Refs["acme"], *vehicle.CompanyID)
}

func TestApplyReusesExistingUsers(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateUser(ctx, &model.User{Username: "admin"}))

	f, err := Parse([]byte("users:\n  - username: admin\ntables:\n  ports:\n    - name: Valparaiso\n"))
	require.NoError(t, err)

	res, err := Apply(ctx, s, f)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Users)
	assert.Equal(t, 1, res.Counts[model.TablePorts])
}

func TestApplyUnknownRef(t *testing.T) {
	s := openStore(t)

	f, err := Parse([]byte("users:\n  - username: admin\ntables:\n  vehicles:\n    - company_id: \"@nobody\"\n"))
	require.NoError(t, err)

	_, err = Apply(context.Background(), s, f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown ref "@nobody"`)
}

func TestApplyWithoutActor(t *testing.T) {
	s := openStore(t)

	f, err := Parse([]byte("tables:\n  ports:\n    - name: Valparaiso\n"))
	require.NoError(t, err)

	_, err = Apply(context.Background(), s, f)
	assert.Error(t, err)
}

func TestParseRejectsUnknownTable(t *testing.T) {
	_, err := Parse([]byte("tables:\n  pallets:\n    - name: x\n"))
	assert.ErrorContains(t, err, "pallets")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "admin", f.Actor)
	assert.Len(t, f.Tables, 5)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
