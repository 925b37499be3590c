package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormschema "gorm.io/gorm/schema"

	"github.com/fieldtrace/fieldtrace/internal/model"
	"github.com/fieldtrace/fieldtrace/internal/schema"
)

func TestCreateStampsEnvelope(t *testing.T) {
	s, user, clock := newTestStore(t)
	ctx := context.Background()

	company := &model.TransportCompany{Name: "Acme Logistics"}
	company.IsActive = false
	company.CreatedByID = 999

	require.NoError(t, s.Create(ctx, user.ID, company))
	require.NotZero(t, company.ID)

	got, err := Get[model.TransportCompany](ctx, s, company.ID)
	require.NoError(t, err)

	assert.Equal(t, "Acme Logistics", got.Name)
	assert.True(t, got.IsActive)
	assert.True(t, got.IsEnable)
	assert.Equal(t, user.ID, got.CreatedByID)
	assert.Equal(t, user.ID, got.UpdatedByID)
	assert.WithinDuration(t, clock.now, got.Created, time.Millisecond)
	assert.WithinDuration(t, got.Created, got.Updated, 0)
}

func TestCreateRequiresActor(t *testing.T) {
	s, _, _ := newTestStore(t)

	err := s.Create(context.Background(), 0, &model.Port{Name: "Valparaiso"})
	assert.ErrorIs(t, err, ErrActorRequired)
}

func TestCreateRejectsUnknownActor(t *testing.T) {
	s, _, _ := newTestStore(t)

	err := s.Create(context.Background(), 42, &model.Port{Name: "Valparaiso"})
	require.ErrorIs(t, err, ErrReferentialIntegrity)

	var rie *ReferentialIntegrityError
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, model.TableUsers, rie.Target)
	assert.Equal(t, uint(42), rie.TargetID)
}

func TestCreateValidatesSizes(t *testing.T) {
	s, user, _ := newTestStore(t)

	err := s.Create(context.Background(), user.ID, &model.Producer{Code: strings.Repeat("P", 21)})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "code")
}

func TestOptionalReferences(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	// No plate, no company: both are optional.
	vehicle := &model.Vehicle{}
	require.NoError(t, s.Create(ctx, user.ID, vehicle))

	process := &model.Process{}
	require.NoError(t, s.Create(ctx, user.ID, process))

	got, err := Get[model.Process](ctx, s, process.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ProducerID)
	assert.Nil(t, got.VehicleID)
	assert.Nil(t, got.DriverID)
	assert.Nil(t, got.TransportCompanyID)
}

func TestCreateRejectsDanglingReference(t *testing.T) {
	s, user, _ := newTestStore(t)

	err := s.Create(context.Background(), user.ID, &model.Vehicle{CompanyID: model.Uint(99)})
	require.ErrorIs(t, err, ErrReferentialIntegrity)

	var rie *ReferentialIntegrityError
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, model.TableVehicles, rie.Table)
	assert.Equal(t, "company_id", rie.Column)
	assert.Equal(t, model.TableTransportCompanies, rie.Target)
	assert.Equal(t, "vehicles.company_id references missing transport_companies 99", err.Error())
}

func TestDeleteRestrictedByVehicle(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	company := &model.TransportCompany{Name: "Acme Logistics"}
	require.NoError(t, s.Create(ctx, user.ID, company))
	vehicle := &model.Vehicle{Plate: model.String("ABC-123"), CompanyID: model.Uint(company.ID)}
	require.NoError(t, s.Create(ctx, user.ID, vehicle))

	err := s.Delete(ctx, company)
	require.ErrorIs(t, err, ErrReferentialIntegrity)

	var rie *ReferentialIntegrityError
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, []Dependent{{Table: model.TableVehicles, Column: "company_id", Count: 1}}, rie.Dependents)

	// Both rows survive the refused delete.
	_, err = Get[model.TransportCompany](ctx, s, company.ID)
	require.NoError(t, err)
	got, err := Get[model.Vehicle](ctx, s, vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, company.ID, *got.CompanyID)

	require.NoError(t, s.Delete(ctx, vehicle))
	require.NoError(t, s.Delete(ctx, company))

	_, err = Get[model.TransportCompany](ctx, s, company.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRestrictedByPlantation(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	producer := &model.Producer{Code: "P001"}
	require.NoError(t, s.Create(ctx, user.ID, producer))
	plantation := &model.Plantation{ProducerID: model.Uint(producer.ID)}
	require.NoError(t, s.Create(ctx, user.ID, plantation))
	brand := &model.Brand{Name: "Sunny", ProducerID: model.Uint(producer.ID)}
	require.NoError(t, s.Create(ctx, user.ID, brand))

	deps, err := s.Dependents(ctx, model.TableProducers, producer.ID)
	require.NoError(t, err)
	assert.Equal(t, []Dependent{
		{Table: model.TablePlantations, Column: "producer_id", Count: 1},
		{Table: model.TableBrands, Column: "producer_id", Count: 1},
	}, deps)

	err = s.Delete(ctx, producer)
	assert.ErrorIs(t, err, ErrReferentialIntegrity)
	assert.Contains(t, err.Error(), "cannot delete producers")
}

// Every foreign key between entities restricts the delete of its parent
// until the child is gone.
func TestDeleteRestrictedByEveryReference(t *testing.T) {
	catalog := schema.Catalog()
	var cache sync.Map

	for _, parent := range model.Registry() {
		for _, in := range catalog.IncomingRelations(parent.TableName()) {
			t.Run(in.SourceTable+"."+in.SourceColumn, func(t *testing.T) {
				s, user, _ := newTestStore(t)
				ctx := context.Background()

				parentRec, ok := model.New(in.TargetTable)
				require.True(t, ok)
				require.NoError(t, s.Create(ctx, user.ID, parentRec))

				child, ok := model.New(in.SourceTable)
				require.True(t, ok)
				parsed, err := gormschema.Parse(child, &cache, gormschema.NamingStrategy{})
				require.NoError(t, err)
				field := parsed.LookUpField(in.SourceColumn)
				require.NotNil(t, field)
				require.NoError(t, field.Set(ctx, reflect.ValueOf(child), model.Uint(parentRec.PrimaryKey())))
				require.NoError(t, s.Create(ctx, user.ID, child))

				err = s.Delete(ctx, parentRec)
				require.ErrorIs(t, err, ErrReferentialIntegrity)
				var rie *ReferentialIntegrityError
				require.True(t, errors.As(err, &rie))
				assert.Equal(t, []Dependent{{Table: in.SourceTable, Column: in.SourceColumn, Count: 1}}, rie.Dependents)

				require.NoError(t, s.Delete(ctx, child))
				require.NoError(t, s.Delete(ctx, parentRec))
			})
		}
	}
}

func TestDeleteMissingRecord(t *testing.T) {
	s, _, _ := newTestStore(t)

	err := s.Delete(context.Background(), &model.Port{Model: model.Model{ID: 7}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUserRestrictedByAudit(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	port := &model.Port{Name: "San Antonio"}
	require.NoError(t, s.Create(ctx, user.ID, port))

	err := s.DeleteUser(ctx, user.ID)
	require.ErrorIs(t, err, ErrReferentialIntegrity)

	var rie *ReferentialIntegrityError
	require.True(t, errors.As(err, &rie))
	assert.ElementsMatch(t, []Dependent{
		{Table: model.TablePorts, Column: "created_by_id", Count: 1},
		{Table: model.TablePorts, Column: "updated_by_id", Count: 1},
	}, rie.Dependents)
}

func TestDependentsUnknownTable(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Dependents(context.Background(), "nope", 1)
	assert.Error(t, err)
}

func TestUpdateKeepsCreation(t *testing.T) {
	s, user, clock := newTestStore(t)
	ctx := context.Background()

	editor := &model.User{Username: "editor"}
	require.NoError(t, s.CreateUser(ctx, editor))

	company := &model.TransportCompany{Name: "Acme"}
	require.NoError(t, s.Create(ctx, user.ID, company))
	created := clock.now

	clock.Advance(time.Hour)
	company.Name = "Acme Logistics"
	company.Created = time.Time{}
	company.CreatedByID = editor.ID
	require.NoError(t, s.Update(ctx, editor.ID, company))

	got, err := Get[model.TransportCompany](ctx, s, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Logistics", got.Name)
	assert.Equal(t, user.ID, got.CreatedByID)
	assert.Equal(t, editor.ID, got.UpdatedByID)
	assert.WithinDuration(t, created, got.Created, time.Millisecond)
	assert.WithinDuration(t, clock.now, got.Updated, time.Millisecond)
}

func TestUpdateNeverMovesBackwards(t *testing.T) {
	s, user, clock := newTestStore(t)
	ctx := context.Background()

	port := &model.Port{Name: "Coquimbo"}
	require.NoError(t, s.Create(ctx, user.ID, port))
	stamped := clock.now

	clock.Advance(-24 * time.Hour)
	port.Name = "Coquimbo Norte"
	require.NoError(t, s.Update(ctx, user.ID, port))

	got, err := Get[model.Port](ctx, s, port.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coquimbo Norte", got.Name)
	assert.WithinDuration(t, stamped, got.Updated, time.Millisecond)
	assert.False(t, got.Updated.Before(got.Created))
}

func TestUpdateClearsOptionalReference(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	company := &model.TransportCompany{Name: "Acme"}
	require.NoError(t, s.Create(ctx, user.ID, company))
	vehicle := &model.Vehicle{CompanyID: model.Uint(company.ID)}
	require.NoError(t, s.Create(ctx, user.ID, vehicle))

	vehicle.CompanyID = nil
	require.NoError(t, s.Update(ctx, user.ID, vehicle))

	got, err := Get[model.Vehicle](ctx, s, vehicle.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CompanyID)
	require.NoError(t, s.Delete(ctx, company))
}

func TestUpdateRejectsDanglingReference(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	company := &model.TransportCompany{Name: "Acme"}
	require.NoError(t, s.Create(ctx, user.ID, company))
	vehicle := &model.Vehicle{CompanyID: model.Uint(company.ID)}
	require.NoError(t, s.Create(ctx, user.ID, vehicle))

	vehicle.CompanyID = model.Uint(999)
	err := s.Update(ctx, user.ID, vehicle)
	require.ErrorIs(t, err, ErrReferentialIntegrity)

	var rie *ReferentialIntegrityError
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, model.TableVehicles, rie.Table)
	assert.Equal(t, "company_id", rie.Column)
	assert.Equal(t, model.TableTransportCompanies, rie.Target)
	assert.Equal(t, uint(999), rie.TargetID)

	got, err := Get[model.Vehicle](ctx, s, vehicle.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, company.ID, *got.CompanyID)
}

func TestUpdateRejectsUnknownActor(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	port := &model.Port{Name: "Valparaiso"}
	require.NoError(t, s.Create(ctx, user.ID, port))

	port.Name = "San Antonio"
	err := s.Update(ctx, 42, port)
	require.ErrorIs(t, err, ErrReferentialIntegrity)

	var rie *ReferentialIntegrityError
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, "updated_by_id", rie.Column)
	assert.Equal(t, model.TableUsers, rie.Target)
	assert.Equal(t, uint(42), rie.TargetID)

	got, err := Get[model.Port](ctx, s, port.ID)
	require.NoError(t, err)
	assert.Equal(t, "Valparaiso", got.Name)
	assert.Equal(t, user.ID, got.UpdatedByID)
}

func TestUpdateKeepsMarkers(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	port := &model.Port{Name: "Valparaiso"}
	require.NoError(t, s.Create(ctx, user.ID, port))

	// A bare struct carries false markers; they must not reach the row.
	require.NoError(t, s.Update(ctx, user.ID, &model.Port{Model: model.Model{ID: port.ID}, Name: "San Antonio"}))

	got, err := Get[model.Port](ctx, s, port.ID)
	require.NoError(t, err)
	assert.Equal(t, "San Antonio", got.Name)
	assert.True(t, got.IsActive)
	assert.True(t, got.IsEnable)

	require.NoError(t, s.SetActive(ctx, user.ID, got, false))
	require.NoError(t, s.Update(ctx, user.ID, &model.Port{Model: model.Model{ID: port.ID, AuditEnvelope: model.AuditEnvelope{IsActive: true}}, Name: "Coquimbo"}))

	got, err = Get[model.Port](ctx, s, port.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coquimbo", got.Name)
	assert.False(t, got.IsActive)
	assert.True(t, got.IsEnable)

	require.NoError(t, s.SetEnabled(ctx, user.ID, got, false))
	got, err = Get[model.Port](ctx, s, port.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.False(t, got.IsEnable)
}

func TestUpdateMissingRecord(t *testing.T) {
	s, user, _ := newTestStore(t)

	err := s.Update(context.Background(), user.ID, &model.Port{Model: model.Model{ID: 5}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkersDoNotCascade(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	company := &model.TransportCompany{Name: "Acme"}
	require.NoError(t, s.Create(ctx, user.ID, company))
	vehicle := &model.Vehicle{CompanyID: model.Uint(company.ID)}
	require.NoError(t, s.Create(ctx, user.ID, vehicle))

	require.NoError(t, s.SetActive(ctx, user.ID, company, false))
	require.NoError(t, s.SetEnabled(ctx, user.ID, company, false))

	got, err := Get[model.Vehicle](ctx, s, vehicle.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.True(t, got.IsEnable)

	// An inactive parent still blocks deletion.
	assert.ErrorIs(t, s.Delete(ctx, company), ErrReferentialIntegrity)
}

func TestList(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Valparaiso", "San Antonio", "Coquimbo"} {
		require.NoError(t, s.Create(ctx, user.ID, &model.Port{Name: name}))
	}
	ports, err := List[model.Port](ctx, s, ListOptions{})
	require.NoError(t, err)
	require.Len(t, ports, 3)
	assert.Equal(t, "Valparaiso", ports[0].Name)

	require.NoError(t, s.SetActive(ctx, user.ID, &ports[1], false))

	active, err := List[model.Port](ctx, s, ListOptions{OnlyActive: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	page, err := List[model.Port](ctx, s, ListOptions{Limit: 1, Offset: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Coquimbo", page[0].Name)
}

func TestListPreloads(t *testing.T) {
	s, user, _ := newTestStore(t)
	ctx := context.Background()

	company := &model.TransportCompany{Name: "Acme Logistics"}
	require.NoError(t, s.Create(ctx, user.ID, company))
	require.NoError(t, s.Create(ctx, user.ID, &model.Vehicle{CompanyID: model.Uint(company.ID)}))

	vehicles, err := List[model.Vehicle](ctx, s, ListOptions{Preload: true})
	require.NoError(t, err)
	require.Len(t, vehicles, 1)
	require.NotNil(t, vehicles[0].Company)
	assert.Equal(t, "Acme Logistics", vehicles[0].Company.Name)
}

func TestDatabaseForeignKeysAreEnforced(t *testing.T) {
	s, user, clock := newTestStore(t)

	err := s.db.Exec(
		"INSERT INTO vehicles (created, updated, is_active, is_enable, created_by_id, updated_by_id, company_id) VALUES (?, ?, 1, 1, ?, ?, ?)",
		clock.now, clock.now, user.ID, user.ID, 99,
	).Error
	require.Error(t, err)
	assert.ErrorIs(t, translateError(err), ErrReferentialIntegrity)
}
