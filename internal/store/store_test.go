package store

import (
	"context"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormschema "gorm.io/gorm/schema"

	"github.com/fieldtrace/fieldtrace/internal/model"
	"github.com/fieldtrace/fieldtrace/internal/schema"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// newTestStore opens a migrated SQLite store with one user in it.
func newTestStore(t *testing.T) (*Store, *model.User, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	ctx := context.Background()

	s, err := Open(ctx, Config{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "fieldtrace.db"),
	}, WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.Migrate(ctx)
	require.NoError(t, err)

	user := &model.User{Username: "admin", FullName: "Admin"}
	require.NoError(t, s.CreateUser(ctx, user))

	return s, user, clock
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "m.db")})
	require.NoError(t, err)
	defer s.Close()

	created, err := s.Migrate(ctx)
	require.NoError(t, err)
	assert.Len(t, created, len(schema.Catalog().Tables))
	assert.Equal(t, model.TableUsers, created[0])

	created, err = s.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, created, "second run should create nothing")
}

func TestWithParam(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"app.db", "app.db?_foreign_keys=on"},
		{"file:app.db?cache=shared", "file:app.db?cache=shared&_foreign_keys=on"},
		{"app.db?_foreign_keys=off", "app.db?_foreign_keys=off"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, withParam(tt.dsn, "_foreign_keys", "on"))
	}
}

// Every model field must map onto a catalog column and back, so the
// hand-written DDL and the structs cannot drift apart.
func TestModelsMatchCatalog(t *testing.T) {
	catalog := schema.Catalog()
	records := []model.Keyed{&model.User{}}
	for _, rec := range model.Registry() {
		records = append(records, rec)
	}

	var cache sync.Map
	for _, rec := range records {
		t.Run(rec.TableName(), func(t *testing.T) {
			table := catalog.FindTable(rec.TableName())
			require.NotNil(t, table)

			parsed, err := gormschema.Parse(rec, &cache, gormschema.NamingStrategy{})
			require.NoError(t, err)
			assert.Equal(t, table.Name, parsed.Table)

			for _, col := range table.Columns {
				field := parsed.LookUpField(col.Name)
				if !assert.NotNil(t, field, "no field for column %s", col.Name) {
					continue
				}
				if col.Nullable {
					assert.Equal(t, reflect.Ptr, field.FieldType.Kind(), "%s is nullable and should be a pointer", col.Name)
				}
			}

			for _, field := range parsed.Fields {
				if field.DBName == "" {
					continue
				}
				assert.NotNil(t, table.FindColumn(field.DBName), "field %s has no column", field.Name)
			}
		})
	}
}
