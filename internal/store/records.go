package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormschema "gorm.io/gorm/schema"

	"github.com/fieldtrace/fieldtrace/internal/model"
	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// ListOptions narrows List. The zero value returns every row.
type ListOptions struct {
	OnlyActive  bool
	OnlyEnabled bool
	Preload     bool
	Limit       int
	Offset      int
}

// Create inserts rec on behalf of actor. The envelope is stamped here;
// whatever the caller put in it is overwritten.
func (s *Store) Create(ctx context.Context, actor uint, rec model.Record) error {
	if actor == 0 {
		return ErrActorRequired
	}

	rec.Envelope().MarkCreated(actor, s.now())
	if err := s.validate.StructCtx(ctx, rec); err != nil {
		return invalid(rec.TableName(), err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkReferences(ctx, tx, rec); err != nil {
			return err
		}
		return translateError(tx.Omit(clause.Associations).Create(rec).Error)
	})
}

// Update writes the fields of rec on behalf of actor. The stored Created,
// CreatedByID and the active/enabled markers are kept; change the markers
// with SetActive and SetEnabled.
func (s *Store) Update(ctx context.Context, actor uint, rec model.Record) error {
	return s.update(ctx, actor, rec, nil)
}

// SetActive flips the active marker of rec and writes it.
// Nothing else reacts to the marker.
func (s *Store) SetActive(ctx context.Context, actor uint, rec model.Record, active bool) error {
	return s.update(ctx, actor, rec, func(env *model.AuditEnvelope) {
		env.IsActive = active
	})
}

// SetEnabled flips the enabled marker of rec and writes it.
func (s *Store) SetEnabled(ctx context.Context, actor uint, rec model.Record, enabled bool) error {
	return s.update(ctx, actor, rec, func(env *model.AuditEnvelope) {
		env.IsEnable = enabled
	})
}

// update restores the stored envelope onto rec, lets mark adjust it, and
// writes rec in one transaction.
func (s *Store) update(ctx context.Context, actor uint, rec model.Record, mark func(*model.AuditEnvelope)) error {
	if actor == 0 {
		return ErrActorRequired
	}
	table, id := rec.TableName(), rec.PrimaryKey()
	if id == 0 {
		return fmt.Errorf("%s without id: %w", table, ErrNotFound)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored model.AuditEnvelope
		err := tx.Table(table).Select(schema.AuditColumns).Where("id = ?", id).Take(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
		}
		if err != nil {
			return err
		}

		env := rec.Envelope()
		env.Created = stored.Created
		env.CreatedByID = stored.CreatedByID
		env.Updated = stored.Updated
		env.IsActive = stored.IsActive
		env.IsEnable = stored.IsEnable
		if mark != nil {
			mark(env)
		}
		env.MarkUpdated(actor, s.now())

		if err := s.validate.StructCtx(ctx, rec); err != nil {
			return invalid(table, err)
		}
		if err := s.checkReferences(ctx, tx, rec); err != nil {
			return err
		}

		return translateError(tx.Model(rec).
			Select("*").
			Omit("id", "created", "created_by_id", clause.Associations).
			Updates(rec).Error)
	})
}

// Delete removes rec for good, unless another row still references it.
func (s *Store) Delete(ctx context.Context, rec model.Keyed) error {
	table, id := rec.TableName(), rec.PrimaryKey()
	if id == 0 {
		return fmt.Errorf("%s without id: %w", table, ErrNotFound)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table(table).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
		}

		deps, err := s.dependents(tx, table, id)
		if err != nil {
			return err
		}
		if len(deps) > 0 {
			return &ReferentialIntegrityError{Table: table, ID: id, Dependents: deps}
		}

		return translateError(tx.Delete(rec).Error)
	})
}

// Dependents counts, per foreign key, the rows that reference table id.
// Foreign keys with no referencing rows are left out.
func (s *Store) Dependents(ctx context.Context, table string, id uint) ([]Dependent, error) {
	if s.catalog.FindTable(table) == nil {
		return nil, fmt.Errorf("unknown table %s", table)
	}
	return s.dependents(s.db.WithContext(ctx), table, id)
}

func (s *Store) dependents(tx *gorm.DB, table string, id uint) ([]Dependent, error) {
	var deps []Dependent
	for _, in := range s.catalog.IncomingRelations(table) {
		var n int64
		err := tx.Table(in.SourceTable).Where(in.SourceColumn+" = ?", id).Count(&n).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count %s.%s: %w", in.SourceTable, in.SourceColumn, err)
		}
		if n > 0 {
			deps = append(deps, Dependent{Table: in.SourceTable, Column: in.SourceColumn, Count: n})
		}
	}
	return deps, nil
}

// checkReferences makes sure every set foreign key of rec names an
// existing row. Unset optional references are skipped.
func (s *Store) checkReferences(ctx context.Context, tx *gorm.DB, rec model.Keyed) error {
	table := s.catalog.FindTable(rec.TableName())
	if table == nil {
		return fmt.Errorf("unknown table %s", rec.TableName())
	}

	sch, err := gormschema.Parse(rec, &s.parsed, tx.NamingStrategy)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", table.Name, err)
	}

	value := reflect.ValueOf(rec)
	for _, rel := range table.Relations {
		field := sch.LookUpField(rel.SourceColumn)
		if field == nil {
			return fmt.Errorf("%s has no field for column %s", table.Name, rel.SourceColumn)
		}

		v, zero := field.ValueOf(ctx, value)
		if zero {
			continue
		}
		targetID, ok := referenceID(v)
		if !ok {
			continue
		}

		var n int64
		if err := tx.Table(rel.TargetTable).Where(rel.TargetColumn+" = ?", targetID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return &ReferentialIntegrityError{
				Table:    table.Name,
				Column:   rel.SourceColumn,
				Target:   rel.TargetTable,
				TargetID: targetID,
			}
		}
	}

	return nil
}

func referenceID(v any) (uint, bool) {
	switch id := v.(type) {
	case uint:
		return id, id != 0
	case *uint:
		if id == nil {
			return 0, false
		}
		return *id, true
	}
	return 0, false
}

// Get loads one record by id.
func Get[T any, P interface {
	*T
	model.Keyed
}](ctx context.Context, s *Store, id uint) (P, error) {
	rec := P(new(T))
	err := s.db.WithContext(ctx).Take(rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %d: %w", rec.TableName(), id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// List loads the records of one table in id order.
func List[T any, P interface {
	*T
	model.Keyed
}](ctx context.Context, s *Store, opts ListOptions) ([]T, error) {
	q := s.db.WithContext(ctx).Model(P(new(T)))
	if opts.OnlyActive {
		q = q.Where("is_active = ?", true)
	}
	if opts.OnlyEnabled {
		q = q.Where("is_enable = ?", true)
	}
	if opts.Preload {
		q = q.Preload(clause.Associations)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var out []T
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
