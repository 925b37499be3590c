package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	mssql "github.com/microsoft/go-mssqldb"
	"gorm.io/gorm"
)

var (
	// ErrReferentialIntegrity matches every *ReferentialIntegrityError.
	ErrReferentialIntegrity = errors.New("referential integrity violation")
	ErrNotFound             = errors.New("record not found")
	ErrActorRequired        = errors.New("an acting user is required")
	ErrInvalid              = errors.New("invalid record")
)

// Driver codes for foreign key violations.
const (
	pgForeignKeyViolation   = "23503"
	mysqlRowIsReferenced    = 1451
	mysqlNoReferencedRow    = 1452
	mssqlConstraintConflict = 547
)

// Dependent counts the rows of one table that still reference a record.
type Dependent struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
	Count  int64  `yaml:"count"`
}

// ReferentialIntegrityError reports a write or delete that would leave a
// foreign key pointing at nothing.
//
// A blocked delete fills Table, ID and Dependents. A write naming a missing
// parent fills Table, Column, Target and TargetID. A violation caught by the
// database itself only carries Cause.
type ReferentialIntegrityError struct {
	Table      string
	ID         uint
	Dependents []Dependent

	Column   string
	Target   string
	TargetID uint

	Cause error
}

func (e *ReferentialIntegrityError) Error() string {
	switch {
	case len(e.Dependents) > 0:
		refs := make([]string, 0, len(e.Dependents))
		for _, d := range e.Dependents {
			refs = append(refs, fmt.Sprintf("%s.%s (%d)", d.Table, d.Column, d.Count))
		}
		return fmt.Sprintf("cannot delete %s %d: still referenced by %s", e.Table, e.ID, strings.Join(refs, ", "))
	case e.Target != "":
		return fmt.Sprintf("%s.%s references missing %s %d", e.Table, e.Column, e.Target, e.TargetID)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", ErrReferentialIntegrity, e.Cause)
	}
	return ErrReferentialIntegrity.Error()
}

func (e *ReferentialIntegrityError) Is(target error) bool {
	return target == ErrReferentialIntegrity
}

func (e *ReferentialIntegrityError) Unwrap() error {
	return e.Cause
}

// translateError maps driver errors onto the store's errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isForeignKeyViolation(err) {
		return &ReferentialIntegrityError{Cause: err}
	}
	return err
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}

	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlRowIsReferenced || myErr.Number == mysqlNoReferencedRow
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}

	var msErr mssql.Error
	if errors.As(err, &msErr) {
		return msErr.Number == mssqlConstraintConflict
	}

	return false
}

// invalid wraps validator output in ErrInvalid with one message per field.
func invalid(table string, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, table, err)
	}

	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, formatFieldError(fe))
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalid, table, strings.Join(out, ", "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "max":
		return fmt.Sprintf("field '%s' must be at most %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("field '%s' failed validation for '%s'", fe.Field(), fe.Tag())
}
