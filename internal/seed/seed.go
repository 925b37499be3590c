// Package seed loads reference data from a YAML fixture.
//
// A fixture names the acting user, the users to register, and records per
// table. A record may carry a ref; any later string value of the form
// "@ref" is replaced by that record's id before decoding:
//
//	actor: admin
//	users:
//	  - username: admin
//	    full_name: Administrator
//	tables:
//	  transport_companies:
//	    - ref: acme
//	      name: Acme Logistics
//	  vehicles:
//	    - plate: ABC-123
//	      company_id: "@acme"
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fieldtrace/fieldtrace/internal/model"
	"github.com/fieldtrace/fieldtrace/internal/store"
)

// Writer is the part of the store a fixture needs.
type Writer interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindUser(ctx context.Context, username string) (*model.User, error)
	Create(ctx context.Context, actor uint, rec model.Record) error
}

// Fixture is a parsed seed file.
type Fixture struct {
	Actor  string                 `yaml:"actor"`
	Users  []model.User           `yaml:"users"`
	Tables map[string][]yaml.Node `yaml:"tables"`
}

// Result reports what Apply created.
type Result struct {
	Users  int
	Counts map[string]int
	Refs   map[string]uint
}

// LoadFile reads and parses a fixture.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	return Parse(data)
}

// Parse parses a fixture and rejects tables the catalog does not know.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}

	known := make(map[string]bool)
	for _, rec := range model.Registry() {
		known[rec.TableName()] = true
	}
	for table := range f.Tables {
		if !known[table] {
			return nil, fmt.Errorf("invalid fixture: unknown table %q", table)
		}
	}

	return &f, nil
}

// Apply registers the fixture's users, then creates its records parents
// first on behalf of the actor. Users that already exist are reused. Each
// record is written in its own transaction; on error the records written
// so far stay.
func Apply(ctx context.Context, w Writer, f *Fixture) (*Result, error) {
	res := &Result{Counts: make(map[string]int), Refs: make(map[string]uint)}

	for i := range f.Users {
		u := &f.Users[i]
		existing, err := w.FindUser(ctx, u.Username)
		switch {
		case err == nil:
			*u = *existing
			continue
		case !errors.Is(err, store.ErrNotFound):
			return res, err
		}

		if err := w.CreateUser(ctx, u); err != nil {
			return res, fmt.Errorf("user %s: %w", u.Username, err)
		}
		res.Users++
	}

	actor, err := resolveActor(ctx, w, f)
	if err != nil {
		return res, err
	}

	for _, zero := range model.Registry() {
		table := zero.TableName()
		for i := range f.Tables[table] {
			node, ref, err := resolveRefs(&f.Tables[table][i], res.Refs)
			if err != nil {
				return res, fmt.Errorf("%s[%d]: %w", table, i, err)
			}

			rec := newRecord(zero)
			if err := node.Decode(rec); err != nil {
				return res, fmt.Errorf("%s[%d]: %w", table, i, err)
			}
			if err := w.Create(ctx, actor, rec); err != nil {
				return res, fmt.Errorf("%s[%d]: %w", table, i, err)
			}

			res.Counts[table]++
			if ref != "" {
				res.Refs[ref] = rec.PrimaryKey()
			}
		}
	}

	return res, nil
}

func resolveActor(ctx context.Context, w Writer, f *Fixture) (uint, error) {
	name := f.Actor
	if name == "" {
		if len(f.Users) == 0 {
			return 0, fmt.Errorf("fixture names no actor and no users")
		}
		name = f.Users[0].Username
	}

	u, err := w.FindUser(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("actor %s: %w", name, err)
	}
	return u.ID, nil
}

// resolveRefs returns a copy of a record mapping without its ref key and
// with "@name" values swapped for the ids recorded so far, plus the
// record's own ref. The fixture itself is left untouched so it can be
// applied again.
func resolveRefs(node *yaml.Node, refs map[string]uint) (*yaml.Node, string, error) {
	if node.Kind != yaml.MappingNode {
		return nil, "", fmt.Errorf("record must be a mapping")
	}

	var own string
	resolved := *node
	resolved.Content = make([]*yaml.Node, 0, len(node.Content))
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		if key.Value == "ref" {
			own = value.Value
			if _, dup := refs[own]; dup {
				return nil, "", fmt.Errorf("duplicate ref %q", own)
			}
			continue
		}

		if value.Kind == yaml.ScalarNode && strings.HasPrefix(value.Value, "@") {
			id, ok := refs[value.Value[1:]]
			if !ok {
				return nil, "", fmt.Errorf("%s: unknown ref %q", key.Value, value.Value)
			}
			scalar := *value
			scalar.Tag = "!!int"
			scalar.Style = 0
			scalar.Value = strconv.FormatUint(uint64(id), 10)
			value = &scalar
		}

		resolved.Content = append(resolved.Content, key, value)
	}

	return &resolved, own, nil
}

// newRecord allocates a fresh record of the same type as zero.
func newRecord(zero model.Record) model.Record {
	return reflect.New(reflect.TypeOf(zero).Elem()).Interface().(model.Record)
}
