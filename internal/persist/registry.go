package persist

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// TagKey marks a struct field for persistence: `save:""` or `save:"name"`.
// `save:"-"` excludes the field explicitly.
const TagKey = "save"

var (
	ErrTypeExists = errors.New("persist: type already registered")
	ErrNilSample  = errors.New("persist: sample is nil")
	ErrNotPointer = errors.New("persist: sample must be a pointer")
)

// Table is the static descriptor table of one tagged type.
// Field order is fixed at registration: tagged struct fields in declaration
// order (embedded structs flattened in place), then properties in the order given.
type Table struct {
	Type   reflect.Type
	Fields []Field
}

// Registry records which types are tagged for persistence.
type Registry struct {
	mu     sync.RWMutex
	tables map[reflect.Type]*Table
}

func NewRegistry() *Registry {
	return &Registry{tables: make(map[reflect.Type]*Table)}
}

// Register tags the dynamic type of sample and builds its descriptor table.
// sample must be a pointer; when it points at a struct its `save` tags are read.
func (r *Registry) Register(sample any, props ...Field) error {
	if sample == nil {
		return ErrNilSample
	}
	t := reflect.TypeOf(sample)
	if t.Kind() != reflect.Pointer {
		return fmt.Errorf("%w: got %s", ErrNotPointer, t)
	}

	table := &Table{Type: t}
	if t.Elem().Kind() == reflect.Struct {
		table.Fields = taggedFields(t.Elem(), t.Elem(), nil)
	}
	for _, p := range props {
		if strings.TrimSpace(p.Name) == "" || p.Accessor == nil {
			return fmt.Errorf("persist: property on %s needs a name and accessor", t)
		}
		table.Fields = append(table.Fields, p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tables[t]; ok {
		return fmt.Errorf("%w: %s", ErrTypeExists, t)
	}
	r.tables[t] = table
	log.Debug().Msgf("persist.Registry.Register type=%s fields=%d", t, len(table.Fields))
	return nil
}

// MustRegister is Register for package init blocks.
func (r *Registry) MustRegister(sample any, props ...Field) {
	if err := r.Register(sample, props...); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor table for instance's dynamic type.
func (r *Registry) Lookup(instance any) (*Table, bool) {
	if instance == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	table, ok := r.tables[reflect.TypeOf(instance)]
	return table, ok
}

// Tagged reports whether instance's type carries the persistence tag.
func (r *Registry) Tagged(instance any) bool {
	_, ok := r.Lookup(instance)
	return ok
}

func taggedFields(owner, t reflect.Type, prefix []int) []Field {
	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tag, tagged := sf.Tag.Lookup(TagKey)
		if !tagged {
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
				fields = append(fields, taggedFields(owner, sf.Type, index)...)
			}
			continue
		}
		if tag == "-" {
			continue
		}
		if !sf.IsExported() {
			log.Warn().Msgf("persist.Registry.Register unexported member skipped type=%s member=%s", owner, sf.Name)
			continue
		}

		name := strings.TrimSpace(tag)
		if name == "" {
			name = sf.Name
		}
		fields = append(fields, Field{Name: name, Accessor: fieldAccessor{owner: owner, index: index}})
	}
	return fields
}
