// Package symtab implements the parser/evaluator's name binding table:
// an ordered map from a bounded identifier to a (ValueType, storage)
// pair, where storage is borrowed from the caller.
package symtab

import (
	"fmt"

	"memfuzz/internal/value"
)

// Storage is the borrowed backing for a bound symbol's current value. The
// table never owns these bytes; the caller (internal/scan, in practice)
// guarantees the storage outlives any AST built against this table.
type Storage interface {
	Load() value.Value
	Store(value.Value)
}

// CellStorage is the concrete Storage every caller in this repo uses: a
// single mutable Value cell, rebound on every scan step (see
// internal/scan). It is exported because the scan driver needs a typed
// handle to mutate between evaluations, not just the Storage interface.
type CellStorage struct {
	V value.Value
}

func NewCell(t value.Type) *CellStorage {
	return &CellStorage{V: value.Value{Type: t}}
}

func (c *CellStorage) Load() value.Value  { return c.V }
func (c *CellStorage) Store(v value.Value) { c.V = v }

// Symbol is what the table hands back to parser and evaluator: the bound
// type (so the parser can type-check without touching storage) and the
// storage to read/write at evaluation time.
type Symbol struct {
	Name    string
	Type    value.Type
	Storage Storage
	index   int
}

// Table is an ordered name -> Symbol map: order keeps insertion order and
// lookups go through a name-keyed map.
type Table struct {
	order []*Symbol
	byName map[string]*Symbol
}

func New() *Table {
	return &Table{byName: make(map[string]*Symbol)}
}

var ErrDuplicateName = fmt.Errorf("symtab: duplicate name")

// MaxNameLen bounds identifier length in bytes.
const MaxNameLen = 63

// Insert binds name to (t, storage). Returns ErrDuplicateName if name is
// already bound — duplicate names are rejected at insert.
func (t *Table) Insert(name string, typ value.Type, storage Storage) error {
	if t == nil {
		return fmt.Errorf("symtab: nil table")
	}
	if name == "" || len(name) > MaxNameLen {
		return fmt.Errorf("symtab: name length %d out of range [1, %d]", len(name), MaxNameLen)
	}
	if _, exists := t.byName[name]; exists {
		return ErrDuplicateName
	}
	sym := &Symbol{Name: name, Type: typ, Storage: storage, index: len(t.order)}
	t.order = append(t.order, sym)
	t.byName[name] = sym
	return nil
}

// Lookup resolves a name to its Symbol. A nil table always misses — the
// parser may be handed a null/absent symbol table.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	if t == nil {
		return nil, false
	}
	sym, ok := t.byName[name]
	return sym, ok
}

// NameLookupSpan resolves a borrowed identifier slice (pointer, length)
// taken directly from the source buffer, for the parser's zero-copy
// identifier tokens.
func (t *Table) NameLookupSpan(source string, start, length int) (*Symbol, bool) {
	if start < 0 || start+length > len(source) {
		return nil, false
	}
	return t.Lookup(source[start : start+length])
}

// Destroy drops the table. The caller-owned storage is unaffected.
func (t *Table) Destroy() {
	t.order = nil
	t.byName = nil
}
