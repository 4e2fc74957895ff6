// Package meta implements the metacontext: a process-wide store of
// meta entries, a monotonic id generator, and the handful of point
// operations (lookup/write/modify/alter) every other core package
// uses to read and update it.
package meta

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dtlc-lang/telescope/internal/cxt"
	"github.com/dtlc-lang/telescope/internal/syntax"
	"github.com/dtlc-lang/telescope/internal/value"
)

// BlockerSet is a set of Constancy-entry meta ids: each Unsolved meta
// names the Constancy entries waiting on it, and each Constancy entry
// names the metas it is waiting on, so a solve can notify its
// subscribers in either direction.
type BlockerSet map[syntax.MId]struct{}

func NewBlockerSet(ids ...syntax.MId) BlockerSet {
	s := make(BlockerSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (b BlockerSet) Add(id syntax.MId)    { b[id] = struct{}{} }
func (b BlockerSet) Remove(id syntax.MId) { delete(b, id) }
func (b BlockerSet) Has(id syntax.MId) bool {
	_, ok := b[id]
	return ok
}
func (b BlockerSet) Slice() []syntax.MId {
	out := make([]syntax.MId, 0, len(b))
	for id := range b {
		out = append(out, id)
	}
	return out
}

// Entry is the sum type of metacontext entries.
type Entry interface {
	entryNode()
}

// Unsolved is an open meta; Blockers names the Constancy entries that
// currently subscribe to this meta.
type Unsolved struct {
	Blockers BlockerSet
	Ty       value.Val
}

// Solved is a closed meta.
type Solved struct {
	Val value.Val
}

// Constancy is a deferred check that a telescope Dom is empty iff Cod
// (the codomain, evaluated at the context extended by the telescope's
// bound variable) does not use its bound variable.
type Constancy struct {
	Cxt      cxt.Context
	Dom      value.Val
	Cod      value.Val
	Blockers BlockerSet
}

func (Unsolved) entryNode()  {}
func (Solved) entryNode()    {}
func (Constancy) entryNode() {}

// Metacontext is the process-wide mutable id->entry store. Obtain one
// from New: the zero value has no entry map, so NewMeta on it panics.
// A Metacontext must not be copied after its
// first use (copy the pointer, not the struct), mirroring the
// teacher's process-wide protoRegistry/protoRegistryMutex pattern in
// internal/evaluator/builtins_grpc.go.
type Metacontext struct {
	mu      sync.Mutex
	entries map[syntax.MId]Entry
	next    int
}

// New returns a freshly initialized, empty metacontext — call this at
// the start of each independent elaboration; the store is cleared
// between them, never shared.
func New() *Metacontext {
	return &Metacontext{entries: make(map[syntax.MId]Entry)}
}

// NewMeta allocates a fresh id and stores entry under it.
func (m *Metacontext) NewMeta(entry Entry) syntax.MId {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := syntax.MId(m.next)
	m.next++
	m.entries[id] = entry
	return id
}

// NextMId reports the id the next NewMeta call will allocate, used to
// name inserted telescope binders Γ0, Γ1, ….
func (m *Metacontext) NextMId() syntax.MId {
	m.mu.Lock()
	defer m.mu.Unlock()
	return syntax.MId(m.next)
}

// LookupMeta returns the entry stored at id. A missing id is a
// programming error — every MId in a well-formed Tm/Val was allocated
// by NewMeta on this same Metacontext.
func (m *Metacontext) LookupMeta(id syntax.MId) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		panic(fmt.Sprintf("meta: lookup of unknown meta %s", id))
	}
	return e
}

// WriteMeta overwrites the entry stored at id.
func (m *Metacontext) WriteMeta(id syntax.MId, entry Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		panic(fmt.Sprintf("meta: write to unknown meta %s", id))
	}
	m.entries[id] = entry
}

// ModifyMeta atomically replaces the entry at id with f(current).
func (m *Metacontext) ModifyMeta(id syntax.MId, f func(Entry) Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entries[id]
	if !ok {
		panic(fmt.Sprintf("meta: modify of unknown meta %s", id))
	}
	m.entries[id] = f(cur)
}

// AlterMeta is ModifyMeta for callers that also want to observe
// whatever f returns alongside storing it (e.g. to chain further
// logic on the new entry without a second lookup).
func (m *Metacontext) AlterMeta(id syntax.MId, f func(Entry) Entry) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.entries[id]
	if !ok {
		panic(fmt.Sprintf("meta: alter of unknown meta %s", id))
	}
	next := f(cur)
	m.entries[id] = next
	return next
}

// Range calls f for every entry currently stored, in ascending id
// order, for deterministic debug output (internal/printer) and
// metacontext persistence (internal/metastore).
func (m *Metacontext) Range(f func(syntax.MId, Entry)) {
	m.mu.Lock()
	ids := make([]syntax.MId, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	snapshot := make(map[syntax.MId]Entry, len(m.entries))
	for id, e := range m.entries {
		snapshot[id] = e
	}
	m.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		f(id, snapshot[id])
	}
}
