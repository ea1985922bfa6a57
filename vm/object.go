package vm

import (
	"sync"
	"sync/atomic"
)

// Object represents an instance of a class whose layout basis is object.
//
// Objects have two kinds of storage:
//   - fixed member fields declared through __slots__, addressed by index
//   - an optional attribute store for everything else
//
// The class pointer is non-owning in the ownership model and may be swapped
// by __class__ assignment; it is read atomically.
type Object struct {
	class  atomic.Pointer[Class]
	id     uint64
	fields []Value
	store  *AttrStore
}

var nextObjectID atomic.Uint64

// newObject allocates an instance sized for cls's layout.
func newObject(cls *Class, compactLimit int) *Object {
	obj := &Object{id: nextObjectID.Add(1)}
	obj.class.Store(cls)
	if n := cls.Layout.NumFields; n > 0 {
		obj.fields = make([]Value, n)
	}
	if cls.Layout.HasDict {
		obj.store = newAttrStore(cls.keys, compactLimit)
	}
	return obj
}

// Class returns the object's class.
func (obj *Object) Class() *Class {
	return obj.class.Load()
}

// ID returns the object's identity, unique within the process.
func (obj *Object) ID() uint64 {
	return obj.id
}

// Field returns the member field at index, or nil if unset.
func (obj *Object) Field(index int) Value {
	if index < 0 || index >= len(obj.fields) {
		return nil
	}
	return obj.fields[index]
}

// NumFields returns the number of member fields.
func (obj *Object) NumFields() int {
	return len(obj.fields)
}

// Store returns the attribute store, or nil if the layout has none.
func (obj *Object) Store() *AttrStore {
	return obj.store
}

// ---------------------------------------------------------------------------
// AttrStore: per-instance attribute storage
// ---------------------------------------------------------------------------

// DefaultCompactLimit is the default number of shared keys a class may
// accumulate before new instances fall back to generic stores.
const DefaultCompactLimit = 30

// sharedKeys is the per-class key table shared by compact stores.
// It is append-only.
type sharedKeys struct {
	mu    sync.RWMutex
	index map[string]int
	names []string
}

func newSharedKeys() *sharedKeys {
	return &sharedKeys{index: make(map[string]int)}
}

func (sk *sharedKeys) lookup(name string) int {
	sk.mu.RLock()
	defer sk.mu.RUnlock()
	if i, ok := sk.index[name]; ok {
		return i
	}
	return -1
}

// intern returns the index for name, adding it if there is room.
// Returns -1 if the table is full.
func (sk *sharedKeys) intern(name string, limit int) int {
	if i := sk.lookup(name); i >= 0 {
		return i
	}
	sk.mu.Lock()
	defer sk.mu.Unlock()
	if i, ok := sk.index[name]; ok {
		return i
	}
	if len(sk.names) >= limit {
		return -1
	}
	i := len(sk.names)
	sk.index[name] = i
	sk.names = append(sk.names, name)
	return i
}

func (sk *sharedKeys) name(i int) string {
	sk.mu.RLock()
	defer sk.mu.RUnlock()
	return sk.names[i]
}

// AttrStore holds an instance's own attributes.
//
// A store starts compact: values are indexed through the class's shared key
// table so instances of one class share the key bookkeeping. It converts to
// a generic map when the shared table is full or when an attribute is
// deleted. Callers hold the runtime lock.
type AttrStore struct {
	keys    *sharedKeys
	limit   int
	values  []Value
	generic map[string]Value
	order   []string // generic mode insertion order
}

func newAttrStore(keys *sharedKeys, limit int) *AttrStore {
	s := &AttrStore{keys: keys, limit: limit}
	if keys == nil || limit <= 0 {
		s.generic = make(map[string]Value)
	}
	return s
}

// Compact reports whether the store still uses the shared key table.
func (s *AttrStore) Compact() bool {
	return s.generic == nil
}

// Get returns the attribute named name.
func (s *AttrStore) Get(name string) (Value, bool) {
	if s.generic != nil {
		v, ok := s.generic[name]
		return v, ok
	}
	i := s.keys.lookup(name)
	if i < 0 || i >= len(s.values) || s.values[i] == nil {
		return nil, false
	}
	return s.values[i], true
}

// Set stores an attribute.
func (s *AttrStore) Set(name string, value Value) {
	if s.generic == nil {
		if i := s.keys.intern(name, s.limit); i >= 0 {
			if i >= len(s.values) {
				grown := make([]Value, i+1)
				copy(grown, s.values)
				s.values = grown
			}
			s.values[i] = value
			return
		}
		s.degrade()
	}
	if _, ok := s.generic[name]; !ok {
		s.order = append(s.order, name)
	}
	s.generic[name] = value
}

// Delete removes an attribute. Returns false if it was not present.
func (s *AttrStore) Delete(name string) bool {
	if _, ok := s.Get(name); !ok {
		return false
	}
	if s.generic == nil {
		s.degrade()
	}
	delete(s.generic, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Names returns the stored attribute names.
func (s *AttrStore) Names() []string {
	if s.generic != nil {
		return append([]string(nil), s.order...)
	}
	var names []string
	for i, v := range s.values {
		if v != nil {
			names = append(names, s.keys.name(i))
		}
	}
	return names
}

// Len returns the number of stored attributes.
func (s *AttrStore) Len() int {
	if s.generic != nil {
		return len(s.generic)
	}
	n := 0
	for _, v := range s.values {
		if v != nil {
			n++
		}
	}
	return n
}

// clear removes every attribute and leaves the store generic.
func (s *AttrStore) clear() {
	s.values = nil
	s.generic = make(map[string]Value)
	s.order = nil
}

// degrade converts a compact store into a generic one.
func (s *AttrStore) degrade() {
	s.generic = make(map[string]Value, len(s.values))
	for i, v := range s.values {
		if v != nil {
			name := s.keys.name(i)
			s.generic[name] = v
			s.order = append(s.order, name)
		}
	}
	s.values = nil
}
