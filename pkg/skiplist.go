package dirhash

import (
	"strings"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

const nameIndexLevels = 16

// namedEntry is the skiplist item: the child name is the key, the value is mutated in place
type namedEntry[V any] struct {
	name  string
	value V
}

// nameIndex keeps the children of one directory ordered by name
type nameIndex[V any] struct {
	skiplist *zcsl.ZeroCopySkiplist[namedEntry[V], string, string]
}

func newNameIndex[V any]() *nameIndex[V] {
	getKey := func(e *namedEntry[V]) string {
		return e.name
	}
	getSize := func(e *namedEntry[V]) int {
		return len(e.name)
	}

	return &nameIndex[V]{
		skiplist: zcsl.MakeZeroCopySkiplist[namedEntry[V], string, string](
			nameIndexLevels,
			getKey,
			getSize,
			strings.Compare,
		),
	}
}

// Get returns the value stored under name
func (ni *nameIndex[V]) Get(name string) (V, bool) {
	node, _ := ni.skiplist.Find(name)
	if node == nil || node.Item() == nil {
		var zero V
		return zero, false
	}
	return node.Item().value, true
}

// Put inserts or replaces the value stored under name
func (ni *nameIndex[V]) Put(name string, value V) {
	node, _ := ni.skiplist.Find(name)
	if node != nil && node.Item() != nil {
		node.Item().value = value
		return
	}
	ni.skiplist.Insert(&namedEntry[V]{name: name, value: value}, "")
}

// Delete removes name, reporting whether it was present
func (ni *nameIndex[V]) Delete(name string) bool {
	return ni.skiplist.Delete(name)
}

// Len returns the number of entries
func (ni *nameIndex[V]) Len() int {
	return ni.skiplist.Length()
}

// Names returns a sorted snapshot of the keys
func (ni *nameIndex[V]) Names() []string {
	names := make([]string, 0, ni.Len())
	for node := ni.skiplist.First(); node != nil; node = node.Next() {
		names = append(names, node.Item().name)
	}
	return names
}

// ForEach visits entries in name order until fn returns false
func (ni *nameIndex[V]) ForEach(fn func(name string, value V) bool) {
	for node := ni.skiplist.First(); node != nil; node = node.Next() {
		item := node.Item()
		if !fn(item.name, item.value) {
			return
		}
	}
}
