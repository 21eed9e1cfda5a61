/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

// Package attributes implements the persisted, hierarchical node attribute
// store that every inventory operation reads its configuration from and
// writes its decisions (bond names, disk claims, discovered hardware) to.
package attributes

import (
	"sync"

	"github.com/google/go-cmp/cmp"
	"github.com/imdario/mergo"
	perrors "github.com/pkg/errors"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
)

var log = logf.Log.WithName("attributes")

// Store defines the interface to a node's attribute tree.  Values are the
// generic types produced by a JSON or YAML decoder: map[string]interface{},
// []interface{}, string, float64, bool and nil.  Mutations only affect the
// in-memory tree until Save is called.
type Store interface {
	// Get returns the value at the given path, or false if any element of
	// the path is absent.
	Get(path ...string) (interface{}, bool)
	// Set replaces the value at the given path, creating intermediate maps.
	Set(path []string, value interface{})
	// Delete removes the value at the given path if present.
	Delete(path []string)
	// CompareAndSwap replaces the value at the given path with 'value' only
	// if the current value equals 'expected'.  A nil 'expected' matches an
	// absent value and a nil 'value' deletes the entry.
	CompareAndSwap(path []string, expected, value interface{}) bool
	// Merge fills in any value of 'defaults' that is absent from the tree.
	Merge(defaults map[string]interface{}) error
	// Snapshot returns a deep copy of the whole tree.
	Snapshot() map[string]interface{}
	// Save persists the in-memory tree.
	Save() error
}

// Tree is the mutex protected in-memory attribute tree shared by all store
// backends.  Persistence is left to the embedding type.
type Tree struct {
	mu   sync.RWMutex
	root map[string]interface{}
}

// NewTree creates an attribute tree from a decoded document.  The document is
// copied.
func NewTree(data map[string]interface{}) *Tree {
	root := DeepCopy(data)
	if root == nil {
		root = make(map[string]interface{})
	}
	return &Tree{root: root}
}

func (in *Tree) lookup(path []string) (interface{}, bool) {
	var current interface{} = in.root
	for _, key := range path {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if current, ok = m[key]; !ok {
			return nil, false
		}
	}
	return current, true
}

// parent returns the map holding the last element of the path, creating any
// missing or non-map intermediate values when 'create' is set.
func (in *Tree) parent(path []string, create bool) map[string]interface{} {
	current := in.root
	for _, key := range path[:len(path)-1] {
		next, ok := current[key].(map[string]interface{})
		if !ok {
			if !create {
				return nil
			}
			next = make(map[string]interface{})
			current[key] = next
		}
		current = next
	}
	return current
}

// Get implements Store.
func (in *Tree) Get(path ...string) (interface{}, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.lookup(path)
}

// Set implements Store.  An empty path is ignored.  String lists are stored
// as generic lists so that they compare equal to decoded documents.
func (in *Tree) Set(path []string, value interface{}) {
	if len(path) == 0 {
		return
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	in.parent(path, true)[path[len(path)-1]] = deepCopyValue(value)
}

// Delete implements Store.
func (in *Tree) Delete(path []string) {
	if len(path) == 0 {
		return
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if m := in.parent(path, false); m != nil {
		delete(m, path[len(path)-1])
	}
}

// CompareAndSwap implements Store.
func (in *Tree) CompareAndSwap(path []string, expected, value interface{}) bool {
	if len(path) == 0 {
		return false
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	current, ok := in.lookup(path)
	if !ok {
		current = nil
	}

	if !cmp.Equal(current, deepCopyValue(expected)) {
		return false
	}

	if value == nil {
		if m := in.parent(path, false); m != nil {
			delete(m, path[len(path)-1])
		}
	} else {
		in.parent(path, true)[path[len(path)-1]] = deepCopyValue(value)
	}

	return true
}

// Merge implements Store.  Values already present in the tree always win.
func (in *Tree) Merge(defaults map[string]interface{}) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	err := mergo.Merge(&in.root, DeepCopy(defaults))
	return perrors.Wrap(err, "failed to merge default attributes")
}

// Snapshot implements Store.
func (in *Tree) Snapshot() map[string]interface{} {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return DeepCopy(in.root)
}

// replace swaps the whole tree; used by backends when reloading.
func (in *Tree) replace(data map[string]interface{}) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.root = DeepCopy(data)
	if in.root == nil {
		in.root = make(map[string]interface{})
	}
}

// DeepCopy copies a decoded document so that the copy shares no maps or
// slices with the original.
func DeepCopy(data map[string]interface{}) map[string]interface{} {
	if data == nil {
		return nil
	}

	result := make(map[string]interface{}, len(data))
	for key, value := range data {
		result[key] = deepCopyValue(value)
	}
	return result
}

func deepCopyValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return DeepCopy(v)
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = deepCopyValue(item)
		}
		return result
	case []string:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = item
		}
		return result
	default:
		return v
	}
}
