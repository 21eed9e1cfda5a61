/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package attributes

import (
	"sync/atomic"
)

// MapStore is an in-memory attribute store.  It is used by tests and by
// callers that only need a scratch copy of a node's attributes.  SaveError
// may be set to simulate a persistence failure.
type MapStore struct {
	*Tree
	SaveError error
	saves     int32
}

// NewMapStore creates an in-memory store seeded with a copy of 'data'.
func NewMapStore(data map[string]interface{}) *MapStore {
	return &MapStore{Tree: NewTree(data)}
}

// Save implements Store.
func (in *MapStore) Save() error {
	atomic.AddInt32(&in.saves, 1)
	return in.SaveError
}

// Saves returns the number of times Save has been called.
func (in *MapStore) Saves() int {
	return int(atomic.LoadInt32(&in.saves))
}
