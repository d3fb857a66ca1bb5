package ags

import "sync"

// objMutex replaces the C source's recursive mutex (GET_OBJ_MUTEX) with the
// idiom spec §9 recommends for Go: a plain, non-recursive sync.Mutex plus a
// pair of Lock/Unlock methods that the *public* entry points use, and a set
// of "*_locked" sibling methods elsewhere in this package that assume the
// caller already holds the lock. Recursion is never needed because every
// call path threads an already-locked snapshot down instead of re-entering
// Lock.
//
// Lock ordering across the package is fixed at soundcard -> generation ->
// sub-block (spec §5); objMutex itself has no notion of ordering, it is the
// callers' discipline that enforces it.
type objMutex struct {
	mu sync.Mutex
}

func (m *objMutex) Lock()   { m.mu.Lock() }
func (m *objMutex) Unlock() { m.mu.Unlock() }
