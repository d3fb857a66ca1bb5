package ags

import "sync"

// registryShardCount is deliberately small; this registry
// holds at most a handful of soundcards per process, not millions of keys.
const registryShardCount = 8

// Registry is a sharded concurrent map keyed by soundcard identity,
// replacing the C source's process-wide globals (AGS_MACHINE_NO_UPDATE,
// the sfz_loader_completed hash table -- spec §9 design note). Callers
// create it with NewRegistry and empty it with Drain at engine shutdown.
type Registry struct {
	shards [registryShardCount]registryShard
}

type registryShard struct {
	mu    sync.RWMutex
	cards map[string]SoundcardContract
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].cards = make(map[string]SoundcardContract)
	}
	return r
}

func (r *Registry) shardFor(deviceID string) *registryShard {
	h := fnv32(deviceID)
	return &r.shards[h%registryShardCount]
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	hash := uint32(offset32)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= prime32
	}
	return hash
}

// Register adds or replaces a soundcard under its device id.
func (r *Registry) Register(sc SoundcardContract, deviceID string) {
	shard := r.shardFor(deviceID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	shard.cards[deviceID] = sc
}

// Unregister removes a soundcard from the registry.
func (r *Registry) Unregister(deviceID string) {
	shard := r.shardFor(deviceID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.cards, deviceID)
}

// Lookup returns the soundcard registered under deviceID, if any.
func (r *Registry) Lookup(deviceID string) (SoundcardContract, bool) {
	shard := r.shardFor(deviceID)
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	sc, ok := shard.cards[deviceID]
	return sc, ok
}

// Drain removes every entry, calling Stop on each registered soundcard. Used
// at engine shutdown.
func (r *Registry) Drain() {
	for i := range r.shards {
		shard := &r.shards[i]
		shard.mu.Lock()
		for id, sc := range shard.cards {
			sc.Stop()
			delete(shard.cards, id)
		}
		shard.mu.Unlock()
	}
}
