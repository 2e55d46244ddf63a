// Package subscription keeps the set of option contracts clients asked for.
package subscription

import (
	"sort"

	"quote-bridge/src/models"
	"quote-bridge/src/utils"
)

// Registry maps contract keys to subscriptions. It is owned by the worker
// loop and is not safe for concurrent use.
type Registry struct {
	root    string
	entries map[string]models.MSubscription
}

func NewRegistry(symbolRoot string) *Registry {
	return &Registry{
		root:    symbolRoot,
		entries: make(map[string]models.MSubscription),
	}
}

// Put adds the contract if absent and returns its provider symbol.
// Putting an existing contract leaves the registry unchanged.
func (r *Registry) Put(c models.MOptionContract) string {
	key := c.Key()
	if sub, ok := r.entries[key]; ok {
		return sub.Symbol
	}
	sub := models.MSubscription{Contract: c, Symbol: utils.EncodeSymbol(r.root, c)}
	r.entries[key] = sub
	return sub.Symbol
}

// Remove deletes the contract and reports whether it was present.
func (r *Registry) Remove(c models.MOptionContract) bool {
	key := c.Key()
	if _, ok := r.entries[key]; !ok {
		return false
	}
	delete(r.entries, key)
	return true
}

// Snapshot returns the subscriptions ordered by key.
func (r *Registry) Snapshot() []models.MSubscription {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.MSubscription, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.entries[k])
	}
	return out
}

func (r *Registry) Count() int {
	return len(r.entries)
}
