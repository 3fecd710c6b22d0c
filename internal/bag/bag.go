// Package bag parses the serialized cart snapshot ("bag") that the checkout
// flow attaches to the payment intent metadata. The snapshot is transient:
// it only drives line-item creation, while the raw string is what gets
// persisted for idempotency comparison.
package bag

import (
	"encoding/json"
	"sort"
)

// Entry is one bag line: either a flat quantity, or quantities split by size.
type Entry struct {
	Quantity int
	BySize   map[string]int
}

// HasSizes reports whether the entry splits into per-size quantities. An
// object entry with no items_by_size key counts as sized with zero sizes,
// which produces no line items.
func (e Entry) HasSizes() bool { return e.BySize != nil }

// Sizes returns the entry's size labels in deterministic order.
func (e Entry) Sizes() []string {
	labels := make([]string, 0, len(e.BySize))
	for s := range e.BySize {
		labels = append(labels, s)
	}
	sort.Strings(labels)
	return labels
}

// UnmarshalJSON accepts either a bare integer or {"items_by_size": {...}}.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var qty int
	if err := json.Unmarshal(data, &qty); err == nil {
		e.Quantity = qty
		e.BySize = nil
		return nil
	}

	var wrapped struct {
		ItemsBySize map[string]int `json:"items_by_size"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.ItemsBySize == nil {
		wrapped.ItemsBySize = map[string]int{}
	}
	e.BySize = wrapped.ItemsBySize
	return nil
}

// Snapshot maps catalog item id to its bag entry.
type Snapshot map[string]Entry

// Parse decodes a raw bag string. Any JSON error, at the envelope or entry
// level, yields the empty snapshot alongside the error: a malformed bag must
// never block order creation, only line-item population.
func Parse(raw string) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return Snapshot{}, err
	}
	if snap == nil {
		// raw was the JSON literal null
		return Snapshot{}, nil
	}
	return snap, nil
}

// ItemIDs returns the snapshot's item ids in deterministic order, so line
// items are always created in the same sequence.
func (s Snapshot) ItemIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
