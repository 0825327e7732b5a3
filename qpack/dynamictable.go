package qpack

import "errors"

// ErrDynamicTableFull is returned when an insertion would not fit even
// after evicting every unreferenced entry.
var ErrDynamicTableFull = errors.New("qpack: dynamic table capacity exceeded")

// dynamicEntry is one row of a dynamic table, plus the bookkeeping needed
// to enforce the blocking budget (spec: "an entry may not be evicted
// while any outstanding unacknowledged encoded field section references
// it").
type dynamicEntry struct {
	HeaderField
	insertCount uint64 // absolute index; the table's first-ever insertion is 1
	refs        int    // number of not-yet-acknowledged field sections referencing this entry
}

// entrySizeOverhead is RFC 9204 §3.2.1's fixed per-entry accounting
// overhead, added to name+value length when computing table size against
// capacity.
const entrySizeOverhead = 32

func entrySize(f HeaderField) uint64 {
	return uint64(len(f.Name)+len(f.Value)) + entrySizeOverhead
}

// dynamicTable is a FIFO ring of inserted header fields shared, in spirit,
// by the encoder and decoder sides of one connection (each keeps its own
// copy, synchronized via the encoder/decoder instruction streams).
type dynamicTable struct {
	entries  []*dynamicEntry // oldest first
	capacity uint64
	size     uint64

	// insertCount is the total number of insertions ever made (RFC
	// 9204's "Insert Count"), used to compute Required Insert Count and
	// relative/post-base indices.
	insertCount uint64
	// droppedCount is how many of the oldest insertions have since been
	// evicted; insertCount - droppedCount == len(entries).
	droppedCount uint64
}

func newDynamicTable() *dynamicTable {
	return &dynamicTable{}
}

// setCapacity changes the table's maximum size, evicting from the front
// as needed. It never evicts an entry still referenced by an
// unacknowledged field section; if that would be required to fit the new
// capacity, it returns ErrDynamicTableFull and leaves the table
// unchanged in content (though evictions that were already safe to make
// are kept).
func (t *dynamicTable) setCapacity(capacity uint64) error {
	t.capacity = capacity
	return t.evictToFit(0)
}

// insert adds f to the table, evicting from the front until it fits.
// Returns the absolute index assigned to the new entry.
func (t *dynamicTable) insert(f HeaderField) (uint64, error) {
	need := entrySize(f)
	if need > t.capacity {
		return 0, ErrDynamicTableFull
	}
	if err := t.evictToFit(need); err != nil {
		return 0, err
	}
	t.insertCount++
	t.entries = append(t.entries, &dynamicEntry{HeaderField: f, insertCount: t.insertCount})
	t.size += need
	return t.insertCount, nil
}

func (t *dynamicTable) evictToFit(need uint64) error {
	for t.size+need > t.capacity {
		if len(t.entries) == 0 {
			if need > 0 {
				return ErrDynamicTableFull
			}
			return nil
		}
		oldest := t.entries[0]
		if oldest.refs > 0 {
			return ErrDynamicTableFull
		}
		t.size -= entrySize(oldest.HeaderField)
		t.entries = t.entries[1:]
		t.droppedCount++
	}
	return nil
}

// byAbsoluteIndex returns the entry inserted with the given absolute
// index (1-based, as produced by insert), or nil if it has been evicted
// or was never inserted.
func (t *dynamicTable) byAbsoluteIndex(idx uint64) *dynamicEntry {
	if idx <= t.droppedCount || idx > t.insertCount {
		return nil
	}
	return t.entries[idx-t.droppedCount-1]
}

// ref/unref track the encoder-side blocking budget: an entry referenced
// by a still-unacknowledged field section cannot be evicted.
func (t *dynamicTable) ref(e *dynamicEntry)   { e.refs++ }
func (t *dynamicTable) unref(e *dynamicEntry) { e.refs-- }
