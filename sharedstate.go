package eventhub

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	iradix "github.com/hashicorp/go-immutable-radix"
)

// StateStatus is the resolved status of a shared-state read (spec §3).
type StateStatus int

const (
	StateNone StateStatus = iota
	StatePending
	StateSet
)

func (s StateStatus) String() string {
	switch s {
	case StateSet:
		return "SET"
	case StatePending:
		return "PENDING"
	default:
		return "NONE"
	}
}

// StateResult is what Resolve returns: a status and, for SET (and for a
// barrier-downgraded PENDING that still carries a prior value), the data.
type StateResult struct {
	Status StateStatus
	Data   map[string]any
}

type timelineEntry struct {
	version int64
	pending bool
	data    map[string]any
}

// SharedStateTimeline is one extension's versioned, append-only state
// history (spec C3). Versions are hub sequence numbers or 0. Reads are
// lock-free and observe a consistent snapshot of the tree regardless of
// concurrent writers, because the underlying iradix.Tree is immutable:
// a writer builds a new root and publishes it atomically; readers that
// fetched the old root keep seeing it intact.
type SharedStateTimeline struct {
	extensionName string
	logger        Logger

	writeMu sync.Mutex // serializes writers; not required for readers
	root    atomic.Pointer[iradix.Tree]

	hasEntries  bool
	lastVersion int64
}

// NewSharedStateTimeline creates an empty timeline for the named extension.
func NewSharedStateTimeline(extensionName string, logger Logger) *SharedStateTimeline {
	if logger == nil {
		logger = noopLogger{}
	}
	t := &SharedStateTimeline{extensionName: extensionName, logger: logger}
	t.root.Store(iradix.New())
	return t
}

func versionKey(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

// AddPending appends a PENDING entry at v. No-op (logged) if v does not
// strictly exceed every existing version.
func (t *SharedStateTimeline) AddPending(v int64) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.hasEntries && v <= t.lastVersion {
		t.logger.Warn("shared state: addPending ignored, version did not increase",
			"extension", t.extensionName, "version", v, "lastVersion", t.lastVersion)
		return
	}

	tree := t.root.Load()
	txn := tree.Txn()
	txn.Insert(versionKey(v), &timelineEntry{version: v, pending: true})
	t.root.Store(txn.Commit())
	t.hasEntries = true
	t.lastVersion = v
}

// Set writes SET(data) at v: replacing an existing PENDING entry in place,
// or appending a new entry subject to the monotonicity rule.
func (t *SharedStateTimeline) Set(v int64, data map[string]any) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	tree := t.root.Load()
	if _, ok := tree.Get(versionKey(v)); ok {
		txn := tree.Txn()
		txn.Insert(versionKey(v), &timelineEntry{version: v, pending: false, data: data})
		t.root.Store(txn.Commit())
		return
	}

	if t.hasEntries && v <= t.lastVersion {
		t.logger.Warn("shared state: set ignored, version did not increase",
			"extension", t.extensionName, "version", v, "lastVersion", t.lastVersion)
		return
	}

	txn := tree.Txn()
	txn.Insert(versionKey(v), &timelineEntry{version: v, pending: false, data: data})
	t.root.Store(txn.Commit())
	t.hasEntries = true
	t.lastVersion = v
}

// UpdatePending replaces the PENDING entry at v with SET(data). No-op if
// there is no entry at v.
func (t *SharedStateTimeline) UpdatePending(v int64, data map[string]any) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	tree := t.root.Load()
	if _, ok := tree.Get(versionKey(v)); !ok {
		t.logger.Debug("shared state: updatePending no-op, no entry at version",
			"extension", t.extensionName, "version", v)
		return
	}

	txn := tree.Txn()
	txn.Insert(versionKey(v), &timelineEntry{version: v, pending: false, data: data})
	t.root.Store(txn.Commit())
}

// Resolve returns the entry with the greatest version <= v, or NONE.
func (t *SharedStateTimeline) Resolve(v int64) StateResult {
	tree := t.root.Load()
	it := tree.Root().ReverseIterator()
	it.SeekReverseLowerBound(versionKey(v))

	_, raw, ok := it.Previous()
	if !ok {
		return StateResult{Status: StateNone}
	}
	entry := raw.(*timelineEntry)
	if entry.pending {
		return StateResult{Status: StatePending}
	}
	return StateResult{Status: StateSet, Data: entry.data}
}
