package eventhub

import (
	"time"

	memdb "github.com/hashicorp/go-memdb"
)

// store holds the hub's three concurrent tables (extension registry,
// eventNumberMap, response-listener table) as go-memdb tables. MemDB's
// copy-on-write transactions are the concrete implementation of spec §5's
// "atomic insert, atomic remove, snapshot iteration" requirement: a write
// transaction is serialized against other writers but readers always see
// a consistent, unchanging snapshot taken at the start of their iteration.
type store struct {
	db *memdb.MemDB
}

type extensionRow struct {
	TypeName  string
	Container *ExtensionContainer
}

type eventSeqRow struct {
	EventID string
	Seq     int64
}

type responseRow struct {
	ID             string
	TriggerEventID string
	Listener       ResponseListener
	Timer          *time.Timer
}

func newStore() *store {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"extension": {
				Name: "extension",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "TypeName"},
					},
				},
			},
			"eventseq": {
				Name: "eventseq",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "EventID"},
					},
				},
			},
			"response": {
				Name: "response",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					"trigger": {
						Name:    "trigger",
						Unique:  false,
						Indexer: &memdb.StringFieldIndex{Field: "TriggerEventID"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		// The schema above is a compile-time constant; a failure here means
		// a programming error in the schema definition, not a runtime
		// condition callers can recover from.
		panic(err)
	}
	return &store{db: db}
}

// --- extension registry -------------------------------------------------

func (s *store) putExtension(typeName string, c *ExtensionContainer) {
	txn := s.db.Txn(true)
	_ = txn.Insert("extension", &extensionRow{TypeName: typeName, Container: c})
	txn.Commit()
}

func (s *store) getExtension(typeName string) *ExtensionContainer {
	txn := s.db.Txn(false)
	raw, err := txn.First("extension", "id", typeName)
	if err != nil || raw == nil {
		return nil
	}
	return raw.(*extensionRow).Container
}

func (s *store) removeExtension(typeName string) {
	txn := s.db.Txn(true)
	_, _ = txn.DeleteAll("extension", "id", typeName)
	txn.Commit()
}

// snapshotExtensions returns every registered container as of a single
// consistent snapshot; entries added or removed after this call are never
// observed in the returned slice (spec §5 snapshot-at-start semantics).
func (s *store) snapshotExtensions() []*ExtensionContainer {
	txn := s.db.Txn(false)
	it, err := txn.Get("extension", "id")
	if err != nil {
		return nil
	}
	var out []*ExtensionContainer
	for raw := it.Next(); raw != nil; raw = it.Next() {
		out = append(out, raw.(*extensionRow).Container)
	}
	return out
}

// --- event sequence map ---------------------------------------------------

func (s *store) putEventSeq(eventID string, seq int64) {
	txn := s.db.Txn(true)
	_ = txn.Insert("eventseq", &eventSeqRow{EventID: eventID, Seq: seq})
	txn.Commit()
}

// seqFor returns (seq, true) if eventID has been dispatched, else (0, false).
func (s *store) seqFor(eventID string) (int64, bool) {
	txn := s.db.Txn(false)
	raw, err := txn.First("eventseq", "id", eventID)
	if err != nil || raw == nil {
		return 0, false
	}
	return raw.(*eventSeqRow).Seq, true
}

// --- response listener table ----------------------------------------------

func (s *store) putResponse(row *responseRow) {
	txn := s.db.Txn(true)
	_ = txn.Insert("response", row)
	txn.Commit()
}

// takeResponsesForTrigger atomically removes and returns every response
// row registered for triggerID. Concurrent calls (global handler vs.
// timeout firing) are serialized by MemDB's single-writer transaction
// lock, so whichever call commits first observes the rows and the other
// observes none: first-wins removal (spec §5 cancellation rule).
func (s *store) takeResponsesForTrigger(triggerID string) []*responseRow {
	txn := s.db.Txn(true)
	it, err := txn.Get("response", "trigger", triggerID)
	if err != nil {
		txn.Abort()
		return nil
	}
	var rows []*responseRow
	for raw := it.Next(); raw != nil; raw = it.Next() {
		rows = append(rows, raw.(*responseRow))
	}
	for _, r := range rows {
		_ = txn.Delete("response", r)
	}
	txn.Commit()
	return rows
}

// takeResponseByID atomically removes and returns a single response row by
// its own ID, used by the timeout path. Returns nil if it was already
// removed (the matching response event arrived first).
func (s *store) takeResponseByID(id string) *responseRow {
	txn := s.db.Txn(true)
	raw, err := txn.First("response", "id", id)
	if err != nil || raw == nil {
		txn.Abort()
		return nil
	}
	row := raw.(*responseRow)
	_ = txn.Delete("response", row)
	txn.Commit()
	return row
}
