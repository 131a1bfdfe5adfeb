package eventhub

// Dispatch assigns the event a sequence number, records the id->seq
// mapping, and enqueues it on the global orderer. Never blocks the
// caller (spec §4.5.1).
func (h *Hub) Dispatch(e Event) Event {
	e.Seq = h.counter.IncrementAndGet()
	h.store.putEventSeq(e.ID, e.Seq)
	h.global.Add(e)
	return e
}

// handleGlobalEvent is the global orderer's handler (spec §4.5.3). It
// always returns true: the global lane never retries a dispatched event.
func (h *Hub) handleGlobalEvent(e Event) bool {
	e = h.preprocess(e)

	h.matchResponses(e)

	for _, container := range h.store.snapshotExtensions() {
		container.Enqueue(e)
	}

	h.notifyObserver(e)
	return true
}
