package eventhub

import "time"

// ResponseListener is invoked with the matching response event, or nil if
// the registration's deadline elapsed first (spec §4.5.1, §8 property 6).
type ResponseListener func(event *Event)

// RegisterResponseListener adds a correlation entry for events responding
// to triggerEvent. If no response arrives within timeout, listener is
// invoked with nil and the entry is removed. Whichever happens first -
// a matching response event, or the timeout - removes the entry; the
// other path is a no-op (spec §5 cancellation rule).
func (h *Hub) RegisterResponseListener(triggerEvent Event, timeout time.Duration, listener ResponseListener) {
	id := newEventID()
	row := &responseRow{
		ID:             id,
		TriggerEventID: triggerEvent.ID,
		Listener:       listener,
	}

	// The timeout callback waits until the row is stored, so even a very
	// short timeout finds (and removes) the entry instead of missing it.
	stored := make(chan struct{})
	row.Timer = time.AfterFunc(timeout, func() {
		<-stored
		h.fireResponseTimeout(id)
	})

	h.store.putResponse(row)
	close(stored)
}

// fireResponseTimeout runs off the timeout scheduler (not the control
// lane, per spec §5), and re-enters the store's atomic removal path so a
// concurrently arriving response event can never also fire this listener.
func (h *Hub) fireResponseTimeout(id string) {
	row := h.store.takeResponseByID(id)
	if row == nil {
		return // the trigger's response already arrived and removed this entry
	}
	row.Listener(nil)
}

// responseTimeoutDefault returns the configured default response-listener
// timeout, or 5s if no ConfigWatcher is installed.
func (h *Hub) responseTimeoutDefault() time.Duration {
	h.mu.RLock()
	cw := h.config
	h.mu.RUnlock()
	if cw == nil {
		return DefaultHubConfig().DefaultResponseTimeout
	}
	return cw.Current().DefaultResponseTimeout
}

// RegisterResponseListenerDefault is RegisterResponseListener using the
// currently configured default timeout.
func (h *Hub) RegisterResponseListenerDefault(triggerEvent Event, listener ResponseListener) {
	h.RegisterResponseListener(triggerEvent, h.responseTimeoutDefault(), listener)
}

// matchResponses removes and invokes every response listener registered
// for event.ResponseID's trigger, cancelling their timeout tasks. Called
// from the global event handler after preprocessing (spec §4.5.3 step 2).
func (h *Hub) matchResponses(event Event) {
	if event.ResponseID == "" {
		return
	}
	rows := h.store.takeResponsesForTrigger(event.ResponseID)
	for _, row := range rows {
		row.Timer.Stop()
		e := event
		row.Listener(&e)
	}
}
