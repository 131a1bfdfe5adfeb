package eventhub

import "sync"

// PendingResolver resolves a previously created pending shared state. It
// may be invoked exactly once; subsequent calls are no-ops.
type PendingResolver func(data map[string]any)

func (h *Hub) versionFor(event *Event) int64 {
	if event == nil {
		return 0
	}
	return event.Seq
}

// CreateSharedState writes SET(data) to extensionName's timeline at the
// version derived from event (or 0 if event is nil), then dispatches a
// state-change notification event (spec §4.5.1, §4.5.5).
func (h *Hub) CreateSharedState(extensionName string, data map[string]any, event *Event) {
	container := h.store.getExtension(extensionName)
	if container == nil {
		h.logger.Warn("createSharedState: extension not registered", "extension", extensionName)
		return
	}

	container.Timeline().Set(h.versionFor(event), data)
	h.Dispatch(newStateChangeEvent(extensionName))
}

// CreatePendingSharedState writes PENDING at the version derived from
// event, and returns a one-shot resolver that writes SET at the same
// version and dispatches the state-change notification when invoked.
func (h *Hub) CreatePendingSharedState(extensionName string, event *Event) PendingResolver {
	container := h.store.getExtension(extensionName)
	if container == nil {
		h.logger.Warn("createPendingSharedState: extension not registered", "extension", extensionName)
		return func(map[string]any) {}
	}

	version := h.versionFor(event)
	container.Timeline().AddPending(version)

	var once sync.Once
	return func(data map[string]any) {
		once.Do(func() {
			container.Timeline().UpdatePending(version, data)
			h.Dispatch(newStateChangeEvent(extensionName))
		})
	}
}

// GetSharedState resolves extensionName's shared state as of event (or at
// version 0 if event is nil, so only state created without an event is
// visible), applying the barrier rule of spec §4.5.2 when barrier is true.
func (h *Hub) GetSharedState(extensionName string, event *Event, barrier bool) StateResult {
	container := h.store.getExtension(extensionName)
	if container == nil {
		return StateResult{Status: StateNone}
	}

	v := h.resolveVersion(event)
	result := container.Timeline().Resolve(v)

	if !barrier || result.Status != StateSet {
		return result
	}

	last := container.LastProcessedEvent()
	var lastSeq int64 = -1
	if last != nil {
		lastSeq = last.Seq
	}
	if lastSeq < v-1 {
		return StateResult{Status: StatePending, Data: result.Data}
	}
	return result
}

// GetSharedStateDefault is GetSharedState using the currently configured
// default barrier mode.
func (h *Hub) GetSharedStateDefault(extensionName string, event *Event) StateResult {
	h.mu.RLock()
	cw := h.config
	h.mu.RUnlock()

	barrier := DefaultHubConfig().DefaultBarrier
	if cw != nil {
		barrier = cw.Current().DefaultBarrier
	}
	return h.GetSharedState(extensionName, event, barrier)
}

// resolveVersion implements "v = eventNumberMap[event.id] if event given,
// else 0" (spec §4.5.2), falling back to the event's own Seq field when it
// has not (yet) been recorded in eventNumberMap - e.g. a caller resolving
// shared state against an event it is about to dispatch.
func (h *Hub) resolveVersion(event *Event) int64 {
	if event == nil {
		return 0
	}
	if seq, ok := h.store.seqFor(event.ID); ok {
		return seq
	}
	return event.Seq
}

// publishHubState writes a new entry to the hub's own pseudo-extension
// timeline listing every currently registered extension by friendly name
// (spec §4.5.4), then dispatches the state-change notification.
func (h *Hub) publishHubState() {
	extensions := map[string]any{}
	for _, c := range h.store.snapshotExtensions() {
		entry := map[string]any{
			HubStateVersionKey: c.extension.Version(),
		}
		if mp, ok := c.extension.(MetadataProvider); ok {
			entry[HubStateMetadataKey] = mp.Metadata()
		}
		extensions[c.extension.FriendlyName()] = entry
	}

	version := int64(0)
	if h.hubTimeline.Resolve(^int64(0) >> 1).Status != StateNone {
		version = h.counter.IncrementAndGet()
	}

	h.hubTimeline.Set(version, map[string]any{
		HubStateExtensionsKey: extensions,
	})

	h.Dispatch(newStateChangeEvent(HubExtensionName))
}

// GetHubState returns the hub's own shared state (the set of currently
// registered extensions), resolved at the latest published version.
func (h *Hub) GetHubState() StateResult {
	return h.hubTimeline.Resolve(^int64(0) >> 1)
}
