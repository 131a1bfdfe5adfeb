package eventhub

import "sync"

// Completion is the callback through which registration errors are
// surfaced; the hub never aborts or panics on these conditions (spec §7).
type Completion func(err error)

// Preprocessor is a pure transformation applied to every event before
// dispatch routing. Preprocessors compose left-to-right.
type Preprocessor func(Event) Event

// Observer optionally receives a CloudEvents mirror of every notable hub
// occurrence. Entirely additive: the hub's own dispatch path never
// depends on an Observer being present.
type Observer interface {
	OnHubEvent(event Event)
}

// Hub is the event-dispatch core (spec C5): registration, the global
// event orderer, the preprocessor chain, the response-listener table, and
// the hub's own shared state describing all registered extensions.
type Hub struct {
	logger Logger

	counter Counter
	store   *store

	controlLane *Orderer[func()]
	global      *Orderer[Event]

	mu            sync.RWMutex
	preprocessors []Preprocessor

	observer Observer

	hubTimeline *SharedStateTimeline

	started bool
	startMu sync.Mutex

	config *ConfigWatcher
}

// NewHub creates a hub in the unstarted state. Call Start before
// dispatching events; registration may happen before or after Start.
func NewHub(logger Logger) *Hub {
	if logger == nil {
		logger = noopLogger{}
	}
	h := &Hub{
		logger:      logger,
		store:       newStore(),
		controlLane: NewOrderer[func()]("control-lane", logger),
		global:      NewOrderer[Event]("global-event-lane", logger),
		hubTimeline: NewSharedStateTimeline(HubExtensionName, logger),
	}
	h.global.SetHandler(h.handleGlobalEvent)
	h.controlLane.SetHandler(func(fn func()) bool { fn(); return true })
	h.controlLane.Start()
	return h
}

// SetObserver installs (or clears, with nil) the optional CloudEvents
// observer.
func (h *Hub) SetObserver(o Observer) {
	h.mu.Lock()
	h.observer = o
	h.mu.Unlock()
}

func (h *Hub) notifyObserver(e Event) {
	h.mu.RLock()
	o := h.observer
	h.mu.RUnlock()
	if o == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("observer panicked", "event", e.ID, "panic", r)
		}
	}()
	o.OnHubEvent(e)
}

// Start transitions the global orderer to RUNNING on the control lane and
// publishes the initial hub shared state. Idempotent.
func (h *Hub) Start() {
	done := make(chan struct{})
	h.controlLane.Add(func() {
		defer close(done)
		h.startMu.Lock()
		alreadyStarted := h.started
		h.started = true
		h.startMu.Unlock()

		h.global.Start()

		if !alreadyStarted {
			h.publishHubState()
		}
	})
	<-done
}

// Started reports whether Start has returned at least once.
func (h *Hub) Started() bool {
	h.startMu.Lock()
	defer h.startMu.Unlock()
	return h.started
}

// RegisterExtension constructs a container for ext and registers it.
// Serialized on the control lane. completion receives ErrInvalidExtensionName
// for an empty type name, ErrDuplicateExtensionName if already registered,
// or nil on success (after ext.OnRegistered() has returned).
func (h *Hub) RegisterExtension(ext Extension, completion Completion) {
	h.controlLane.Add(func() {
		typeName := ext.TypeName()
		if typeName == "" {
			h.complete(completion, ErrInvalidExtensionName)
			return
		}
		if h.store.getExtension(typeName) != nil {
			h.complete(completion, ErrDuplicateExtensionName)
			return
		}

		container := newExtensionContainer(ext, h.logger)
		if err := ext.OnRegistered(); err != nil {
			container.setState(ExtensionUnregistered)
			container.worker.Close()
			h.complete(completion, ErrExtensionInitFailure)
			return
		}

		container.setState(ExtensionRegistered)
		h.store.putExtension(typeName, container)
		h.publishHubState()
		h.complete(completion, nil)
	})
}

// UnregisterExtension removes a registered extension. Serialized on the
// control lane. Pending response listeners tied to that extension's events
// are not cancelled; they complete naturally by timeout (spec §5).
func (h *Hub) UnregisterExtension(typeName string, completion Completion) {
	h.controlLane.Add(func() {
		container := h.store.getExtension(typeName)
		if container == nil {
			h.complete(completion, ErrExtensionNotRegistered)
			return
		}

		h.store.removeExtension(typeName)
		container.unregister()
		h.publishHubState()
		h.complete(completion, nil)
	})
}

// GetExtensionContainer looks up a registered extension's container by
// type name. Returns nil if not registered.
func (h *Hub) GetExtensionContainer(typeName string) *ExtensionContainer {
	return h.store.getExtension(typeName)
}

// SetConfig installs a ConfigWatcher whose PreprocessorAllowList gates
// subsequent RegisterNamedPreprocessor calls. Optional; with none set, the
// allow list is treated as empty (unrestricted).
func (h *Hub) SetConfig(cw *ConfigWatcher) {
	h.mu.Lock()
	h.config = cw
	h.mu.Unlock()
}

// RegisterPreprocessor appends fn to the preprocessor chain, unconditionally.
// Preprocessors run in registration order against every dispatched event,
// including the match against event.ResponseID (spec §9 open question,
// preserved).
func (h *Hub) RegisterPreprocessor(fn Preprocessor) {
	h.mu.Lock()
	h.preprocessors = append(h.preprocessors, fn)
	h.mu.Unlock()
}

// RegisterNamedPreprocessor is RegisterPreprocessor gated by the current
// config's PreprocessorAllowList, if any is set: name must appear in it.
// An empty allow list (the default) permits every name. Already-registered
// preprocessors are never retroactively removed by a later allow-list
// change (spec HubConfig notes).
func (h *Hub) RegisterNamedPreprocessor(name string, fn Preprocessor) error {
	h.mu.Lock()
	cw := h.config
	h.mu.Unlock()

	if cw != nil {
		allowList := cw.Current().PreprocessorAllowList
		if len(allowList) > 0 && !containsString(allowList, name) {
			return ErrPreprocessorNotAllowed
		}
	}

	h.RegisterPreprocessor(fn)
	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func (h *Hub) preprocess(e Event) Event {
	h.mu.RLock()
	chain := make([]Preprocessor, len(h.preprocessors))
	copy(chain, h.preprocessors)
	h.mu.RUnlock()

	for _, fn := range chain {
		e = h.runPreprocessor(fn, e)
	}
	return e
}

// runPreprocessor applies one preprocessor with fail-open panic recovery:
// a preprocessor that panics leaves the event as it was before that stage
// (spec §7).
func (h *Hub) runPreprocessor(fn Preprocessor, e Event) (result Event) {
	result = e
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("preprocessor panicked, using pre-preprocessor event", "event", e.ID, "panic", r)
			result = e
		}
	}()
	return fn(e)
}

func (h *Hub) complete(c Completion, err error) {
	if c != nil {
		c(err)
	}
}
