package eventhub

import "sync"

// Extension is the capability set an extension type must satisfy (spec §6).
type Extension interface {
	TypeName() string
	FriendlyName() string
	Version() string

	OnRegistered() error
	OnUnregistered()
	ReadyForEvent(event Event) bool
}

// MetadataProvider is an optional extension capability for static metadata.
type MetadataProvider interface {
	Metadata() map[string]string
}

// NamedSharedState lets an extension publish shared state under a name
// other than its TypeName. Extensions that don't implement this use
// TypeName() as their shared-state name.
type NamedSharedState interface {
	SharedStateName() string
}

// ExtensionState is the lifecycle state of a registered extension.
type ExtensionState int

const (
	ExtensionRegistering ExtensionState = iota
	ExtensionRegistered
	ExtensionUnregistered
)

// Listener is invoked for every dispatched event matching its filter.
type Listener func(event Event)

type listenerRegistration struct {
	typeFilter   string
	sourceFilter string
	listener     Listener
}

// ExtensionContainer is the hub's internal wrapper around one extension
// (spec C4): its lifecycle, private event queue, listener registry, and
// shared-state timeline.
type ExtensionContainer struct {
	extension Extension
	logger    Logger

	sharedStateName string
	timeline        *SharedStateTimeline
	worker          *Orderer[Event]

	mu            sync.RWMutex
	state         ExtensionState
	listeners     []listenerRegistration
	lastProcessed *Event
}

// newExtensionContainer constructs a container and starts its private
// worker. The extension is considered REGISTERING until OnRegistered
// succeeds, at which point the caller (Hub.RegisterExtension) flips it to
// REGISTERED.
func newExtensionContainer(ext Extension, logger Logger) *ExtensionContainer {
	if logger == nil {
		logger = noopLogger{}
	}

	name := ext.TypeName()
	if named, ok := ext.(NamedSharedState); ok {
		name = named.SharedStateName()
	}

	c := &ExtensionContainer{
		extension:       ext,
		logger:          logger,
		sharedStateName: name,
		timeline:        NewSharedStateTimeline(name, logger),
		worker:          NewOrderer[Event](ext.TypeName(), logger),
		state:           ExtensionRegistering,
	}
	c.worker.SetHandler(c.handle)
	c.worker.Start()
	return c
}

// AddListener registers a listener for events matching the given filters.
// Either axis may be "*" for wildcard matching. Listeners fire in
// registration order.
func (c *ExtensionContainer) AddListener(typeFilter, sourceFilter string, l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, listenerRegistration{typeFilter, sourceFilter, l})
}

// Enqueue appends an event to this container's private ordered queue.
func (c *ExtensionContainer) Enqueue(e Event) {
	c.worker.Add(e)
}

// Retick wakes the worker without enqueuing, for use when the extension's
// readiness changes out of band.
func (c *ExtensionContainer) Retick() {
	c.worker.Retick()
}

// LastProcessedEvent returns the most recent event delivered to the
// container's handler, or nil if none has been delivered yet.
func (c *ExtensionContainer) LastProcessedEvent() *Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastProcessed
}

// State returns the container's current lifecycle state.
func (c *ExtensionContainer) State() ExtensionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// setState transitions the container's lifecycle state.
func (c *ExtensionContainer) setState(s ExtensionState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// SharedStateName returns the name this container's timeline is published
// under.
func (c *ExtensionContainer) SharedStateName() string {
	return c.sharedStateName
}

// Timeline returns the container's shared-state timeline.
func (c *ExtensionContainer) Timeline() *SharedStateTimeline {
	return c.timeline
}

// handle is the private worker's handler (spec §4.4):
//  1. records lastProcessed
//  2. fans out to matching listeners, in registration order, with panic
//     recovery so one faulty listener can't disable the container
//  3. returns true only once the extension reports ready for this event
func (c *ExtensionContainer) handle(e Event) bool {
	c.mu.Lock()
	c.lastProcessed = &e
	listeners := make([]listenerRegistration, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, reg := range listeners {
		if !e.Matches(reg.typeFilter, reg.sourceFilter) {
			continue
		}
		c.invokeListener(reg.listener, e)
	}

	ready := c.extension.ReadyForEvent(e)
	if !ready {
		c.logger.Debug("extension not ready for event, retaining", "extension", c.extension.TypeName(), "event", e.ID)
	}
	return ready
}

func (c *ExtensionContainer) invokeListener(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("listener panicked", "extension", c.extension.TypeName(), "event", e.ID, "panic", r)
		}
	}()
	l(e)
}

// unregister runs the extension's teardown hook exactly once, drops all
// listeners, and stops the private worker. Pending items are discarded.
func (c *ExtensionContainer) unregister() {
	c.setState(ExtensionUnregistered)
	c.worker.Close()

	func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("onUnregistered panicked", "extension", c.extension.TypeName(), "panic", r)
			}
		}()
		c.extension.OnUnregistered()
	}()

	c.mu.Lock()
	c.listeners = nil
	c.mu.Unlock()
}
