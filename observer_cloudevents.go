package eventhub

import (
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// CloudEventObserver mirrors every dispatched event as a CloudEvents
// envelope onto a sink function, decoupling anything outside the hub from
// the internal Event type. Entirely additive: installing one never affects
// dispatch behavior.
type CloudEventObserver struct {
	logger Logger
	sink   func(cloudevents.Event)
}

// NewCloudEventObserver builds an Observer that converts every hub Event to
// a CloudEvent via ToCloudEvent and passes it to sink.
func NewCloudEventObserver(logger Logger, sink func(cloudevents.Event)) *CloudEventObserver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &CloudEventObserver{logger: logger, sink: sink}
}

// OnHubEvent implements Observer.
func (o *CloudEventObserver) OnHubEvent(event Event) {
	if o.sink == nil {
		return
	}
	o.sink(ToCloudEvent(event))
}

// ToCloudEvent converts a hub Event into a CloudEvents v1.0 envelope. ID,
// source, type and time map directly; Data and ResponseID travel as the
// CloudEvent's JSON data and "responseid" extension respectively.
func ToCloudEvent(e Event) cloudevents.Event {
	out := cloudevents.NewEvent()
	out.SetID(e.ID)
	out.SetSource(e.Source)
	out.SetType(e.Type)
	out.SetTime(e.Timestamp)
	out.SetSpecVersion(cloudevents.VersionV1)

	if e.ResponseID != "" {
		out.SetExtension("responseid", e.ResponseID)
	}
	if e.Data != nil {
		_ = out.SetData(cloudevents.ApplicationJSON, e.Data)
	}
	return out
}
