package eventhub

import (
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToCloudEventMapsFields(t *testing.T) {
	e := Event{
		ID:         "abc",
		Type:       "com.test.type",
		Source:     "com.test.source",
		Data:       map[string]any{"k": "v"},
		Timestamp:  time.Unix(0, 0).UTC(),
		ResponseID: "trigger-1",
	}

	ce := ToCloudEvent(e)
	assert.Equal(t, "abc", ce.ID())
	assert.Equal(t, "com.test.type", ce.Type())
	assert.Equal(t, "com.test.source", ce.Source())
	require.Contains(t, ce.Extensions(), "responseid")
	assert.Equal(t, "trigger-1", ce.Extensions()["responseid"])
}

func TestCloudEventObserverForwardsToSink(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	got := make(chan string, 1)
	h.SetObserver(NewCloudEventObserver(nil, func(ce cloudevents.Event) {
		got <- ce.Type()
	}))

	h.Dispatch(NewEvent("x", "com.test.type", "com.test.source", nil))

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("observer sink never invoked")
	}
}
