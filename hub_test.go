package eventhub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionChan() (Completion, chan error) {
	ch := make(chan error, 1)
	return func(err error) { ch <- err }, ch
}

func TestRegisterExtensionSucceeds(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	ext := &stubExtension{typeName: "com.test.a", ready: true}
	completion, ch := completionChan()
	h.RegisterExtension(ext, completion)

	require.NoError(t, <-ch)
	assert.Equal(t, 1, ext.registered)
	assert.NotNil(t, h.GetExtensionContainer("com.test.a"))
}

func TestRegisterExtensionRejectsEmptyTypeName(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	ext := &stubExtension{typeName: "", ready: true}
	completion, ch := completionChan()
	h.RegisterExtension(ext, completion)

	assert.ErrorIs(t, <-ch, ErrInvalidExtensionName)
}

func TestRegisterExtensionRejectsDuplicate(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	ext := &stubExtension{typeName: "com.test.dup", ready: true}
	c1, ch1 := completionChan()
	h.RegisterExtension(ext, c1)
	require.NoError(t, <-ch1)

	c2, ch2 := completionChan()
	h.RegisterExtension(&stubExtension{typeName: "com.test.dup"}, c2)
	assert.ErrorIs(t, <-ch2, ErrDuplicateExtensionName)
}

func TestRegisterExtensionInitFailureUnregistersContainer(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	ext := &stubExtension{typeName: "com.test.fail", onRegErr: assertErr}
	completion, ch := completionChan()
	h.RegisterExtension(ext, completion)

	assert.ErrorIs(t, <-ch, ErrExtensionInitFailure)
	assert.Nil(t, h.GetExtensionContainer("com.test.fail"))
}

var assertErr = assertError("init failed")

type assertError string

func (e assertError) Error() string { return string(e) }

func TestUnregisterExtensionRunsTeardown(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	ext := &stubExtension{typeName: "com.test.b", ready: true}
	c1, ch1 := completionChan()
	h.RegisterExtension(ext, c1)
	require.NoError(t, <-ch1)

	c2, ch2 := completionChan()
	h.UnregisterExtension("com.test.b", c2)
	require.NoError(t, <-ch2)

	assert.Equal(t, 1, ext.unregistered)
	assert.Nil(t, h.GetExtensionContainer("com.test.b"))
}

func TestUnregisterUnknownExtension(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	completion, ch := completionChan()
	h.UnregisterExtension("com.test.nope", completion)
	assert.ErrorIs(t, <-ch, ErrExtensionNotRegistered)
}

func TestPreprocessorRunsBeforeResponseMatching(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	trigger := h.Dispatch(NewEvent("ask", "t", "s", nil))

	h.RegisterPreprocessor(func(e Event) Event {
		if e.Name == "answer" {
			e.ResponseID = trigger.ID
		}
		return e
	})

	got := make(chan *Event, 1)
	h.RegisterResponseListener(trigger, time.Second, func(e *Event) {
		got <- e
	})

	h.Dispatch(NewEvent("answer", "t2", "s2", nil))

	select {
	case e := <-got:
		require.NotNil(t, e)
		assert.Equal(t, "answer", e.Name)
	case <-time.After(time.Second):
		t.Fatal("preprocessor-rewritten responseID was never matched")
	}
}

func TestPreprocessorPanicFailsOpen(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	h.RegisterPreprocessor(func(e Event) Event {
		panic("boom")
	})

	ext := &stubExtension{typeName: "com.test.panic", ready: true}
	c, ch := completionChan()
	h.RegisterExtension(ext, c)
	require.NoError(t, <-ch)

	delivered := make(chan Event, 1)
	container := h.GetExtensionContainer("com.test.panic")
	container.AddListener("*", "*", func(e Event) { delivered <- e })

	h.Dispatch(NewEvent("x", "t", "s", nil))

	select {
	case e := <-delivered:
		assert.Equal(t, "t", e.Type)
	case <-time.After(time.Second):
		t.Fatal("event never delivered after preprocessor panic")
	}
}

func TestRegisterNamedPreprocessorRespectsAllowList(t *testing.T) {
	h := NewHub(nil)
	h.Start()

	cw := &ConfigWatcher{}
	cfg := HubConfig{PreprocessorAllowList: []string{"allowed"}}
	cw.current.Store(&cfg)
	h.SetConfig(cw)

	err := h.RegisterNamedPreprocessor("not-allowed", func(e Event) Event { return e })
	assert.ErrorIs(t, err, ErrPreprocessorNotAllowed)

	err = h.RegisterNamedPreprocessor("allowed", func(e Event) Event { return e })
	assert.NoError(t, err)
}
