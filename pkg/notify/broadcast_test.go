package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterScoping(t *testing.T) {
	b := NewBroadcaster()

	scoped, cancelScoped := b.Subscribe("frm-1")
	defer cancelScoped()
	all, cancelAll := b.Subscribe("")
	defer cancelAll()

	b.Publish(Signal{FormID: "frm-1", Kind: "options"})
	b.Publish(Signal{FormID: "frm-2", Kind: "options"})

	sig := <-scoped
	assert.Equal(t, "frm-1", sig.FormID)
	select {
	case extra := <-scoped:
		t.Fatalf("scoped subscriber received foreign signal %+v", extra)
	default:
	}

	assert.Equal(t, "frm-1", (<-all).FormID)
	assert.Equal(t, "frm-2", (<-all).FormID)
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe("frm-1")
	defer cancel()

	for i := 0; i < 10; i++ {
		b.Publish(Signal{FormID: "frm-1"})
	}
	// Publishing past the buffer must not have blocked; drain what is there.
	drained := 0
	for {
		select {
		case <-ch:
			drained++
		default:
			assert.Equal(t, cap(ch), drained)
			return
		}
	}
}

func TestBroadcasterCancelClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe("frm-1")
	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic on the closed channel.
	b.Publish(Signal{FormID: "frm-1"})
}

func TestListenerPumpsSignals(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"formId":"frm-1","kind":"options"}`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"formId":"frm-1","kind":"schema"}`)))
		<-r.Context().Done()
	}))
	defer srv.Close()

	b := NewBroadcaster()
	ch, cancelSub := b.Subscribe("frm-1")
	defer cancelSub()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	listener := NewListener(wsURL, b, WithRetryWait(10*time.Millisecond))
	require.NoError(t, listener.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- listener.Run(ctx)
	}()

	recv := func() Signal {
		select {
		case sig := <-ch:
			return sig
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for signal")
			return Signal{}
		}
	}
	assert.Equal(t, "options", recv().Kind)
	assert.Equal(t, "schema", recv().Kind)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
