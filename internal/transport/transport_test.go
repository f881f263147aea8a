package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPipeOrdered(t *testing.T) {
	ctx := testContext(t)
	a, b := Pipe()

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, a.Send(ctx, []byte(msg)))
	}
	require.NoError(t, b.Send(ctx, []byte("back")))

	for _, want := range []string{"one", "two", "three"} {
		got, err := b.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
	got, err := a.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "back", string(got))
}

func TestPipeCopiesPayload(t *testing.T) {
	ctx := testContext(t)
	a, b := Pipe()

	msg := []byte("abc")
	require.NoError(t, a.Send(ctx, msg))
	msg[0] = 'X'

	got, err := b.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestPipeRecvBlocksUntilSend(t *testing.T) {
	ctx := testContext(t)
	a, b := Pipe()

	done := make(chan []byte)
	go func() {
		msg, _ := b.Recv(ctx)
		done <- msg
	}()

	select {
	case <-done:
		t.Fatal("recv returned before send")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, a.Send(ctx, []byte("late")))
	select {
	case msg := <-done:
		assert.Equal(t, "late", string(msg))
	case <-ctx.Done():
		t.Fatal("recv never returned")
	}
}

func TestPipeCloseDrainsThenFails(t *testing.T) {
	ctx := testContext(t)
	a, b := Pipe()

	require.NoError(t, a.Send(ctx, []byte("last")))
	require.NoError(t, a.Close())

	got, err := b.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "last", string(got))

	_, err = b.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.Send(ctx, []byte("x")), ErrClosed)
}

func TestPipeRecvHonoursContext(t *testing.T) {
	_, b := Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisFIFO(t *testing.T) {
	ctx := testContext(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	bg := NewRedisBackground(client, "t1").WithBlock(50 * time.Millisecond)
	fg := NewRedisForeground(client, "t1").WithBlock(50 * time.Millisecond)
	require.NoError(t, bg.Reset(ctx))

	for _, msg := range []string{`"hi"`, `{"elements":[]}`} {
		require.NoError(t, bg.Send(ctx, []byte(msg)))
	}
	require.NoError(t, fg.Send(ctx, []byte(`{"click":1}`)))

	got, err := fg.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, `"hi"`, string(got))
	got, err = fg.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"elements":[]}`, string(got))

	got, err = bg.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"click":1}`, string(got))

	assert.False(t, mr.Exists(DownKey("t1")))
}

func TestRedisClosed(t *testing.T) {
	ctx := testContext(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	p := NewRedisBackground(client, "t2").WithBlock(20 * time.Millisecond)
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Send(ctx, []byte("x")), ErrClosed)
	_, err := p.Recv(ctx)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWebSocketPort(t *testing.T) {
	ctx := testContext(t)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		port := NewWebSocket(conn)
		defer port.Close()
		for {
			msg, err := port.Recv(context.Background())
			if err != nil {
				return
			}
			if err := port.Send(context.Background(), append([]byte("echo:"), msg...)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	var sent, received int
	client := NewWebSocket(conn).WithHooks(func() { sent++ }, func() { received++ })
	defer client.Close()

	require.NoError(t, client.Send(ctx, []byte("a")))
	require.NoError(t, client.Send(ctx, []byte("b")))

	for _, want := range []string{"echo:a", "echo:b"} {
		got, err := client.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
	assert.Equal(t, 2, sent)
	assert.Equal(t, 2, received)
}
