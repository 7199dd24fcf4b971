package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wsFrame is a decoded client→server frame as the test server saw it.
type wsFrame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data"`
}

// wsHarness is a minimal live-event server: it records every inbound
// frame and lets tests push frames back to the connected client.
type wsHarness struct {
	t        *testing.T
	server   *httptest.Server
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  int
	conn   *websocket.Conn
	frames []wsFrame
	tokens []string
	stall  time.Duration
}

func newWSHarness(t *testing.T) *wsHarness {
	t.Helper()
	h := &wsHarness{t: t}

	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		stall := h.stall
		h.mu.Unlock()
		if stall > 0 {
			time.Sleep(stall)
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		h.mu.Lock()
		h.conns++
		h.conn = conn
		h.tokens = append(h.tokens, r.URL.Query().Get("token"))
		h.mu.Unlock()

		for {
			var frame wsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			h.mu.Lock()
			h.frames = append(h.frames, frame)
			h.mu.Unlock()
		}
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *wsHarness) endpoint() string {
	return "ws" + strings.TrimPrefix(h.server.URL, "http")
}

func (h *wsHarness) connCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conns
}

func (h *wsHarness) seenFrames() []wsFrame {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]wsFrame(nil), h.frames...)
}

// waitFrames blocks until the server has received at least n frames.
func (h *wsHarness) waitFrames(n int) []wsFrame {
	h.t.Helper()
	require.Eventually(h.t, func() bool {
		return len(h.seenFrames()) >= n
	}, 3*time.Second, 10*time.Millisecond, "expected at least %d frames", n)
	return h.seenFrames()
}

// push sends one server→client frame on the live connection.
func (h *wsHarness) push(event string, data string) {
	h.t.Helper()
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	require.NotNil(h.t, conn, "no client connected")

	payload := `{"event":"` + event + `","data":` + data + `}`
	require.NoError(h.t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

// pushRaw sends an arbitrary text frame, valid JSON or not.
func (h *wsHarness) pushRaw(raw string) {
	h.t.Helper()
	h.mu.Lock()
	conn := h.conn
	h.mu.Unlock()
	require.NotNil(h.t, conn)
	require.NoError(h.t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// stallNext delays every following handshake by d.
func (h *wsHarness) stallNext(d time.Duration) {
	h.mu.Lock()
	h.stall = d
	h.mu.Unlock()
}

// dropClient force-closes the server side of the connection.
func (h *wsHarness) dropClient() {
	h.mu.Lock()
	conn := h.conn
	h.conn = nil
	h.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// recv drains one value from a stream subscription with a deadline.
func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		var zero T
		return zero
	}
}

func TestConnectAnnouncesAndJoinsUserRoom(t *testing.T) {
	h := newWSHarness(t)
	c := NewChannel(h.endpoint())
	t.Cleanup(c.Disconnect)

	require.NoError(t, c.Connect("tok-1", "u1"))
	assert.Equal(t, Connected, c.Status())

	frames := h.waitFrames(3)
	assert.Equal(t, EventJoinUserRoom, frames[0].Event)
	assert.Equal(t, "u1", frames[0].Data["userId"])
	assert.Equal(t, EventSocketReady, frames[1].Event)
	assert.NotEmpty(t, frames[1].Data["sessionId"])
	assert.Equal(t, EventNotificationGetCount, frames[2].Event)

	h.mu.Lock()
	tokens := append([]string(nil), h.tokens...)
	h.mu.Unlock()
	require.Len(t, tokens, 1)
	assert.Equal(t, "tok-1", tokens[0], "token travels in the handshake query")
}

func TestConnectWhileConnectedIsNoOp(t *testing.T) {
	h := newWSHarness(t)
	c := NewChannel(h.endpoint())
	t.Cleanup(c.Disconnect)

	require.NoError(t, c.Connect("tok-1", "u1"))
	require.NoError(t, c.Connect("tok-1", "u1"))
	require.NoError(t, c.Connect("tok-2", "u1"))

	assert.Equal(t, 1, h.connCount(), "at most one live connection")
	assert.Equal(t, Connected, c.Status())
}

func TestDisconnectIsIdempotent(t *testing.T) {
	h := newWSHarness(t)
	c := NewChannel(h.endpoint())

	require.NoError(t, c.Connect("tok-1", "u1"))
	c.Disconnect()
	c.Disconnect()

	assert.Equal(t, Disconnected, c.Status())

	// Disconnect on a never-connected channel is also safe.
	NewChannel(h.endpoint()).Disconnect()
}

func TestJoinArticleEmitsAndRejoinsAfterReconnect(t *testing.T) {
	h := newWSHarness(t)
	c := NewChannel(h.endpoint())
	t.Cleanup(c.Disconnect)

	require.NoError(t, c.Connect("tok-1", "u1"))
	h.waitFrames(3)

	c.JoinArticle("a1")
	frames := h.waitFrames(4)
	join := frames[len(frames)-1]
	assert.Equal(t, EventJoinArticle, join.Event)
	assert.Equal(t, "a1", join.Data["articleId"])

	// Kill the connection server-side; the channel reconnects on its
	// own and replays the article room membership.
	h.dropClient()

	require.Eventually(t, func() bool {
		return h.connCount() == 2 && c.Status() == Connected
	}, 5*time.Second, 20*time.Millisecond)

	require.Eventually(t, func() bool {
		for _, f := range h.seenFrames()[4:] {
			if f.Event == EventJoinArticle && f.Data["articleId"] == "a1" {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond, "article room must be rejoined after a drop")
}

func TestDisconnectWinsOverInFlightReconnect(t *testing.T) {
	h := newWSHarness(t)
	c := NewChannel(h.endpoint())
	t.Cleanup(c.Disconnect)

	require.NoError(t, c.Connect("tok-1", "u1"))
	h.waitFrames(3)

	// Stall the next handshake so the automatic reconnect dial is
	// still in flight when Disconnect lands.
	h.stallNext(400 * time.Millisecond)
	h.dropClient()

	require.Eventually(t, func() bool {
		return c.Status() == Connecting
	}, 2*time.Second, 5*time.Millisecond, "the drop must trigger a reconnect attempt")

	c.Disconnect()

	// Give the stalled dial time to complete. The finished socket
	// must be discarded, not adopted.
	time.Sleep(800 * time.Millisecond)
	assert.Equal(t, Disconnected, c.Status(), "a completing dial must not resurrect a disconnected channel")

	joins := 0
	for _, f := range h.seenFrames() {
		if f.Event == EventJoinUserRoom {
			joins++
		}
	}
	assert.Equal(t, 1, joins, "the superseded attempt must not re-announce itself")
}

func TestClientEventEmitters(t *testing.T) {
	h := newWSHarness(t)
	c := NewChannel(h.endpoint())
	t.Cleanup(c.Disconnect)

	require.NoError(t, c.Connect("tok-1", "u1"))
	h.waitFrames(3)

	c.SendTyping("a1", true)
	c.IncrementArticleView("a1")
	c.MarkNotificationRead("n1")
	c.RequestNotificationCount()
	c.LeaveArticle("a1")

	frames := h.waitFrames(8)
	tail := frames[3:]
	assert.Equal(t, EventTyping, tail[0].Event)
	assert.Equal(t, "a1", tail[0].Data["articleId"])
	assert.Equal(t, true, tail[0].Data["isTyping"])
	assert.Equal(t, EventIncrementArticleView, tail[1].Event)
	assert.Equal(t, EventNotificationMarkRead, tail[2].Event)
	assert.Equal(t, "n1", tail[2].Data["notificationId"])
	assert.Equal(t, EventNotificationGetCount, tail[3].Event)
	assert.Equal(t, EventLeaveArticle, tail[4].Event)
	assert.Equal(t, "a1", tail[4].Data["articleId"])
}

func TestEmitBeforeConnectIsNoOp(t *testing.T) {
	c := NewChannel("ws://127.0.0.1:1/ws")

	c.JoinArticle("a1")
	c.SendTyping("a1", true)
	c.IncrementArticleView("a1")
	c.RequestNotificationCount()

	assert.Equal(t, Disconnected, c.Status())
}

func TestDispatchRoutesEventsToStreams(t *testing.T) {
	h := newWSHarness(t)
	c := NewChannel(h.endpoint())
	t.Cleanup(c.Disconnect)

	comments, cancelComments := c.NewComments.Subscribe()
	defer cancelComments()
	likes, cancelLikes := c.CommentLikes.Subscribe()
	defer cancelLikes()
	deletes, cancelDeletes := c.CommentDeletes.Subscribe()
	defer cancelDeletes()
	counts, cancelCounts := c.NotificationCounts.Subscribe()
	defer cancelCounts()
	notifs, cancelNotifs := c.Notifications.Subscribe()
	defer cancelNotifs()

	require.NoError(t, c.Connect("tok-1", "u1"))
	h.waitFrames(3)

	h.push(EventNewComment, `{"id":"c1","content":"hi","articleId":"a1"}`)
	comment := recv(t, comments)
	assert.Equal(t, "c1", comment.ID)
	assert.Equal(t, "hi", comment.Content)

	h.push(EventCommentLiked, `{"commentId":"c1","likes":2,"likesArray":["u1","u2"]}`)
	like := recv(t, likes)
	assert.Equal(t, "c1", like.CommentID)
	assert.Equal(t, []string{"u1", "u2"}, like.LikesArray)

	h.push(EventCommentDeleted, `{"commentId":"c1","articleId":"a1"}`)
	del := recv(t, deletes)
	assert.Equal(t, "c1", del.CommentID)

	h.push(EventNotificationCount, `{"count":7}`)
	assert.Equal(t, 7, recv(t, counts))

	// Both notification event names land on the same stream.
	h.push(EventNewNotification, `{"id":"n1","type":"new_comment","title":"t"}`)
	assert.Equal(t, "n1", recv(t, notifs).ID)
	h.push(EventNotification, `{"id":"n2","type":"new_article","title":"t"}`)
	assert.Equal(t, "n2", recv(t, notifs).ID)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	h := newWSHarness(t)
	c := NewChannel(h.endpoint())
	t.Cleanup(c.Disconnect)

	comments, cancel := c.NewComments.Subscribe()
	defer cancel()

	require.NoError(t, c.Connect("tok-1", "u1"))
	h.waitFrames(3)

	h.pushRaw(`not json at all`)
	h.pushRaw(`{"data":{"x":1}}`)
	h.push(EventNewComment, `{"content":"no id"}`)
	h.push("someFutureEvent", `{"id":"x"}`)
	h.push(EventNewComment, `{"id":"c9","content":"ok","articleId":"a1"}`)

	comment := recv(t, comments)
	assert.Equal(t, "c9", comment.ID, "only the well formed frame survives")
	assert.Equal(t, Connected, c.Status(), "garbage frames never kill the connection")
}
