package realtime

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/inkflow/inkwell/internal/logger"
	"github.com/inkflow/inkwell/internal/model"
)

// Status is the connection state.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	handshakeTimeout   = 10 * time.Second
	maxConnectRetries  = 5
	maxBackoffInterval = 10 * time.Second
	writeTimeout       = 10 * time.Second
)

// Channel manages the single live event connection. At most one
// connection and one registered listener set exist at any time;
// Connect while connected or connecting is a no-op. On an unexpected
// drop it reconnects with bounded backoff, then gives up silently
// until something calls Connect again.
type Channel struct {
	endpoint  string // ws(s)://host/ws
	sessionID string

	mu             sync.Mutex
	status         Status
	conn           *websocket.Conn
	listenersSetup bool
	done           chan struct{}
	token          string
	userID         string
	rooms          map[string]struct{}
	attempt        uint64 // bumped by Connect and Disconnect; stamps each dial

	writeMu sync.Mutex // gorilla permits one concurrent writer

	// Typed event surface, multicast, replay-none.
	NewComments        *Stream[*model.Comment]
	CommentLikes       *Stream[CommentLikedEvent]
	CommentUpdates     *Stream[*model.Comment]
	CommentDeletes     *Stream[CommentDeletedEvent]
	ArticleLikes       *Stream[ArticleLikedEvent]
	ArticleViews       *Stream[ArticleViewEvent]
	Typing             *Stream[TypingEvent]
	Notifications      *Stream[*model.Notification]
	NotificationCounts *Stream[int]
	NotificationReads  *Stream[NotificationReadEvent]
}

// NewChannel creates a channel for the given websocket endpoint
// (e.g. ws://host/ws).
func NewChannel(endpoint string) *Channel {
	return &Channel{
		endpoint:           endpoint,
		sessionID:          uuid.NewString(),
		rooms:              make(map[string]struct{}),
		NewComments:        NewStream[*model.Comment](),
		CommentLikes:       NewStream[CommentLikedEvent](),
		CommentUpdates:     NewStream[*model.Comment](),
		CommentDeletes:     NewStream[CommentDeletedEvent](),
		ArticleLikes:       NewStream[ArticleLikedEvent](),
		ArticleViews:       NewStream[ArticleViewEvent](),
		Typing:             NewStream[TypingEvent](),
		Notifications:      NewStream[*model.Notification](),
		NotificationCounts: NewStream[int](),
		NotificationReads:  NewStream[NotificationReadEvent](),
	}
}

// Status returns the current connection state.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Connect opens the live connection authenticated with token. userID
// is the personal notification room owner. No-op when already
// connected or a connection attempt is in flight.
func (c *Channel) Connect(token, userID string) error {
	c.mu.Lock()
	if c.status == Connected || c.status == Connecting {
		c.mu.Unlock()
		return nil
	}
	// A stale socket from an earlier attempt gets torn down before a
	// new dial.
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.status = Connecting
	c.token = token
	c.userID = userID
	c.attempt++
	attempt := c.attempt
	c.mu.Unlock()

	conn, err := c.dial(token)
	if err != nil {
		c.mu.Lock()
		if c.attempt == attempt && c.status == Connecting {
			c.status = Disconnected
		}
		c.mu.Unlock()
		logger.Warn("realtime connect failed", logger.F("error", err))
		return err
	}

	c.mu.Lock()
	if c.attempt != attempt || c.status != Connecting {
		// Disconnect (or a newer Connect) landed while the dial was
		// in flight; this attempt lost and its socket belongs to
		// nobody.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.status = Connected
	done := make(chan struct{})
	c.done = done
	startPump := !c.listenersSetup
	if startPump {
		c.listenersSetup = true
	}
	c.mu.Unlock()

	if startPump {
		go c.readPump(conn, done)
	}

	c.afterConnect()
	logger.Info("realtime connected")
	return nil
}

// dial attempts the websocket handshake with bounded, capped backoff.
func (c *Channel) dial(token string) (*websocket.Conn, error) {
	u := c.endpoint + "?" + url.Values{
		"token":     {token},
		"sessionId": {c.sessionID},
	}.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	var conn *websocket.Conn
	operation := func() error {
		ws, resp, err := dialer.Dial(u, header)
		if err != nil {
			if resp != nil {
				resp.Body.Close()
			}
			return err
		}
		conn = ws
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = maxBackoffInterval
	if err := backoff.Retry(operation, backoff.WithMaxRetries(policy, maxConnectRetries)); err != nil {
		return nil, err
	}
	return conn, nil
}

// afterConnect runs the connection side effects: join the personal
// notification room, announce readiness, request the current unread
// count, and rejoin any article rooms from before a reconnect.
func (c *Channel) afterConnect() {
	c.mu.Lock()
	userID := c.userID
	rooms := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		rooms = append(rooms, room)
	}
	c.mu.Unlock()

	if userID != "" {
		c.emit(EventJoinUserRoom, map[string]string{"userId": userID})
	}
	c.emit(EventSocketReady, map[string]string{"sessionId": c.sessionID})
	c.emit(EventNotificationGetCount, nil)

	for _, room := range rooms {
		c.emit(EventJoinArticle, map[string]string{"articleId": room})
	}
}

// Disconnect tells the server we are going away, drops the listener
// set, and closes the transport. Always safe to call.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	done := c.done
	c.conn = nil
	c.done = nil
	c.status = Disconnected
	c.listenersSetup = false
	c.attempt++ // invalidates any dial still in flight
	c.mu.Unlock()

	if done != nil {
		close(done)
	}
	if conn == nil {
		return
	}

	// Best-effort goodbye; the close frame follows either way.
	c.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	conn.WriteJSON(outEnvelope{Event: EventUserDisconnect})
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	conn.Close()
	logger.Info("realtime disconnected")
}

// JoinArticle subscribes to an article's comment and typing events.
// No-op when not connected.
func (c *Channel) JoinArticle(articleID string) {
	c.mu.Lock()
	c.rooms[articleID] = struct{}{}
	c.mu.Unlock()
	c.emit(EventJoinArticle, map[string]string{"articleId": articleID})
}

// LeaveArticle unsubscribes from an article room.
func (c *Channel) LeaveArticle(articleID string) {
	c.mu.Lock()
	delete(c.rooms, articleID)
	c.mu.Unlock()
	c.emit(EventLeaveArticle, map[string]string{"articleId": articleID})
}

// SendTyping reports the local user's typing state for an article.
func (c *Channel) SendTyping(articleID string, isTyping bool) {
	c.emit(EventTyping, map[string]any{"articleId": articleID, "isTyping": isTyping})
}

// IncrementArticleView asks the server to count one view.
func (c *Channel) IncrementArticleView(articleID string) {
	c.emit(EventIncrementArticleView, map[string]string{"articleId": articleID})
}

// MarkNotificationRead reports a read transition over the channel.
func (c *Channel) MarkNotificationRead(notificationID string) {
	c.emit(EventNotificationMarkRead, map[string]string{"notificationId": notificationID})
}

// RequestNotificationCount asks for a fresh unread counter.
func (c *Channel) RequestNotificationCount() {
	c.emit(EventNotificationGetCount, nil)
}

// emit sends one client→server event. Silently a no-op when not
// connected; room joins and the like are replayed by afterConnect.
func (c *Channel) emit(event string, data any) {
	c.mu.Lock()
	conn := c.conn
	status := c.status
	c.mu.Unlock()

	if status != Connected || conn == nil {
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(outEnvelope{Event: event, Data: data}); err != nil {
		logger.Debug("realtime emit failed", logger.F("event", event), logger.F("error", err))
	}
}

// readPump consumes frames until the connection drops. An error with
// done still open means an unexpected drop, which triggers the
// reconnect path; done closed means Disconnect was called.
func (c *Channel) readPump(conn *websocket.Conn, done <-chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
				return
			default:
			}
			c.handleDrop(conn)
			return
		}
		c.dispatch(data)
	}
}

// handleDrop resets state after an unexpected disconnect and attempts
// one bounded reconnect cycle. If it fails, the channel stays down
// until a later Connect call.
func (c *Channel) handleDrop(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		// A newer connection replaced this one; nothing to do.
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.done = nil
	c.status = Disconnected
	c.listenersSetup = false
	token := c.token
	userID := c.userID
	c.mu.Unlock()

	conn.Close()
	logger.Warn("realtime connection lost, reconnecting")

	if err := c.Connect(token, userID); err != nil {
		logger.Warn("realtime reconnect gave up", logger.F("error", err))
	}
}

// dispatch decodes one server frame and publishes it on the matching
// stream. Malformed or partially shaped frames are dropped: the next
// REST snapshot corrects any drift.
func (c *Channel) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
		logger.Debug("dropping malformed frame")
		return
	}

	switch env.Event {
	case EventNewComment:
		var comment model.Comment
		if json.Unmarshal(env.Data, &comment) != nil || comment.ID == "" {
			break
		}
		c.NewComments.Publish(&comment)

	case EventCommentLiked:
		var ev CommentLikedEvent
		if json.Unmarshal(env.Data, &ev) != nil || ev.CommentID == "" {
			break
		}
		c.CommentLikes.Publish(ev)

	case EventCommentUpdated:
		var comment model.Comment
		if json.Unmarshal(env.Data, &comment) != nil || comment.ID == "" {
			break
		}
		c.CommentUpdates.Publish(&comment)

	case EventCommentDeleted:
		var ev CommentDeletedEvent
		if json.Unmarshal(env.Data, &ev) != nil || ev.CommentID == "" {
			break
		}
		c.CommentDeletes.Publish(ev)

	case EventArticleLiked:
		var ev ArticleLikedEvent
		if json.Unmarshal(env.Data, &ev) != nil || ev.ArticleID == "" {
			break
		}
		c.ArticleLikes.Publish(ev)

	case EventArticleViewUpdated:
		var ev ArticleViewEvent
		if json.Unmarshal(env.Data, &ev) != nil || ev.ArticleID == "" {
			break
		}
		c.ArticleViews.Publish(ev)

	case EventUserTyping:
		var ev TypingEvent
		if json.Unmarshal(env.Data, &ev) != nil || ev.ArticleID == "" {
			break
		}
		c.Typing.Publish(ev)

	case EventNewNotification, EventNotification:
		var n model.Notification
		if json.Unmarshal(env.Data, &n) != nil || n.ID == "" {
			break
		}
		c.Notifications.Publish(&n)

	case EventNotificationCount:
		var ev notificationCountEvent
		if json.Unmarshal(env.Data, &ev) != nil {
			break
		}
		c.NotificationCounts.Publish(ev.Count)

	case EventNotificationRead:
		var ev NotificationReadEvent
		if json.Unmarshal(env.Data, &ev) != nil || ev.NotificationID == "" {
			break
		}
		c.NotificationReads.Publish(ev)

	default:
		logger.Debug("ignoring unknown event", logger.F("event", env.Event))
	}
}
