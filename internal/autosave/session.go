package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/coder/websocket"

	"github.com/kinfolk/kinfolk/internal/tree"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	// envelopeSlack is read allowance on top of the document limit.
	envelopeSlack = 64 * 1024
)

// Session is one browser tab autosaving a single tree.
type Session struct {
	conn   *websocket.Conn
	saver  DocumentSaver
	send   chan []byte
	ID     string
	UserID string
	TreeID string
}

func newSession(conn *websocket.Conn, saver DocumentSaver, id, userID, treeID string) *Session {
	return &Session{
		conn:   conn,
		saver:  saver,
		send:   make(chan []byte, 16),
		ID:     id,
		UserID: userID,
		TreeID: treeID,
	}
}

// ReadPump handles incoming saves until the connection closes. Saves are
// processed in arrival order.
func (s *Session) ReadPump(ctx context.Context, readLimit int64) {
	defer close(s.send)

	s.conn.SetReadLimit(readLimit)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return
			}
			slog.Debug("autosave read error", "error", err, "session", s.ID)
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid autosave message", "error", err, "session", s.ID)
			s.Send(&Message{Type: TypeError, Error: "invalid message"})
			continue
		}

		switch msg.Type {
		case TypeSave:
			s.save(ctx, &msg)
		default:
			s.Send(&Message{Type: TypeError, Seq: msg.Seq, Error: "unknown message type"})
		}
	}
}

func (s *Session) save(ctx context.Context, msg *Message) {
	rev, err := s.saver.SaveDocument(ctx, s.TreeID, s.UserID, msg.Payload, "autosave")
	if err != nil {
		reply := &Message{Type: TypeNack, Seq: msg.Seq, Error: nackReason(err)}
		if reply.Error == "internal error" {
			slog.Error("autosave store document", "error", err, "tree", s.TreeID, "session", s.ID)
		}
		s.Send(reply)
		return
	}
	s.Send(&Message{Type: TypeAck, Seq: msg.Seq, RevisionID: rev.ID})
}

func nackReason(err error) string {
	switch {
	case errors.Is(err, tree.ErrInvalidDocument):
		return err.Error()
	case errors.Is(err, tree.ErrDocumentTooLarge):
		return "document too large"
	case errors.Is(err, tree.ErrForbidden):
		return "forbidden"
	case errors.Is(err, tree.ErrNotFound):
		return "tree not found"
	default:
		return "internal error"
	}
}

// WritePump delivers queued replies and keeps the connection alive with
// pings. It returns when ReadPump finishes or ctx is done.
func (s *Session) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-s.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("autosave write error", "error", err, "session", s.ID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues a reply. Replies are dropped when the client stops reading.
func (s *Session) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal autosave message", "error", err)
		return
	}

	select {
	case s.send <- data:
	default:
		slog.Warn("autosave send buffer full, dropping message", "session", s.ID)
	}
}
