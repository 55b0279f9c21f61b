package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Result reports the outcome of one save.
type Result struct {
	Seq        int64
	RevisionID string
	Err        error
}

// SenderOptions tunes a Sender. Zero values take the defaults.
type SenderOptions struct {
	// Debounce is how long the sender waits for edits to settle before
	// sending the newest document.
	Debounce time.Duration
	// Retry is the pause after a failed connection or write.
	Retry    time.Duration
	Timeout  time.Duration
	OnResult func(Result)
	Logger   *slog.Logger
}

func (o SenderOptions) withDefaults() SenderOptions {
	if o.Debounce <= 0 {
		o.Debounce = 750 * time.Millisecond
	}
	if o.Retry <= 0 {
		o.Retry = 3 * time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Sender ships engine documents to the autosave endpoint. Persist never
// blocks; only the newest document is kept, so a burst of edits produces a
// single save once the burst settles.
type Sender struct {
	url  string
	opts SenderOptions

	mu     sync.Mutex
	latest []byte
	notify chan struct{}

	conn *websocket.Conn
	seq  int64
}

// NewSender returns a sender for a full ws:// or wss:// url, token included.
func NewSender(url string, opts SenderOptions) *Sender {
	return &Sender{
		url:    url,
		opts:   opts.withDefaults(),
		notify: make(chan struct{}, 1),
	}
}

// Persist replaces the pending document.
func (s *Sender) Persist(data []byte) {
	s.mu.Lock()
	s.latest = data
	s.mu.Unlock()
	s.wake()
}

func (s *Sender) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Sender) take() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := s.latest
	s.latest = nil
	return data
}

// putBack restores data as pending unless a newer document arrived.
func (s *Sender) putBack(data []byte) {
	s.mu.Lock()
	if s.latest == nil {
		s.latest = data
	}
	s.mu.Unlock()
}

// Run sends pending documents until ctx is done.
func (s *Sender) Run(ctx context.Context) error {
	defer s.disconnect()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.notify:
		}
		if err := s.settle(ctx); err != nil {
			return err
		}

		data := s.take()
		if data == nil {
			continue
		}
		if err := s.send(ctx, data); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.opts.Logger.Warn("autosave failed", "error", err)
			s.disconnect()
			s.putBack(data)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.opts.Retry):
			}
			s.wake()
		}
	}
}

// settle waits until no new document has arrived for the debounce period.
func (s *Sender) settle(ctx context.Context) error {
	timer := time.NewTimer(s.opts.Debounce)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.notify:
			timer.Reset(s.opts.Debounce)
		case <-timer.C:
			return nil
		}
	}
}

func (s *Sender) connect(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}
	dialCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial autosave: %w", err)
	}
	conn.SetReadLimit(-1)

	var welcome Message
	if err := readMessage(dialCtx, conn, &welcome); err != nil {
		conn.Close(websocket.StatusInternalError, "")
		return err
	}
	if welcome.Type != TypeWelcome {
		conn.Close(websocket.StatusProtocolError, "")
		return fmt.Errorf("autosave: expected welcome, got %q", welcome.Type)
	}
	s.opts.Logger.Debug("autosave connected", "session", welcome.SessionID)
	s.conn = conn
	return nil
}

func (s *Sender) disconnect() {
	if s.conn == nil {
		return
	}
	s.conn.Close(websocket.StatusNormalClosure, "")
	s.conn = nil
}

// send writes one document and waits for its reply. A nack is reported
// through OnResult and is not retried.
func (s *Sender) send(ctx context.Context, data []byte) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	s.seq++
	msg, err := json.Marshal(Message{Type: TypeSave, Seq: s.seq, Payload: data})
	if err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	if err := s.conn.Write(opCtx, websocket.MessageText, msg); err != nil {
		return fmt.Errorf("write autosave: %w", err)
	}

	for {
		var reply Message
		if err := readMessage(opCtx, s.conn, &reply); err != nil {
			return err
		}
		if reply.Seq != s.seq {
			continue
		}
		switch reply.Type {
		case TypeAck:
			s.report(Result{Seq: reply.Seq, RevisionID: reply.RevisionID})
			return nil
		case TypeNack, TypeError:
			s.report(Result{Seq: reply.Seq, Err: errors.New(reply.Error)})
			return nil
		}
	}
}

func (s *Sender) report(r Result) {
	if r.Err != nil {
		s.opts.Logger.Warn("autosave rejected", "seq", r.Seq, "error", r.Err)
	}
	if s.opts.OnResult != nil {
		s.opts.OnResult(r)
	}
}

func readMessage(ctx context.Context, conn *websocket.Conn, msg *Message) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return fmt.Errorf("read autosave: %w", err)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode autosave reply: %w", err)
	}
	return nil
}
