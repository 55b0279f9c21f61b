package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinfolk/kinfolk/internal/document"
	"github.com/kinfolk/kinfolk/internal/tree"
)

type fakeTokens map[string]string

func (f fakeTokens) ValidateToken(token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", errors.New("bad token")
}

type fixture struct {
	trees  *tree.Service
	treeID string
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	trees := tree.NewService(tree.NewMemoryStore(), tree.Options{RevisionKeep: 5, MaxDocumentBytes: 1 << 20})
	tr, err := trees.Create(context.Background(), "user_a", "Family")
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Handle("/ws/trees/{treeId}", NewHandler(fakeTokens{"tok-a": "user_a", "tok-b": "user_b"}, trees, []string{"*"}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &fixture{trees: trees, treeID: tr.ID, server: srv}
}

func (f *fixture) url(treeID, token string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/trees/" + treeID + "?token=" + token
}

func documentWith(t *testing.T, n int) []byte {
	t.Helper()
	sample := document.SampleTree()
	sample.Persons = sample.Persons[:n]
	data, err := document.Encode(sample)
	require.NoError(t, err)
	return data
}

func readReply(t *testing.T, ctx context.Context, conn *websocket.Conn) Message {
	t.Helper()
	var msg Message
	require.NoError(t, readMessage(ctx, conn, &msg))
	return msg
}

func TestSessionAcksAndNacks(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, f.url(f.treeID, "tok-a"), nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	welcome := readReply(t, ctx, conn)
	assert.Equal(t, TypeWelcome, welcome.Type)
	assert.True(t, strings.HasPrefix(welcome.SessionID, "sess_"))

	save, err := json.Marshal(Message{Type: TypeSave, Seq: 1, Payload: documentWith(t, 3)})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, save))

	ack := readReply(t, ctx, conn)
	assert.Equal(t, TypeAck, ack.Type)
	assert.Equal(t, int64(1), ack.Seq)

	latest, err := f.trees.LatestDocument(ctx, f.treeID, "user_a")
	require.NoError(t, err)
	assert.Equal(t, ack.RevisionID, latest.ID)
	assert.Equal(t, 3, latest.PersonCount)

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"doc.save","seq":2,"payload":{"nope":true}}`)))
	nack := readReply(t, ctx, conn)
	assert.Equal(t, TypeNack, nack.Type)
	assert.Equal(t, int64(2), nack.Seq)
	assert.Contains(t, nack.Error, "invalid document")

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(`{"type":"presence","seq":3}`)))
	unknown := readReply(t, ctx, conn)
	assert.Equal(t, TypeError, unknown.Type)
}

func TestHandshakeRejected(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		treeID string
		token  string
		status int
	}{
		{"missing token", f.treeID, "", http.StatusUnauthorized},
		{"bad token", f.treeID, "nope", http.StatusUnauthorized},
		{"not the owner", f.treeID, "tok-b", http.StatusForbidden},
		{"unknown tree", "tree_missing", "tok-a", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_, resp, err := websocket.Dial(ctx, f.url(tt.treeID, tt.token), nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestSenderSendsNewestAfterBurst(t *testing.T) {
	f := newFixture(t)
	results := make(chan Result, 4)
	s := NewSender(f.url(f.treeID, "tok-a"), SenderOptions{
		Debounce: 20 * time.Millisecond,
		OnResult: func(r Result) { results <- r },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Persist(documentWith(t, 1))
	s.Persist(documentWith(t, 2))
	s.Persist(documentWith(t, 5))

	select {
	case r := <-results:
		require.NoError(t, r.Err)
		assert.Equal(t, int64(1), r.Seq)
		assert.NotEmpty(t, r.RevisionID)
	case <-time.After(5 * time.Second):
		t.Fatal("no autosave result")
	}

	latest, err := f.trees.LatestDocument(context.Background(), f.treeID, "user_a")
	require.NoError(t, err)
	assert.Equal(t, 5, latest.PersonCount)
	revs, err := f.trees.ListRevisions(context.Background(), f.treeID, "user_a")
	require.NoError(t, err)
	assert.Len(t, revs, 2)

	s.Persist([]byte(`{"nope":true}`))
	select {
	case r := <-results:
		assert.Error(t, r.Err)
		assert.Equal(t, int64(2), r.Seq)
	case <-time.After(5 * time.Second):
		t.Fatal("no autosave result")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
