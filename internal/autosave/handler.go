package autosave

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/kinfolk/kinfolk/internal/metrics"
	"github.com/kinfolk/kinfolk/internal/tree"
	"github.com/kinfolk/kinfolk/internal/typeid"
)

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// DocumentSaver is the part of the tree service a session needs.
type DocumentSaver interface {
	Authorize(ctx context.Context, treeID, userID string) (*tree.Tree, error)
	SaveDocument(ctx context.Context, treeID, userID string, data []byte, source string) (*tree.Revision, error)
	MaxDocumentBytes() int64
}

// Handler upgrades /ws/trees/{treeId} requests into autosave sessions. The
// token travels in the query string since browsers cannot set headers on a
// websocket handshake.
type Handler struct {
	tokens  TokenValidator
	trees   DocumentSaver
	origins []string
}

func NewHandler(tokens TokenValidator, trees DocumentSaver, origins []string) *Handler {
	return &Handler{tokens: tokens, trees: trees, origins: origins}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	treeID := mux.Vars(r)["treeId"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	userID, err := h.tokens.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := h.trees.Authorize(r.Context(), treeID, userID); err != nil {
		switch {
		case errors.Is(err, tree.ErrNotFound):
			http.Error(w, "tree not found", http.StatusNotFound)
		case errors.Is(err, tree.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			slog.Error("autosave authorize", "error", err, "tree", treeID)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	opts := &websocket.AcceptOptions{OriginPatterns: h.origins}
	for _, o := range h.origins {
		if o == "*" {
			opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
			break
		}
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	session := newSession(conn, h.trees, typeid.NewSessionID(), userID, treeID)
	metrics.AutosaveSessions.Inc()
	defer metrics.AutosaveSessions.Dec()
	slog.Info("autosave session opened", "session", session.ID, "tree", treeID, "user", userID)

	session.Send(&Message{Type: TypeWelcome, SessionID: session.ID})

	readLimit := int64(envelopeSlack)
	if limit := h.trees.MaxDocumentBytes(); limit > 0 {
		readLimit += limit
	} else {
		readLimit = -1
	}

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		session.WritePump(ctx)
		close(done)
	}()
	session.ReadPump(ctx, readLimit)
	<-done
	slog.Info("autosave session closed", "session", session.ID, "tree", treeID)
}
