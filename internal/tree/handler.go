package tree

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/kinfolk/kinfolk/internal/auth"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes registers the tree endpoints on an authenticated router.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/trees", h.List).Methods(http.MethodGet)
	r.HandleFunc("/trees", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/trees/{treeId}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/trees/{treeId}", h.Rename).Methods(http.MethodPatch)
	r.HandleFunc("/trees/{treeId}", h.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/trees/{treeId}/document", h.GetDocument).Methods(http.MethodGet)
	r.HandleFunc("/trees/{treeId}/document", h.PutDocument).Methods(http.MethodPut)
	r.HandleFunc("/trees/{treeId}/revisions", h.ListRevisions).Methods(http.MethodGet)
	r.HandleFunc("/trees/{treeId}/revisions/{revisionId}/document", h.GetRevisionDocument).Methods(http.MethodGet)
}

type nameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func decodeName(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return "", false
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required and at most 200 characters"})
		return "", false
	}
	return req.Name, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeName(w, r)
	if !ok {
		return
	}
	t, err := h.service.Create(r.Context(), auth.UserIDFromContext(r.Context()), name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	trees, err := h.service.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trees)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), mux.Vars(r)["treeId"], auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	name, ok := decodeName(w, r)
	if !ok {
		return
	}
	t, err := h.service.Rename(r.Context(), mux.Vars(r)["treeId"], auth.UserIDFromContext(r.Context()), name)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["treeId"], auth.UserIDFromContext(r.Context())); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	rev, err := h.service.LatestDocument(r.Context(), mux.Vars(r)["treeId"], auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeDocument(w, rev)
}

func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	body := io.Reader(r.Body)
	if limit := h.service.MaxDocumentBytes(); limit > 0 {
		body = io.LimitReader(r.Body, limit+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read body"})
		return
	}

	rev, err := h.service.SaveDocument(r.Context(), mux.Vars(r)["treeId"], auth.UserIDFromContext(r.Context()), data, "http")
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := h.service.ListRevisions(r.Context(), mux.Vars(r)["treeId"], auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revs)
}

func (h *Handler) GetRevisionDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	rev, err := h.service.GetRevision(r.Context(), vars["treeId"], auth.UserIDFromContext(r.Context()), vars["revisionId"])
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeDocument(w, rev)
}

func writeDocument(w http.ResponseWriter, rev *Revision) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Revision-Id", rev.ID)
	w.Header().Set("Content-Length", strconv.Itoa(len(rev.Document)))
	w.WriteHeader(http.StatusOK)
	w.Write(rev.Document)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrDocumentTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "document too large"})
	case errors.Is(err, ErrInvalidDocument):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
