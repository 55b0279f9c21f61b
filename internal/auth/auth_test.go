package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kinfolk/kinfolk/internal/typeid"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	s := NewService(NewMemoryUsers(), "test-secret")
	s.bcryptCost = bcrypt.MinCost
	return s
}

func post(t *testing.T, h http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data)))
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	res, err := s.Register(ctx, " Ana@Example.com ", "correct horse", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", res.User.Email)

	uid, err := s.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, uid)

	_, err = s.Register(ctx, "ana@example.com", "another one", "Ana 2")
	assert.ErrorIs(t, err, ErrEmailTaken)

	login, err := s.Login(ctx, "ANA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = s.Login(ctx, "ana@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateTokenRejects(t *testing.T) {
	s := newTestService(t)
	res, err := s.Register(context.Background(), "a@example.com", "password1", "A")
	require.NoError(t, err)

	other := NewService(NewMemoryUsers(), "other-secret")
	_, err = other.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	s.now = func() time.Time { return time.Now().Add(2 * tokenTTL) }
	_, err = s.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHandlerRegisterValidation(t *testing.T) {
	h := NewHandler(newTestService(t))

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"ok", map[string]string{"email": "b@example.com", "password": "password1", "displayName": "B"}, http.StatusCreated},
		{"duplicate", map[string]string{"email": "b@example.com", "password": "password1", "displayName": "B"}, http.StatusConflict},
		{"short password", map[string]string{"email": "c@example.com", "password": "short", "displayName": "C"}, http.StatusBadRequest},
		{"bad email", map[string]string{"email": "nope", "password": "password1", "displayName": "C"}, http.StatusBadRequest},
		{"missing name", map[string]string{"email": "d@example.com", "password": "password1"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h.Register, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestHandlerLogin(t *testing.T) {
	s := newTestService(t)
	h := NewHandler(s)
	_, err := s.Register(context.Background(), "e@example.com", "password1", "E")
	require.NoError(t, err)

	rec := post(t, h.Login, map[string]string{"email": "e@example.com", "password": "password1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res AuthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Token)

	rec = post(t, h.Login, map[string]string{"email": "e@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, h.Login, map[string]string{"email": "e@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestService(t)
	res, err := s.Register(context.Background(), "f@example.com", "password1", "F")
	require.NoError(t, err)

	treeToken, err := s.issueToken(typeid.NewTreeID())
	require.NoError(t, err)

	h := s.AuthMiddleware(http.HandlerFunc(NewHandler(s).Me))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"tree subject", "Bearer " + treeToken, http.StatusUnauthorized},
		{"valid", "Bearer " + res.Token, http.StatusOK},
		{"lowercase scheme", "bearer " + res.Token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	assert.Empty(t, UserIDFromContext(context.Background()))
	ctx := WithUserID(context.Background(), "user_01h455vb4pex5vsknk084sn02q")
	assert.Equal(t, "user_01h455vb4pex5vsknk084sn02q", UserIDFromContext(ctx))
}
