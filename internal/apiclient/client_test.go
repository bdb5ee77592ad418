package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/clinicdesk-go/internal/apierror"
	"github.com/clinicdesk/clinicdesk-go/internal/model"
)

type mutableToken struct {
	mu    sync.Mutex
	token string
}

func (m *mutableToken) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *mutableToken) set(tok string) {
	m.mu.Lock()
	m.token = tok
	m.mu.Unlock()
}

func newTestClient(t *testing.T, h http.Handler, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/", Tokens: tokens, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.ErrorIs(t, err, ErrInvalidBaseURL)
}

func TestDo_ReadsTokenOnEveryCall(t *testing.T) {
	var seen []string
	var mu sync.Mutex
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Write([]byte(`[]`))
	})
	tokens := &mutableToken{token: "first"}
	c := newTestClient(t, h, tokens)

	_, err := c.List(context.Background(), "patients")
	require.NoError(t, err)

	tokens.set("second")
	_, err = c.List(context.Background(), "patients")
	require.NoError(t, err)

	tokens.set("")
	_, err = c.List(context.Background(), "patients")
	require.NoError(t, err)

	assert.Equal(t, []string{"Bearer first", "Bearer second", ""}, seen)
}

func TestLogin_SendsNoBearer(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req model.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ana@clinic.test", req.Email)

		w.Write([]byte(`{"token":"jwt-token"}`))
	})
	c := newTestClient(t, h, &mutableToken{token: "stale"})

	resp, err := c.Login(context.Background(), model.LoginRequest{Email: "ana@clinic.test", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Token)
	assert.Nil(t, resp.User)
}

func TestLogin_MissingToken(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"email":"a@b.c"}}`))
	})
	c := newTestClient(t, h, nil)

	_, err := c.Login(context.Background(), model.LoginRequest{})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestDo_ErrorCarriesStatusAndBody(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"bad date"}`))
	})
	c := newTestClient(t, h, nil)

	_, err := c.Create(context.Background(), "appointments", map[string]any{"appointment_date": "x"})
	require.Error(t, err)

	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, http.MethodPost, apiErr.Method)
	assert.Equal(t, "/appointments", apiErr.Path)
	assert.Equal(t, "bad date", apierror.Classify(err))
}

func TestDo_TransportFailureHasNoBody(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "patients", 1)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.Status)
	assert.False(t, apiErr.HasBody())
	assert.Error(t, apiErr.Err)
}

func TestMutations_UseExpectedVerbsAndPaths(t *testing.T) {
	type call struct{ method, path, body string }
	var calls []call
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, string(b)})
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(`{"id":5}`))
	})
	c := newTestClient(t, h, nil)
	ctx := context.Background()

	rec, err := c.Patch(ctx, "doctors", 5, map[string]any{"phone": "1"})
	require.NoError(t, err)
	id, _ := rec.ID()
	assert.Equal(t, int64(5), id)

	_, err = c.Put(ctx, "doctors", 5, map[string]any{"phone": "1"})
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "doctors", 5))

	assert.Equal(t, []call{
		{http.MethodPatch, "/doctors/5", `{"phone":"1"}`},
		{http.MethodPut, "/doctors/5", `{"phone":"1"}`},
		{http.MethodDelete, "/doctors/5", ""},
	}, calls)
}

func TestDo_ConcurrentRequestsAreNotCoalesced(t *testing.T) {
	var hits int32
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"id":1}`))
	})
	c := newTestClient(t, h, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "patients", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), atomic.LoadInt32(&hits))
}
