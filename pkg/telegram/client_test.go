package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBot struct {
	mu        sync.Mutex
	calls     []string
	media     []inputMediaPhoto
	files     map[string][]byte
	texts     []string
	floodOnce bool
	badReq    bool
}

func (b *fakeBot) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/img/ok1.jpg", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("one")) })
	mux.HandleFunc("/img/ok2.jpg", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("two")) })
	mux.HandleFunc("/img/missing.jpg", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })

	mux.HandleFunc("/botTOK/sendMediaGroup", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.calls = append(b.calls, "sendMediaGroup")
		if b.floodOnce {
			b.floodOnce = false
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 7","parameters":{"retry_after":7}}`))
			return
		}
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "-100", r.FormValue("chat_id"))
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("media")), &b.media))
		b.files = map[string][]byte{}
		for name, fhs := range r.MultipartForm.File {
			f, err := fhs[0].Open()
			require.NoError(t, err)
			data, _ := io.ReadAll(f)
			_ = f.Close()
			b.files[name] = data
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	})
	mux.HandleFunc("/botTOK/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.calls = append(b.calls, "sendMessage")
		if b.badReq {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		b.texts = append(b.texts, body["text"])
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	})
	return httptest.NewServer(mux)
}

func newTestClient(baseURL string) (*Client, *[]time.Duration) {
	c := NewClient(baseURL, 3*time.Second, time.Second)
	var sleeps []time.Duration
	c.policy.MaxJitter = 0
	c.policy.Sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, &sleeps
}

func TestSendMediaGroupWithCaptionOnFirstPhoto(t *testing.T) {
	bot := &fakeBot{}
	srv := bot.server(t)
	defer srv.Close()
	c, _ := newTestClient(srv.URL)

	res, err := c.Send(t.Context(), "TOK", "-100", Message{
		Text:      "Elbise\nStok Kodu: ABC",
		ImageURLs: []string{srv.URL + "/img/ok1.jpg", srv.URL + "/img/missing.jpg", srv.URL + "/img/ok2.jpg"},
	})

	require.NoError(t, err)
	assert.Equal(t, Result{Photos: 2}, res)
	require.Len(t, bot.media, 2)
	assert.Equal(t, "attach://photo0", bot.media[0].Media)
	assert.Equal(t, "Elbise\nStok Kodu: ABC", bot.media[0].Caption)
	assert.Empty(t, bot.media[1].Caption)
	assert.Equal(t, []byte("one"), bot.files["photo0"])
	assert.Equal(t, []byte("two"), bot.files["photo1"])
}

func TestSendFallsBackToTextWhenNoImageDownloads(t *testing.T) {
	bot := &fakeBot{}
	srv := bot.server(t)
	defer srv.Close()
	c, _ := newTestClient(srv.URL)

	res, err := c.Send(t.Context(), "TOK", "-100", Message{
		Text:      "only text",
		ImageURLs: []string{srv.URL + "/img/missing.jpg"},
	})

	require.NoError(t, err)
	assert.True(t, res.TextOnly)
	assert.Equal(t, []string{"sendMessage"}, bot.calls)
	assert.Equal(t, []string{"only text"}, bot.texts)
}

func TestSendWaitsRetryAfterOnFloodLimit(t *testing.T) {
	bot := &fakeBot{floodOnce: true}
	srv := bot.server(t)
	defer srv.Close()
	c, sleeps := newTestClient(srv.URL)

	_, err := c.Send(t.Context(), "TOK", "-100", Message{Text: "x", ImageURLs: []string{srv.URL + "/img/ok1.jpg"}})

	require.NoError(t, err)
	assert.Equal(t, []string{"sendMediaGroup", "sendMediaGroup"}, bot.calls)
	assert.Equal(t, []time.Duration{7 * time.Second}, *sleeps)
}

func TestBadRequestIsNotRetried(t *testing.T) {
	bot := &fakeBot{badReq: true}
	srv := bot.server(t)
	defer srv.Close()
	c, sleeps := newTestClient(srv.URL)

	err := c.SendMessage(t.Context(), "TOK", "-100", "hi")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.ErrorCode)
	assert.Len(t, bot.calls, 1)
	assert.Empty(t, *sleeps)
}

func TestServerErrorsBackOffExponentially(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":502,"description":"Bad Gateway"}`))
	}))
	defer srv.Close()
	c, sleeps := newTestClient(srv.URL)

	err := c.SendMessage(t.Context(), "TOK", "1", "hi")

	require.Error(t, err)
	assert.Equal(t, 3, hits)
	assert.Equal(t, []time.Duration{3 * time.Second, 6 * time.Second}, *sleeps)
}

func TestAPIErrorRetryAfter(t *testing.T) {
	assert.Equal(t, 30*time.Second, (&APIError{ErrorCode: 429}).RetryAfter())
	assert.Equal(t, 5*time.Second, (&APIError{HTTPStatus: 429, RetryAfterS: 5}).RetryAfter())
	assert.Zero(t, (&APIError{ErrorCode: 400, RetryAfterS: 5}).RetryAfter())
}

func TestSendWithoutContent(t *testing.T) {
	c, _ := newTestClient("http://127.0.0.1:1")
	_, err := c.Send(t.Context(), "TOK", "1", Message{})
	assert.ErrorIs(t, err, ErrNoContent)
}
