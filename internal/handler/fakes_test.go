package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/pricing"
	"github.com/GTDGit/pazar_api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newRouter returns an engine whose requests run as userID.
func newRouter(userID int) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

type fakeAuth struct {
	err      error
	email    string
	password string
}

func (f *fakeAuth) Register(_ context.Context, email, password, _ string) (*models.User, string, error) {
	f.email, f.password = email, password
	if f.err != nil {
		return nil, "", f.err
	}
	return &models.User{ID: 1, Email: email}, "tok", nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*models.User, string, error) {
	f.email, f.password = email, password
	if f.err != nil {
		return nil, "", f.err
	}
	return &models.User{ID: 1, Email: email}, "tok", nil
}

type fakeSettings struct {
	saved *models.UserSettings
}

func (f *fakeSettings) Get(_ context.Context, userID int) (*models.UserSettings, error) {
	if f.saved != nil {
		return f.saved, nil
	}
	return &models.UserSettings{UserID: userID}, nil
}

func (f *fakeSettings) Save(_ context.Context, userID int, st *models.UserSettings) (*models.UserSettings, error) {
	st.UserID = userID
	f.saved = st
	return st, nil
}

type fakeMatch struct {
	compare []pricing.MatchResult
	export  []pricing.CatalogMatchResult
	err     error
	userID  int
}

func (f *fakeMatch) Compare(_ context.Context, userID int) ([]pricing.MatchResult, error) {
	f.userID = userID
	return f.compare, f.err
}

func (f *fakeMatch) Export(_ context.Context, userID int) ([]pricing.CatalogMatchResult, error) {
	f.userID = userID
	return f.export, f.err
}

type fakeTelegram struct {
	progress []service.TelegramProgress
	result   *service.BatchResult
	err      error
	oneErr   error
}

func (f *fakeTelegram) SendBatch(_ context.Context, _ int, _ []int, onProgress func(service.TelegramProgress)) (*service.BatchResult, error) {
	for _, p := range f.progress {
		onProgress(p)
	}
	return f.result, f.err
}

func (f *fakeTelegram) SendOne(context.Context, int, int) error { return f.oneErr }

type fakeGrouped struct {
	filename string
	deleted  int
	err      error
}

func (f *fakeGrouped) Preview(filename string, _ io.Reader) (*service.SheetPreview, error) {
	f.filename = filename
	return &service.SheetPreview{RowCount: 3}, f.err
}

func (f *fakeGrouped) Upload(_ context.Context, _ int, filename string, r io.Reader) (*service.GroupUploadResult, error) {
	f.filename = filename
	data, _ := io.ReadAll(r)
	return &service.GroupUploadResult{TotalRows: strings.Count(string(data), "\n")}, f.err
}

func (f *fakeGrouped) List(context.Context, int) ([]models.GroupedProduct, error) {
	return []models.GroupedProduct{{ID: 1, Name: "Elbise"}}, f.err
}

func (f *fakeGrouped) Delete(_ context.Context, _ int, id int) error {
	f.deleted = id
	return f.err
}

type fakeInstagram struct {
	req    service.PublishRequest
	err    error
	state  models.QueueState
	clears int
}

func (f *fakeInstagram) Enqueue(_ context.Context, _ int, req service.PublishRequest) (string, error) {
	f.req = req
	if f.err != nil {
		return "", f.err
	}
	return "job-1", nil
}

func (f *fakeInstagram) QueueState(int) models.QueueState { return f.state }
func (f *fakeInstagram) ClearResults(int)                { f.clears++ }

func (f *fakeInstagram) SentItems(context.Context, int) ([]int, error) {
	return []int{4, 9}, nil
}
