package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/pazar_api/internal/cache"
	"github.com/GTDGit/pazar_api/internal/models"
	"github.com/GTDGit/pazar_api/internal/repository"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/ikas"
	"github.com/GTDGit/pazar_api/pkg/instagram"
	"github.com/GTDGit/pazar_api/pkg/storefront"
	"github.com/GTDGit/pazar_api/pkg/telegram"
	"github.com/GTDGit/pazar_api/pkg/trendyol"
)

type fakeUsers struct {
	byEmail map[string]*models.User
	nextID  int
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byEmail: map[string]*models.User{}} }

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return utils.ErrEmailTaken
	}
	f.nextID++
	u.ID = f.nextID
	f.byEmail[u.Email] = u
	return nil
}

type fakeSettings struct {
	rows map[int]*models.UserSettings
}

func newFakeSettings(rows ...models.UserSettings) *fakeSettings {
	f := &fakeSettings{rows: map[int]*models.UserSettings{}}
	for i := range rows {
		f.rows[rows[i].UserID] = &rows[i]
	}
	return f
}

func (f *fakeSettings) Get(_ context.Context, userID int) (*models.UserSettings, error) {
	st, ok := f.rows[userID]
	if !ok {
		return nil, nil
	}
	cp := *st
	return &cp, nil
}

func (f *fakeSettings) Upsert(_ context.Context, s *models.UserSettings) error {
	cp := *s
	f.rows[s.UserID] = &cp
	return nil
}

func (f *fakeSettings) ListRefreshable(context.Context) ([]models.UserSettings, error) {
	var out []models.UserSettings
	for _, st := range f.rows {
		if st.SiteProductsAPIURL != "" || st.HasIkas() {
			out = append(out, *st)
		}
	}
	return out, nil
}

type fakeTrendyol struct {
	rows    []models.TrendyolProduct
	updates []repository.LinkUpdate
}

func (f *fakeTrendyol) ListByUser(context.Context, int) ([]models.TrendyolProduct, error) {
	return f.rows, nil
}

func (f *fakeTrendyol) Replace(_ context.Context, _ int, rows []models.TrendyolProduct) error {
	f.rows = rows
	return nil
}

func (f *fakeTrendyol) UpdateLinks(_ context.Context, _ int, updates []repository.LinkUpdate) (int, int, error) {
	f.updates = updates
	return len(updates), 0, nil
}

type fakeSites struct {
	rows    []models.SiteProduct
	updated map[string]string
}

func (f *fakeSites) ListByUser(context.Context, int) ([]models.SiteProduct, error) { return f.rows, nil }

func (f *fakeSites) Replace(_ context.Context, _ int, rows []models.SiteProduct) error {
	f.rows = rows
	return nil
}

func (f *fakeSites) UpdatePrice(_ context.Context, _ int, key, price string) error {
	if f.updated == nil {
		f.updated = map[string]string{}
	}
	f.updated[key] = price
	return nil
}

type fakeIkasStore struct {
	rows     []models.IkasProduct
	replaced bool
}

func (f *fakeIkasStore) ListByUser(context.Context, int) ([]models.IkasProduct, error) {
	return f.rows, nil
}

func (f *fakeIkasStore) Replace(_ context.Context, _ int, rows []models.IkasProduct) error {
	f.rows, f.replaced = rows, true
	return nil
}

type fakeMatching struct {
	rows []models.MatchingRow
}

func (f *fakeMatching) ListByUser(context.Context, int) ([]models.MatchingRow, error) {
	return f.rows, nil
}

func (f *fakeMatching) Replace(_ context.Context, _ int, rows []models.MatchingRow) error {
	f.rows = rows
	return nil
}

func (f *fakeMatching) DeleteAll(context.Context, int) (int64, error) {
	n := int64(len(f.rows))
	f.rows = nil
	return n, nil
}

type fakeGrouped struct {
	mu       sync.Mutex
	rows     map[int]models.GroupedProduct
	upserted []models.GroupedProduct
	deleted  []int
}

func newFakeGrouped(rows ...models.GroupedProduct) *fakeGrouped {
	f := &fakeGrouped{rows: map[int]models.GroupedProduct{}}
	for _, r := range rows {
		f.rows[r.ID] = r
	}
	return f
}

func (f *fakeGrouped) ListByUser(context.Context, int) ([]models.GroupedProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.GroupedProduct, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeGrouped) GetByID(_ context.Context, _ int, id int) (*models.GroupedProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &r, nil
}

func (f *fakeGrouped) GetByIDs(_ context.Context, _ int, ids []int) ([]models.GroupedProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GroupedProduct
	for _, id := range ids {
		if r, ok := f.rows[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeGrouped) UpsertMany(_ context.Context, _ int, products []models.GroupedProduct) error {
	f.upserted = append(f.upserted, products...)
	return nil
}

func (f *fakeGrouped) Delete(_ context.Context, _ int, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return utils.ErrNotFound
	}
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeLogs struct {
	mu        sync.Mutex
	telegram  []models.TelegramLog
	instagram []models.InstagramPublishLog
	sent      []models.InstagramSentItem
}

func (f *fakeLogs) CreateTelegramLog(_ context.Context, l *models.TelegramLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = len(f.telegram) + 1
	l.SentAt = time.Now()
	f.telegram = append(f.telegram, *l)
	return nil
}

func (f *fakeLogs) ListTelegramLogs(context.Context, int, int) ([]models.TelegramLog, error) {
	return f.telegram, nil
}

func (f *fakeLogs) CreateInstagramLog(_ context.Context, l *models.InstagramPublishLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l.ID = len(f.instagram) + 1
	l.SentAt = time.Now()
	f.instagram = append(f.instagram, *l)
	return nil
}

func (f *fakeLogs) ListInstagramLogs(context.Context, int, int) ([]models.InstagramPublishLog, error) {
	return f.instagram, nil
}

func (f *fakeLogs) MarkInstagramSent(_ context.Context, userID, productID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, models.InstagramSentItem{UserID: userID, ProductID: productID, SentAt: time.Now()})
	return nil
}

func (f *fakeLogs) ListInstagramSent(context.Context, int) ([]models.InstagramSentItem, error) {
	return f.sent, nil
}

type fakeTokens struct {
	tokens      map[string]string
	invalidated int
	summaries   map[int]*cache.RefreshSummary
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]string{}, summaries: map[int]*cache.RefreshSummary{}}
}

func (f *fakeTokens) GetIkasToken(_ context.Context, _ int, store string) (string, bool, error) {
	t, ok := f.tokens[store]
	return t, ok, nil
}

func (f *fakeTokens) SetIkasToken(_ context.Context, _ int, store, token string, _ time.Duration) error {
	f.tokens[store] = token
	return nil
}

func (f *fakeTokens) InvalidateIkasToken(_ context.Context, _ int, store string) error {
	delete(f.tokens, store)
	f.invalidated++
	return nil
}

func (f *fakeTokens) SetRefreshSummary(_ context.Context, userID int, s *cache.RefreshSummary) error {
	f.summaries[userID] = s
	return nil
}

func (f *fakeTokens) GetRefreshSummary(_ context.Context, userID int) (*cache.RefreshSummary, error) {
	s, ok := f.summaries[userID]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return s, nil
}

type fakeScraper struct {
	listings []trendyol.Listing
	err      error
}

func (f *fakeScraper) Scrape(context.Context, string) ([]trendyol.Listing, error) {
	return f.listings, f.err
}

type fakeStorefront struct {
	products  []storefront.Product
	failKeys  map[string]bool
	updateURL string
	pushed    map[string]decimal.Decimal
}

func (f *fakeStorefront) FetchProducts(context.Context, string) ([]storefront.Product, error) {
	return f.products, nil
}

func (f *fakeStorefront) UpdatePrice(_ context.Context, updateURL, key string, price decimal.Decimal) (string, error) {
	f.updateURL = updateURL
	if f.failKeys[key] {
		return "", &storefront.UpdateError{Message: "ürün bulunamadı"}
	}
	if f.pushed == nil {
		f.pushed = map[string]decimal.Decimal{}
	}
	f.pushed[key] = price
	return "ok", nil
}

type fakeIkasAPI struct {
	tokenCalls int
	variants   []ikas.Variant
	pushed     []ikas.PriceInput
	rejectTok  string
}

func (f *fakeIkasAPI) FetchToken(context.Context, ikas.Credentials) (*ikas.Token, error) {
	f.tokenCalls++
	return &ikas.Token{AccessToken: "fresh", ExpiresIn: time.Hour}, nil
}

func (f *fakeIkasAPI) ListVariants(_ context.Context, token string) ([]ikas.Variant, error) {
	if token == f.rejectTok {
		return nil, ikas.ErrUnauthorized
	}
	return f.variants, nil
}

func (f *fakeIkasAPI) SaveVariantPrices(_ context.Context, token string, items []ikas.PriceInput) (*ikas.PushResult, error) {
	if token == f.rejectTok {
		return nil, ikas.ErrUnauthorized
	}
	f.pushed = append(f.pushed, items...)
	return &ikas.PushResult{Updated: len(items), Errors: []string{}}, nil
}

type fakeTelegram struct {
	mu   sync.Mutex
	sent []telegram.Message
	fail map[string]bool
}

func (f *fakeTelegram) Send(_ context.Context, _, _ string, msg telegram.Message) (telegram.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	for prefix := range f.fail {
		if len(msg.Text) >= len(prefix) && msg.Text[:len(prefix)] == prefix {
			return telegram.Result{}, &telegram.APIError{HTTPStatus: 400, ErrorCode: 400, Description: "Bad Request"}
		}
	}
	return telegram.Result{Photos: len(msg.ImageURLs)}, nil
}

type fakePublisher struct {
	posts []instagram.Post
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, _ instagram.Credentials, post instagram.Post, onProgress func(instagram.Progress)) (string, error) {
	f.posts = append(f.posts, post)
	onProgress(instagram.Progress{Step: instagram.StepCreated})
	if f.err != nil {
		onProgress(instagram.Progress{Step: instagram.StepFailed})
		return "", f.err
	}
	onProgress(instagram.Progress{Step: instagram.StepPublished})
	return "media-1", nil
}

type fakeQueue struct {
	jobs []*models.PublishJob
}

func (f *fakeQueue) Enqueue(job *models.PublishJob) string {
	f.jobs = append(f.jobs, job)
	return job.ID
}

func (f *fakeQueue) State(int) models.QueueState { return models.QueueState{} }

func (f *fakeQueue) ClearResults(int) {}
