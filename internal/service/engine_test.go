package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/voyagen/xtreamgate/internal/cache"
	"github.com/voyagen/xtreamgate/internal/config"
	"github.com/voyagen/xtreamgate/internal/models"
	"github.com/voyagen/xtreamgate/internal/store"
	"github.com/voyagen/xtreamgate/internal/xtream"
)

// fakeUpstream serves canned catalogs and records every call.
type fakeUpstream struct {
	mu      sync.Mutex
	calls   []string
	targets []xtream.Target

	live       []models.LiveStream
	vod        []models.VodStream
	series     []models.SeriesStream
	categories map[models.ContentType][]models.Category
	guide      []byte
	playlist   []byte
	err        error
}

func (f *fakeUpstream) record(call string, t xtream.Target) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	f.targets = append(f.targets, t)
	return f.err
}

func (f *fakeUpstream) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeUpstream) AccountInfo(_ context.Context, t xtream.Target) (models.AccountInfo, error) {
	if err := f.record("account_info", t); err != nil {
		return models.AccountInfo{}, err
	}
	return models.AccountInfo{UserInfo: models.UserInfo{Username: t.Username}}, nil
}

func byCategory[T models.Stream](in []T, categoryID string) []T {
	if categoryID == "" {
		return append([]T(nil), in...)
	}
	var out []T
	for _, s := range in {
		if s.Category() == categoryID {
			out = append(out, s)
		}
	}
	return out
}

func (f *fakeUpstream) LiveStreams(_ context.Context, t xtream.Target, categoryID string) ([]models.LiveStream, error) {
	if err := f.record("live_streams", t); err != nil {
		return nil, err
	}
	return byCategory(f.live, categoryID), nil
}

func (f *fakeUpstream) VodStreams(_ context.Context, t xtream.Target, categoryID string) ([]models.VodStream, error) {
	if err := f.record("vod_streams", t); err != nil {
		return nil, err
	}
	return byCategory(f.vod, categoryID), nil
}

func (f *fakeUpstream) SeriesStreams(_ context.Context, t xtream.Target, categoryID string) ([]models.SeriesStream, error) {
	if err := f.record("series", t); err != nil {
		return nil, err
	}
	return byCategory(f.series, categoryID), nil
}

func (f *fakeUpstream) Categories(_ context.Context, t xtream.Target, ct models.ContentType) ([]models.Category, error) {
	if err := f.record("categories:"+ct.String(), t); err != nil {
		return nil, err
	}
	return append([]models.Category(nil), f.categories[ct]...), nil
}

func (f *fakeUpstream) FullEpg(_ context.Context, t xtream.Target, streamID string) (models.EpgListings, error) {
	return models.EpgListings{}, f.record("full_epg", t)
}

func (f *fakeUpstream) ShortEpg(_ context.Context, t xtream.Target, streamID string) (models.EpgListings, error) {
	return models.EpgListings{}, f.record("short_epg", t)
}

func (f *fakeUpstream) VodInfo(_ context.Context, t xtream.Target, vodID string) (json.RawMessage, error) {
	return json.RawMessage(`{"info":{}}`), f.record("vod_info", t)
}

func (f *fakeUpstream) SeriesInfo(_ context.Context, t xtream.Target, seriesID string) (json.RawMessage, error) {
	return json.RawMessage(`{"episodes":{}}`), f.record("series_info", t)
}

func (f *fakeUpstream) XMLGuide(_ context.Context, t xtream.Target) ([]byte, error) {
	if err := f.record("guide", t); err != nil {
		return nil, err
	}
	return f.guide, nil
}

func (f *fakeUpstream) Playlist(_ context.Context, t xtream.Target, output, typ string) ([]byte, error) {
	if err := f.record("playlist:"+output+":"+typ, t); err != nil {
		return nil, err
	}
	return f.playlist, nil
}

type fixture struct {
	engine *Engine
	up     *fakeUpstream
	store  *store.Memory
	bulk   *cache.Bulk
}

func newFixture(t *testing.T, acc models.Account) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	bulk, err := cache.NewBulk(cache.BulkOptions{Dir: cfg.DataDir, GuideTTL: cfg.GuideTTL, PlaylistTTL: cfg.PlaylistTTL})
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemory()
	if err := st.CreateAccount(context.Background(), &acc); err != nil {
		t.Fatal(err)
	}
	up := &fakeUpstream{categories: map[models.ContentType][]models.Category{}}
	e := New(cfg, Deps{Store: st, Upstream: up, Bulk: bulk, Responses: cache.NewMemory()})
	return &fixture{engine: e, up: up, store: st, bulk: bulk}
}

func live(id int64, name, category string) models.LiveStream {
	return models.LiveStream{StreamID: models.FlexInt(id), Name: name, CategoryID: models.FlexString(category)}
}

func cat(id, name string) models.Category {
	return models.Category{ID: models.FlexString(id), Name: name}
}

var creds = Credentials{Username: "u", Password: "p"}

func names(streams []models.LiveStream) []string {
	out := make([]string, len(streams))
	for i, s := range streams {
		out[i] = s.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCredentialPrecedence(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://provider.example/", Username: "u1", Password: "p1"})
	_, err := f.engine.PlayerAPI(context.Background(), PlayerRequest{
		AccountID:   "X",
		Action:      ActionAccountInfo,
		Credentials: Credentials{Username: "u2", Password: "p2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := f.up.targets[0]
	if got.Username != "u1" || got.Password != "p1" || got.Host != "http://provider.example" {
		t.Errorf("upstream target = %+v", got)
	}
}

func TestMissingCredentialsFailBeforeUpstream(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h", Username: "only-user"})
	_, err := f.engine.PlayerAPI(context.Background(), PlayerRequest{AccountID: "x", Action: ActionLiveStreams})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(f.up.calls) != 0 {
		t.Errorf("upstream called: %v", f.up.calls)
	}

	_, err = f.engine.PlayerAPI(context.Background(), PlayerRequest{AccountID: "x", Credentials: Credentials{Password: "p"}})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("half a fixed pair must not combine with caller input, err = %v", err)
	}
}

func TestPartialFixedCredentialsUseCallerPair(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h", Username: "u1"})
	_, err := f.engine.PlayerAPI(context.Background(), PlayerRequest{
		AccountID:   "x",
		Action:      ActionAccountInfo,
		Credentials: Credentials{Username: "u2", Password: "p2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := f.up.targets[0]
	if got.Username != "u2" || got.Password != "p2" {
		t.Errorf("upstream target = %+v, want caller pair", got)
	}
}

func TestUnknownAccount(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	_, err := f.engine.PlayerAPI(context.Background(), PlayerRequest{AccountID: "nope", Credentials: creds})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAllowListJoin(t *testing.T) {
	acc := models.Account{ID: "x", Host: "http://h"}
	acc.FilterSettings.SetLists(models.ContentLive, []string{"1", "3"}, []string{"2"})
	f := newFixture(t, acc)
	f.up.categories[models.ContentLive] = []models.Category{cat("1", "News"), cat("2", "Sport"), cat("3", "Kids")}
	f.up.live = []models.LiveStream{live(1, "A", "1"), live(2, "B", "2"), live(3, "C", "3"), live(4, "D", "9")}

	v, err := f.engine.PlayerAPI(context.Background(), PlayerRequest{AccountID: "x", Action: ActionLiveStreams, Credentials: creds})
	if err != nil {
		t.Fatal(err)
	}
	streams := v.([]models.LiveStream)
	for _, s := range streams {
		if s.CategoryID != "1" && s.CategoryID != "3" {
			t.Errorf("stream %s in category %s outside allow-list", s.Name, s.CategoryID)
		}
	}
	if !equalStrings(names(streams), []string{"A", "C"}) {
		t.Errorf("streams = %v", names(streams))
	}
	if f.up.count("categories:live") != 1 || f.up.count("live_streams") != 1 {
		t.Errorf("calls = %v", f.up.calls)
	}
	if f.up.calls[0] != "categories:live" {
		t.Errorf("categories must be resolved before streams: %v", f.up.calls)
	}

	v, err = f.engine.PlayerAPI(context.Background(), PlayerRequest{AccountID: "x", Action: ActionLiveStreams, Credentials: creds, BypassFilters: true})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(v.([]models.LiveStream)); n != 4 {
		t.Errorf("bypass returned %d streams, want 4", n)
	}
}

func TestEmptyAllowListPassesThrough(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	f.up.live = []models.LiveStream{live(1, "A", "1"), live(2, "B", "2")}
	v, err := f.engine.PlayerAPI(context.Background(), PlayerRequest{AccountID: "x", Action: ActionLiveStreams, Credentials: creds})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(v.([]models.LiveStream)); n != 2 {
		t.Errorf("got %d streams", n)
	}
	if f.up.count("categories:live") != 0 {
		t.Error("categories fetched without an allow-list")
	}
}

func TestAdultFilter(t *testing.T) {
	acc := models.Account{ID: "x", Host: "http://h"}
	acc.FilterSettings.AdultFilter = true
	f := newFixture(t, acc)
	f.up.categories[models.ContentVOD] = []models.Category{cat("1", "Movies"), cat("2", "ADULT xxx")}
	f.up.vod = []models.VodStream{
		{Name: "Film", CategoryID: "1"},
		{Name: "Adult Film", CategoryID: "1"},
		{Name: "Marked", CategoryID: "1", IsAdult: models.AdultYes},
		{Name: "Unmarked", CategoryID: "1", IsAdult: models.AdultNo},
	}
	f.up.series = []models.SeriesStream{{Name: "Adult Swim", CategoryID: "1"}}

	ctx := context.Background()
	v, err := f.engine.PlayerAPI(ctx, PlayerRequest{AccountID: "x", Action: ActionVodStreams, Credentials: creds})
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range v.([]models.VodStream) {
		if s.IsAdult.IsSet() || containsAdult(s.Name) {
			t.Errorf("adult stream returned: %+v", s)
		}
	}
	if n := len(v.([]models.VodStream)); n != 2 {
		t.Errorf("got %d vod streams, want 2", n)
	}

	v, err = f.engine.PlayerAPI(ctx, PlayerRequest{AccountID: "x", Action: ActionVodCategories, Credentials: creds})
	if err != nil {
		t.Fatal(err)
	}
	if cats := v.([]models.Category); len(cats) != 1 || cats[0].ID != "1" {
		t.Errorf("categories = %+v", cats)
	}

	v, err = f.engine.PlayerAPI(ctx, PlayerRequest{AccountID: "x", Action: ActionSeries, Credentials: creds})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(v.([]models.SeriesStream)); n != 1 {
		t.Errorf("series streams are not adult-checked, got %d", n)
	}
}

func TestSeriesAllowList(t *testing.T) {
	acc := models.Account{ID: "x", Host: "http://h"}
	acc.FilterSettings.SetLists(models.ContentSeries, []string{"5"}, nil)
	f := newFixture(t, acc)
	f.up.categories[models.ContentSeries] = []models.Category{cat("5", "Drama"), cat("6", "Comedy")}
	f.up.series = []models.SeriesStream{{Name: "S1", CategoryID: "5"}, {Name: "S2", CategoryID: "6"}}
	v, err := f.engine.PlayerAPI(context.Background(), PlayerRequest{AccountID: "x", Action: ActionSeries, Credentials: creds, CategoryID: "6"})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(v.([]models.SeriesStream)); n != 0 {
		t.Errorf("explicit category outside allow-list returned %d streams", n)
	}
}

func TestPaginationSkipsOverlay(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	f.up.live = []models.LiveStream{live(1, "A", "1"), live(2, "B", "1"), live(3, "C", "1")}
	hidden := models.NewChannelMapping("x", "1")
	hidden.IsVisible = false
	f.store.CreateMapping(context.Background(), &hidden)

	req := PlayerRequest{AccountID: "x", Action: ActionLiveStreams, Credentials: creds, Page: 1, PageSize: 2}
	v, err := f.engine.PlayerAPI(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	page := v.(Page[models.LiveStream])
	if !equalStrings(names(page.Streams), []string{"A", "B"}) {
		t.Errorf("page 1 = %v", names(page.Streams))
	}
	want := Pagination{CurrentPage: 1, PageSize: 2, TotalItems: 3, TotalPages: 2}
	if page.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", page.Pagination, want)
	}

	req.Page = 2
	v, _ = f.engine.PlayerAPI(context.Background(), req)
	page = v.(Page[models.LiveStream])
	if !equalStrings(names(page.Streams), []string{"C"}) || page.Pagination.CurrentPage != 2 {
		t.Errorf("page 2 = %+v", page)
	}

	req.Page, req.PageSize = 1, 0
	v, _ = f.engine.PlayerAPI(context.Background(), req)
	if ps := v.(Page[models.LiveStream]).Pagination.PageSize; ps != config.DefaultPageSize {
		t.Errorf("default page size = %d", ps)
	}

	req.Page = 0
	v, _ = f.engine.PlayerAPI(context.Background(), req)
	if got := names(v.([]models.LiveStream)); !equalStrings(got, []string{"B", "C"}) {
		t.Errorf("unpaginated list should apply overlay, got %v", got)
	}
}

func TestPaginate(t *testing.T) {
	items := []string{"A", "B", "C"}
	tests := []struct {
		page, size int
		want       []string
		pages      int
	}{
		{1, 2, []string{"A", "B"}, 2},
		{2, 2, []string{"C"}, 2},
		{3, 2, []string{}, 2},
		{1, 100, []string{"A", "B", "C"}, 1},
		{1 << 40, 2, []string{}, 2},
	}
	for _, tt := range tests {
		p := Paginate(items, tt.page, tt.size)
		if !equalStrings(p.Streams, tt.want) || p.Pagination.TotalPages != tt.pages || p.Pagination.TotalItems != 3 {
			t.Errorf("Paginate(page=%d,size=%d) = %+v", tt.page, tt.size, p)
		}
		if p.Streams == nil {
			t.Error("Streams must encode as []")
		}
	}
	if p := Paginate([]string{}, 1, 10); p.Pagination.TotalPages != 0 {
		t.Errorf("empty list pages = %d", p.Pagination.TotalPages)
	}
}

func TestRefreshCategoriesReconciles(t *testing.T) {
	acc := models.Account{ID: "x", Host: "http://h", Username: "u", Password: "p"}
	acc.FilterSettings.SetLists(models.ContentLive, []string{"1", "2"}, []string{"3"})
	f := newFixture(t, acc)
	f.up.categories[models.ContentLive] = []models.Category{cat("2", "B"), cat("3", "C"), cat("4", "D")}
	ctx := context.Background()

	res, err := f.engine.RefreshCategories(ctx, "x", models.ContentLive, Credentials{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NewCategories) != 1 || res.NewCategories[0].ID != "4" || !res.HasChanges {
		t.Errorf("result = %+v", res)
	}
	got, _ := f.store.GetAccount(ctx, "x")
	allowed, notAllowed := got.FilterSettings.Lists(models.ContentLive)
	if !equalStrings(allowed, []string{"2"}) || !equalStrings(notAllowed, []string{"3"}) {
		t.Errorf("allowed = %v, notAllowed = %v", allowed, notAllowed)
	}

	// New categories stay unclassified, so a second run still reports them.
	res, err = f.engine.RefreshCategories(ctx, "x", models.ContentLive, Credentials{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NewCategories) != 1 {
		t.Errorf("second run = %+v", res)
	}
}

func TestReconcileNoChange(t *testing.T) {
	fresh, a, n, changed := reconcile([]models.Category{cat("1", "A"), cat("2", "B")}, []string{"1"}, []string{"2"})
	if changed || len(fresh) != 0 || !equalStrings(a, []string{"1"}) || !equalStrings(n, []string{"2"}) {
		t.Errorf("reconcile = %v %v %v %v", fresh, a, n, changed)
	}
}

type countingStore struct {
	*store.Memory
	updates int
}

func (c *countingStore) UpdateAccount(ctx context.Context, a *models.Account) (bool, error) {
	c.updates++
	return c.Memory.UpdateAccount(ctx, a)
}

func TestRefreshWithoutChangesDoesNotPersist(t *testing.T) {
	st := &countingStore{Memory: store.NewMemory()}
	acc := models.Account{ID: "x", Host: "http://h", Username: "u", Password: "p"}
	acc.FilterSettings.SetLists(models.ContentVOD, []string{"1"}, nil)
	st.CreateAccount(context.Background(), &acc)
	up := &fakeUpstream{categories: map[models.ContentType][]models.Category{models.ContentVOD: {cat("1", "A")}}}
	e := New(config.Default(), Deps{Store: st, Upstream: up})

	res, err := e.RefreshCategories(context.Background(), "x", models.ContentVOD, Credentials{})
	if err != nil || res.HasChanges {
		t.Fatalf("res = %+v, err = %v", res, err)
	}
	if st.updates != 0 {
		t.Errorf("account persisted %d times", st.updates)
	}
}

func TestInitializeCategories(t *testing.T) {
	acc := models.Account{ID: "x", Host: "http://h", Username: "u", Password: "p"}
	acc.FilterSettings.SetLists(models.ContentLive, nil, []string{"9"})
	f := newFixture(t, acc)
	f.up.categories[models.ContentLive] = []models.Category{cat("2", "B"), cat("1", "A")}
	f.up.categories[models.ContentVOD] = []models.Category{cat("7", "V")}

	fs, err := f.engine.InitializeCategories(context.Background(), "x", Credentials{})
	if err != nil {
		t.Fatal(err)
	}
	if a, n := fs.Lists(models.ContentLive); !equalStrings(a, []string{"1", "2"}) || len(n) != 0 {
		t.Errorf("live = %v / %v", a, n)
	}
	if a, _ := fs.Lists(models.ContentVOD); !equalStrings(a, []string{"7"}) {
		t.Errorf("vod = %v", a)
	}
	if a, _ := fs.Lists(models.ContentSeries); len(a) != 0 {
		t.Errorf("series = %v", a)
	}
}

func TestUpdateCategoriesRejectsOverlap(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	_, err := f.engine.UpdateCategories(context.Background(), "x", models.ContentLive, []string{"1"}, []string{"1"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v", err)
	}
	fs, err := f.engine.UpdateCategories(context.Background(), "x", models.ContentLive, []string{"1", "1", "2"}, []string{"3"})
	if err != nil {
		t.Fatal(err)
	}
	if a, _ := fs.Lists(models.ContentLive); !equalStrings(a, []string{"1", "2"}) {
		t.Errorf("allowed = %v", a)
	}
}

func TestCategoryMaintenanceIsSerialized(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h", Username: "u", Password: "p"})
	unlock, err := f.engine.lock(context.Background(), "X", models.ContentLive)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()
	_, err = f.engine.RefreshCategories(context.Background(), "x", models.ContentLive, Credentials{})
	if !errors.Is(err, cache.ErrLocked) {
		t.Errorf("err = %v, want ErrLocked", err)
	}
}

func TestGuideBulkRoundTrip(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	f.up.guide = []byte(`<tv><channel id="a"/></tv>TRAILING`)
	ctx := context.Background()

	first, err := f.engine.Guide(ctx, "x", creds)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != `<tv><channel id="a"/></tv>` {
		t.Errorf("guide not repaired: %q", first)
	}
	f.up.guide = []byte(`<tv>changed</tv>`)

	second, err := f.engine.Guide(ctx, "x", creds)
	if err != nil || string(second) != string(first) {
		t.Errorf("second read = %q, %v", second, err)
	}
	if n := f.up.count("guide"); n != 1 {
		t.Errorf("guide fetched %d times within window", n)
	}

	f.bulk.SetClock(func() time.Time { return time.Now().Add(25 * time.Hour) })
	third, err := f.engine.Guide(ctx, "x", creds)
	if err != nil || string(third) != `<tv>changed</tv>` {
		t.Errorf("after window = %q, %v", third, err)
	}
	if n := f.up.count("guide"); n != 2 {
		t.Errorf("guide fetched %d times, want 2", n)
	}
}

func TestPlaylistDefaultsAndFailure(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	f.up.playlist = []byte("#EXTM3U\n")
	if _, err := f.engine.Playlist(context.Background(), "x", creds, "", ""); err != nil {
		t.Fatal(err)
	}
	if f.up.count("playlist:ts:m3u_plus") != 1 {
		t.Errorf("calls = %v", f.up.calls)
	}

	g := newFixture(t, models.Account{ID: "y", Host: "http://h"})
	g.up.err = &xtream.UpstreamError{Action: "get_playlist", StatusCode: 502}
	_, err := g.engine.Playlist(context.Background(), "y", creds, "m3u8", "m3u")
	var ue *xtream.UpstreamError
	if !errors.As(err, &ue) {
		t.Errorf("err = %v, want UpstreamError", err)
	}
}

func TestStreamURL(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://provider.example", Username: "u1", Password: "p1"})
	got, err := f.engine.StreamURL(context.Background(), "x", "live", "101.ts", Credentials{Username: "a", Password: "b"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "http://provider.example/live/u1/p1/101.ts" {
		t.Errorf("StreamURL = %q", got)
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction(""); err != nil || a != ActionAccountInfo {
		t.Errorf("empty action = %v, %v", a, err)
	}
	if a, err := ParseAction("get_series_info"); err != nil || a != ActionSeriesInfo {
		t.Errorf("get_series_info = %v, %v", a, err)
	}
	if _, err := ParseAction("get_radio"); !errors.Is(err, ErrNotImplemented) {
		t.Errorf("unknown action err = %v", err)
	}
	if ActionLiveStreams.String() != "get_live_streams" || ActionAccountInfo.String() != "account_info" {
		t.Error("Action.String mismatch")
	}
}

func TestEpgRequiresStreamID(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	_, err := f.engine.PlayerAPI(context.Background(), PlayerRequest{AccountID: "x", Action: ActionShortEpg, Credentials: creds})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	ctx := context.Background()
	m := models.NewChannelMapping("x", "1")
	if err := f.engine.CreateMapping(ctx, "X", &m); err != nil {
		t.Fatal(err)
	}
	f.up.guide = []byte("<tv></tv>")
	if _, err := f.engine.Guide(ctx, "x", creds); err != nil {
		t.Fatal(err)
	}
	if err := f.engine.DeleteAccount(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.GetMapping(ctx, m.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("mapping survived: %v", err)
	}
	if err := f.engine.DeleteAccount(ctx, "x"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestUpdateAccountIDMismatch(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	err := f.engine.UpdateAccount(context.Background(), "x", &models.Account{ID: "y", Host: "http://h"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v", err)
	}
	err = f.engine.UpdateAccount(context.Background(), "z", &models.Account{ID: "z", Host: "http://h"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing account err = %v", err)
	}
}

func TestSeedAccounts(t *testing.T) {
	f := newFixture(t, models.Account{ID: "x", Host: "http://h"})
	err := f.engine.SeedAccounts(context.Background(), []config.SeedAccount{{ID: "X", Host: "http://other"}, {ID: "y", Host: "http://y/"}})
	if err != nil {
		t.Fatal(err)
	}
	x, _ := f.store.GetAccount(context.Background(), "x")
	y, _ := f.store.GetAccount(context.Background(), "y")
	if x.Host != "http://h" || y == nil || y.Host != "http://y" {
		t.Errorf("x = %+v, y = %+v", x, y)
	}
}
