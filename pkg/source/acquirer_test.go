package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"patternweb/playground/pkg/config"
	"patternweb/playground/pkg/engine"
	"patternweb/playground/pkg/telemetry/metrics"
)

type fakeLoader struct {
	mu      sync.Mutex
	calls   []string
	data    []byte
	sources []string
	loadErr error
	execErr error
}

func (l *fakeLoader) LoadBinaryData(_ context.Context, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, "load")
	if l.loadErr != nil {
		return l.loadErr
	}
	l.data = append([]byte(nil), data...)
	return nil
}

func (l *fakeLoader) Execute(_ context.Context, source string) (engine.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, "execute")
	l.sources = append(l.sources, source)
	if l.execErr != nil {
		return engine.Result{}, l.execErr
	}
	return engine.Result{Console: "[INFO]  ran\n\x01"}, nil
}

type fakeGist struct {
	file  GistFile
	err   error
	calls int
}

func (g *fakeGist) Fetch(context.Context, string) (GistFile, error) {
	g.calls++
	return g.file, g.err
}

func (g *fakeGist) Transport() string { return "fake" }

func TestStore_DefaultsToNone(t *testing.T) {
	s := NewStore()
	if cur := s.Current(); cur.Origin != OriginNone || cur.Content != "" {
		t.Errorf("unexpected initial source %+v", cur)
	}
	s.Set("a", OriginEditor)
	s.Set("b", OriginGist)
	if cur := s.Current(); cur.Content != "b" || cur.Origin != OriginGist {
		t.Errorf("Set should replace the source, got %+v", cur)
	}
}

func TestFromLocalFile_LoadsThenExecutesCurrentSource(t *testing.T) {
	loader := &fakeLoader{}
	a := NewAcquirer(NewStore(), loader, nil, Options{})
	a.SetFromEditor("u8 x @ 0;")

	src, res, err := a.FromLocalFile(context.Background(), "dump.bin", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("FromLocalFile failed: %v", err)
	}
	if src.Content != "u8 x @ 0;" || src.Origin != OriginEditor {
		t.Errorf("returned source %+v, want the editor source", src)
	}
	if res.Console == "" {
		t.Error("expected execution result")
	}
	if len(loader.calls) != 2 || loader.calls[0] != "load" || loader.calls[1] != "execute" {
		t.Errorf("expected load then execute, got %v", loader.calls)
	}
	if loader.sources[0] != "u8 x @ 0;" || len(loader.data) != 3 {
		t.Errorf("unexpected loader state %+v", loader)
	}
}

func TestFromLocalFile_NoSourceStillExecutes(t *testing.T) {
	loader := &fakeLoader{}
	a := NewAcquirer(NewStore(), loader, nil, Options{})

	if _, _, err := a.FromLocalFile(context.Background(), "dump.bin", nil); err != nil {
		t.Fatal(err)
	}
	if len(loader.sources) != 1 || loader.sources[0] != "" {
		t.Errorf("expected empty program to run, got %v", loader.sources)
	}
}

func TestFromLocalFile_LoadFailureSkipsExecute(t *testing.T) {
	loader := &fakeLoader{loadErr: engine.ErrEngineNotReady}
	a := NewAcquirer(NewStore(), loader, nil, Options{})

	_, _, err := a.FromLocalFile(context.Background(), "dump.bin", []byte{1})
	if !errors.Is(err, engine.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if len(loader.calls) != 1 {
		t.Errorf("execute must not run after a failed load, calls=%v", loader.calls)
	}
}

func TestFromGist(t *testing.T) {
	store := NewStore()
	store.Set("previous", OriginEditor)

	failing := &fakeGist{err: ErrNoFiles}
	a := NewAcquirer(store, &fakeLoader{}, failing, Options{})
	if a.FromGist(context.Background(), "abc") {
		t.Error("failed fetch must report false")
	}
	if cur := store.Current(); cur.Content != "previous" || cur.Origin != OriginEditor {
		t.Errorf("failed fetch must leave source untouched, got %+v", cur)
	}

	ok := &fakeGist{file: GistFile{Name: "a.pat", Content: "u8 a @ 0;"}}
	a = NewAcquirer(store, &fakeLoader{}, ok, Options{})
	if !a.FromGist(context.Background(), "abc") {
		t.Fatal("expected success")
	}
	if cur := store.Current(); cur.Content != "u8 a @ 0;" || cur.Origin != OriginGist {
		t.Errorf("unexpected source %+v", cur)
	}
}

func TestFromGist_MockedAPI(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gists/withfiles":
			_, _ = w.Write([]byte(`{"files": {"a.pat": {"raw_url": "` + srv.URL + `/raw"}}}`))
		case "/gists/nofiles":
			_, _ = w.Write([]byte(`{"description": "x"}`))
		case "/raw":
			_, _ = w.Write([]byte("fetched body"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := NewStore()
	a := NewAcquirer(store, &fakeLoader{}, NewAPIGistFetcher(srv.URL, "", srv.Client()), Options{})

	if a.FromGist(context.Background(), "nofiles") {
		t.Error("gist without files must not succeed")
	}
	if cur := store.Current(); cur.Origin != OriginNone {
		t.Errorf("source must stay unset, got %+v", cur)
	}

	if !a.FromGist(context.Background(), "withfiles") {
		t.Fatal("expected success")
	}
	if cur := store.Current(); cur.Content != "fetched body" {
		t.Errorf("unexpected content %q", cur.Content)
	}
}

func TestFromURLParam(t *testing.T) {
	store := NewStore()
	a := NewAcquirer(store, &fakeLoader{}, nil, Options{})

	if !a.FromURLParam(EncodeURLParam("u8 x @ 0;")) {
		t.Fatal("expected success")
	}
	if cur := store.Current(); cur.Content != "u8 x @ 0;" || cur.Origin != OriginURLParam {
		t.Errorf("unexpected source %+v", cur)
	}

	if a.FromURLParam("not*base64") {
		t.Error("malformed value must be a no-op")
	}
	if cur := store.Current(); cur.Content != "u8 x @ 0;" {
		t.Errorf("malformed value must keep the prior source, got %+v", cur)
	}
}

func TestResolveDeepLink_Priority(t *testing.T) {
	code := EncodeURLParam("from code")

	tests := []struct {
		name         string
		query        url.Values
		gistErr      error
		wantStrategy Strategy
		wantOK       bool
		wantGistHits int
		wantContent  string
		wantOrigin   Origin
	}{
		{"gist wins over code", url.Values{"gist": {"abc"}, "code": {code}}, nil, StrategyGist, true, 1, "from gist", OriginGist},
		{"code alone", url.Values{"code": {code}}, nil, StrategyURLParam, true, 0, "from code", OriginURLParam},
		{"empty gist still blocks code", url.Values{"gist": {""}, "code": {code}}, ErrInvalidGistID, StrategyGist, false, 1, "", OriginNone},
		{"empty code sets empty source", url.Values{"code": {""}}, nil, StrategyURLParam, true, 0, "", OriginURLParam},
		{"nothing", url.Values{}, nil, StrategyNone, false, 0, "", OriginNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			gist := &fakeGist{file: GistFile{Name: "a", Content: "from gist"}, err: tt.gistErr}
			a := NewAcquirer(store, &fakeLoader{}, gist, Options{})

			strategy, ok := a.ResolveDeepLink(context.Background(), tt.query)
			if strategy != tt.wantStrategy || ok != tt.wantOK {
				t.Errorf("got %s/%v, want %s/%v", strategy, ok, tt.wantStrategy, tt.wantOK)
			}
			if origin := store.Current().Origin; origin != tt.wantOrigin {
				t.Errorf("origin = %s, want %s", origin, tt.wantOrigin)
			}
			if gist.calls != tt.wantGistHits {
				t.Errorf("gist fetched %d times, want %d", gist.calls, tt.wantGistHits)
			}
			if got := store.Current().Content; got != tt.wantContent {
				t.Errorf("content = %q, want %q", got, tt.wantContent)
			}
		})
	}
}

func TestResolveDeepLink_FailedGistDoesNotFallBack(t *testing.T) {
	store := NewStore()
	a := NewAcquirer(store, &fakeLoader{}, &fakeGist{err: ErrNoFiles}, Options{})

	strategy, ok := a.ResolveDeepLink(context.Background(), url.Values{
		"gist": {"abc"},
		"code": {EncodeURLParam("from code")},
	})
	if strategy != StrategyGist || ok {
		t.Errorf("got %s/%v, want gist/false", strategy, ok)
	}
	if store.Current().Origin != OriginNone {
		t.Error("code must not run when gist was selected")
	}
}

func TestAcquirer_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, reg)
	a := NewAcquirer(NewStore(), &fakeLoader{}, nil, Options{Metrics: m})

	a.FromURLParam(EncodeURLParam("x"))
	a.FromURLParam("*")

	n, err := testutil.GatherAndCount(reg, "playground_source_acquisitions_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 series, got %d", n)
	}
}
