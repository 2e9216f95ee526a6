package insights

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fitbusiness/internal/domain/reports"
)

type stubGenerator struct {
	text   string
	err    error
	delay  time.Duration
	prompt string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompt = prompt
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}

type sourceRecorder struct{ sources []string }

func (r *sourceRecorder) RecordInsight(key, source string) {
	r.sources = append(r.sources, key+":"+source)
}

func TestParseKey(t *testing.T) {
	for _, k := range Keys {
		got, ok := ParseKey(string(k))
		require.True(t, ok)
		require.Equal(t, k, got)
		require.NotEmpty(t, Fallback(k))
	}
	_, ok := ParseKey("summary")
	require.False(t, ok)
}

func TestInsightUsesGenerator(t *testing.T) {
	gen := &stubGenerator{text: "  Workforce looks healthy.  "}
	rec := &sourceRecorder{}
	svc := NewService(gen, rec, time.Second)

	got := svc.Insight(context.Background(), KeyOverview, reports.Dashboard{Companies: 2, Employees: 9, AverageFitScore: 71})
	require.Equal(t, Insight{Key: KeyOverview, Text: "Workforce looks healthy.", Source: SourceAI}, got)
	require.Contains(t, gen.prompt, "Average FitScore: 71")
	require.Equal(t, []string{"overview:ai"}, rec.sources)
}

func TestInsightFallsBackOnFailure(t *testing.T) {
	cases := map[string]*Service{
		"error":        NewService(&stubGenerator{err: errors.New("boom")}, nil, time.Second),
		"empty":        NewService(&stubGenerator{text: "   "}, nil, time.Second),
		"timeout":      NewService(&stubGenerator{text: "late", delay: time.Second}, nil, 20*time.Millisecond),
		"unconfigured": NewService(nil, nil, 0),
	}
	for name, svc := range cases {
		t.Run(name, func(t *testing.T) {
			got := svc.Insight(context.Background(), KeyForecast, reports.Dashboard{})
			require.Equal(t, SourceFallback, got.Source)
			require.Equal(t, Fallback(KeyForecast), got.Text)
		})
	}
}

func TestClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("x-goog-api-key"))
		require.Empty(t, r.URL.RawQuery)
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hi "},{"text":"there"}]}}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "secret", "gemini-test", srv.Client())
	text, err := client.Generate(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "Hi there", text)
}

func TestClientErrors(t *testing.T) {
	require.Nil(t, NewClient("http://example.invalid", "", "m", nil))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "empty") {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
			return
		}
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "k", "limited", srv.Client()).Generate(context.Background(), "p")
	require.ErrorContains(t, err, "429")

	_, err = NewClient(srv.URL, "k", "empty", srv.Client()).Generate(context.Background(), "p")
	require.ErrorIs(t, err, ErrEmptyResponse)
}
