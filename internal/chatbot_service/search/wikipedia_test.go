package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWikipediaLookupReturnsSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/rest_v1/page/summary/Photosynthesis", r.URL.Path)
		w.Write([]byte(`{"type": "standard", "title": "Photosynthesis", "extract": "Photosynthesis is a process used by plants."}`))
	}))
	defer server.Close()

	c := NewWikipediaClient(server.URL, testLogger())
	answer, ok := c.Lookup(context.Background(), "Photosynthesis")
	require.True(t, ok)
	assert.Equal(t, "Photosynthesis is a process used by plants.", answer)
}

func TestWikipediaLookupFollowsDisambiguation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/rest_v1/page/summary/Mercury":
			w.Write([]byte(`{"type": "disambiguation", "title": "Mercury", "extract": ""}`))
		case r.URL.Path == "/w/api.php" && r.URL.Query().Get("action") == "opensearch":
			w.Write([]byte(`["Mercury", ["Mercury", "Mercury (planet)", "Mercury (element)"], [], []]`))
		case r.URL.Path == "/api/rest_v1/page/summary/Mercury%20(planet)" ||
			r.URL.Path == "/api/rest_v1/page/summary/Mercury (planet)":
			w.Write([]byte(`{"type": "standard", "title": "Mercury (planet)", "extract": "Mercury is the smallest planet."}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewWikipediaClient(server.URL, testLogger())
	answer, ok := c.Lookup(context.Background(), "Mercury")
	require.True(t, ok)
	assert.Equal(t, "Information about 'Mercury (planet)': Mercury is the smallest planet.", answer)
}

func TestWikipediaLookupFallsBackToFullPage(t *testing.T) {
	longBody := strings.Repeat("Some sentence about an obscure topic. ", 40) // well over maxArticleLength

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/summary/"):
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/w/api.php" && r.URL.Query().Get("action") == "query":
			fmt.Fprintf(w, `{"query": {"pages": {"123": {"extract": %q}}}}`, longBody)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewWikipediaClient(server.URL, testLogger())
	answer, ok := c.Lookup(context.Background(), "Obscure topic")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(answer, "... (content truncated)"))
	assert.LessOrEqual(t, len(answer), maxArticleLength+len("... (content truncated)"))
}

func TestWikipediaLookupMissWhenNothingFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/rest_v1/page/summary/"):
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/w/api.php":
			w.Write([]byte(`{"query": {"pages": {"-1": {"extract": ""}}}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := NewWikipediaClient(server.URL, testLogger())
	_, ok := c.Lookup(context.Background(), "No such page anywhere")
	assert.False(t, ok)
}

func TestTruncateAtBoundary(t *testing.T) {
	t.Run("short content untouched", func(t *testing.T) {
		assert.Equal(t, "short.", truncateAtBoundary("short.", 100))
	})

	t.Run("cuts at sentence boundary", func(t *testing.T) {
		content := "First sentence. Second sentence. " + strings.Repeat("x", 100)
		got := truncateAtBoundary(content, 40)
		assert.Equal(t, "First sentence. Second sentence.... (content truncated)", got)
	})

	t.Run("hard cut when no usable boundary", func(t *testing.T) {
		content := strings.Repeat("y", 200)
		got := truncateAtBoundary(content, 50)
		assert.Equal(t, strings.Repeat("y", 50)+"... (content truncated)", got)
	})

	t.Run("boundary too early is ignored", func(t *testing.T) {
		content := "Hi." + strings.Repeat("z", 200)
		got := truncateAtBoundary(content, 50)
		assert.Equal(t, content[:50]+"... (content truncated)", got)
	})
}
