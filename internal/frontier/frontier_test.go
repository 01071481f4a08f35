// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "URL Frontier Tests"
//   Timestamp: "2025-12-08T12:45:00Z"
//   Authoring_Role: "TE"
//   Analysis_Performed: "Covered ordering, within-run dedup and failing sources"
//   Principle_Applied: "Aether-Engineering-Testability"
//   Quality_Check: "Context cancellation exercised"
// }}

package frontier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name string
	urls []string
	err  error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) URLs(context.Context) ([]string, error) {
	return s.urls, s.err
}

func drain(f *Frontier) []string {
	var out []string
	for {
		url, ok := f.Next(context.Background())
		if !ok {
			return out
		}
		out = append(out, url)
	}
}

func TestFrontierDrainsSourcesInOrder(t *testing.T) {
	f := New(
		&stubSource{name: "one", urls: []string{"u1", "u2"}},
		&stubSource{name: "two", urls: []string{"u3"}},
	)

	assert.Equal(t, []string{"u1", "u2", "u3"}, drain(f))
}

func TestFrontierDeduplicatesWithinRun(t *testing.T) {
	f := New(
		&stubSource{name: "one", urls: []string{"u1", "u2", "u1"}},
		&stubSource{name: "two", urls: []string{"u2", "u3"}},
	)

	assert.Equal(t, []string{"u1", "u2", "u3"}, drain(f))
}

func TestFrontierSkipsFailingSource(t *testing.T) {
	f := New(
		&stubSource{name: "broken", err: errors.New("boom")},
		&stubSource{name: "ok", urls: []string{"u1"}},
	)

	assert.Equal(t, []string{"u1"}, drain(f))
}

func TestFrontierStopsOnCancel(t *testing.T) {
	f := New(&stubSource{name: "one", urls: []string{"u1", "u2"}})

	ctx, cancel := context.WithCancel(context.Background())

	url, ok := f.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", url)

	cancel()
	_, ok = f.Next(ctx)
	assert.False(t, ok)
}

func TestStaticSource(t *testing.T) {
	s := NewStaticSource([]string{"u1", "u2"})

	urls, err := s.URLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, urls)
	assert.Equal(t, "extra_urls", s.Name())
}
