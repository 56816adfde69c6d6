package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annolens/annolens/internal/domain/annotation"
)

const docText = "The study found that 45% of people agree."

func mustAnnotation(t *testing.T, id string, start, end int) *annotation.Annotation {
	t.Helper()
	a, err := annotation.New(id, start, end, annotation.KindHighlight, docText)
	require.NoError(t, err)
	return a
}

func TestRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	got, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got, "absent key loads as empty list")

	list := []*annotation.Annotation{mustAnnotation(t, "a1", 0, 3), mustAnnotation(t, "a2", 4, 9)}
	require.NoError(t, s.Save(ctx, "d1", list))

	got, err = s.Load(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Mutating the returned slice must not affect the store.
	got[0] = nil
	again, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "a1", again[0].ID)
}

func TestDelete(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "d1", []*annotation.Annotation{
		mustAnnotation(t, "a1", 0, 3),
		mustAnnotation(t, "a2", 4, 9),
	}))

	require.NoError(t, s.Delete(ctx, "d1", "a1"))
	got, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a2", got[0].ID)

	require.NoError(t, s.Delete(ctx, "d1", "a1"), "missing id is a no-op")
}

func TestClear(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "d1", []*annotation.Annotation{mustAnnotation(t, "a1", 0, 3)}))
	require.NoError(t, s.Clear(ctx, "d1"))

	got, err := s.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("d%d", i%4)
			_ = s.Save(ctx, key, []*annotation.Annotation{mustAnnotation(t, fmt.Sprintf("a%d", i), 0, 3)})
			_, _ = s.Load(ctx, key)
			_ = s.Delete(ctx, key, "a0")
		}(i)
	}
	wg.Wait()
}
