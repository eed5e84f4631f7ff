package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recstore/internal/schema"
	"github.com/roach88/recstore/internal/store"
)

func TestCountingReclaimer_ConcurrentCalls(t *testing.T) {
	r := NewCountingReclaimer()
	assert.Equal(t, 0, r.Calls())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Reclaim()
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Calls())

	r.Reset()
	assert.Equal(t, 0, r.Calls())
}

func TestSliceSource_YieldsLinesInOrder(t *testing.T) {
	src := NewSliceSource("a", "", "c")

	var got []string
	for src.Scan() {
		got = append(got, src.Text())
	}
	require.NoError(t, src.Err())
	assert.Equal(t, []string{"a", "", "c"}, got)
	assert.Equal(t, 3, src.Consumed())
}

func TestSliceSource_FailAfter(t *testing.T) {
	src := NewSliceSource("a", "b", "c")
	src.FailAfter = 2

	n := 0
	for src.Scan() {
		n++
	}
	assert.Equal(t, 2, n)
	assert.Error(t, src.Err())
	assert.False(t, src.Scan(), "source stays failed")
}

func TestStaticAggregate_StateIsCopy(t *testing.T) {
	a := StaticAggregate{"mean": 1.5}
	st := a.State()
	st["mean"] = 9.0
	assert.Equal(t, 1.5, a["mean"])
}

func TestCountAggregate_ObservesAdds(t *testing.T) {
	s, err := store.New(schema.StoreDef{
		Name:   "Counted",
		Fields: []schema.FieldDef{{Name: "N", Type: "int"}},
	})
	require.NoError(t, err)

	agg := NewCountAggregate()
	require.NoError(t, s.AttachAggregate("count", agg))

	for i := 0; i < 3; i++ {
		_, err := s.Add(map[string]any{"N": i})
		require.NoError(t, err)
	}
	_, err = s.Add(map[string]any{"N": "bad"})
	require.Error(t, err)

	assert.Equal(t, map[string]any{"count": 3, "last_id": int64(2)}, agg.State())
}
