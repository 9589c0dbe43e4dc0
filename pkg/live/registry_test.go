package live

import (
	"math/rand"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"liyu1981.xyz/flow-meter-service/pkg/common"
)

func TestRegistry_RegisterAndSnapshot(t *testing.T) {
	common.SetTestLoggerNop()
	r := NewRegistry()

	a, b := newFakeSubscriber(), newFakeSubscriber()
	r.Register("MED-001A", a)
	r.Register("MED-001A", b)
	r.Register("MED-001A", a)

	assert.Equal(t, 2, r.Count("MED-001A"))
	assert.ElementsMatch(t, []Subscriber{a, b}, r.Snapshot("MED-001A"))
	assert.Empty(t, r.Snapshot("MED-404"))
	assert.Equal(t, []string{"MED-001A"}, r.Meters())
}

func TestRegistry_SnapshotIsACopy(t *testing.T) {
	common.SetTestLoggerNop()
	r := NewRegistry()

	a := newFakeSubscriber()
	r.Register("MED-001A", a)
	snap := r.Snapshot("MED-001A")

	r.Unregister("MED-001A", a)
	assert.Len(t, snap, 1)
	assert.Empty(t, r.Snapshot("MED-001A"))
}

func TestRegistry_UnregisterTwiceIsNoop(t *testing.T) {
	common.SetTestLoggerNop()
	r := NewRegistry()

	a, b := newFakeSubscriber(), newFakeSubscriber()
	r.Register("MED-001A", a)
	r.Register("MED-001A", b)

	r.Unregister("MED-001A", a)
	r.Unregister("MED-001A", a)
	assert.Equal(t, []Subscriber{b}, r.Snapshot("MED-001A"))

	r.Unregister("MED-001A", b)
	r.Unregister("MED-001A", b)
	r.Unregister("MED-404", b)
	assert.Empty(t, r.Meters())
}

func TestRegistry_KeySetMatchesNonEmptyMeters(t *testing.T) {
	common.SetTestLoggerNop()
	r := NewRegistry()
	rnd := rand.New(rand.NewSource(42))

	meters := []string{"MED-001A", "MED-002B", "MED-003C"}
	pool := make([]*fakeSubscriber, 8)
	for i := range pool {
		pool[i] = newFakeSubscriber()
	}

	model := map[string]map[string]bool{}
	for step := 0; step < 2000; step++ {
		code := meters[rnd.Intn(len(meters))]
		sub := pool[rnd.Intn(len(pool))]

		if rnd.Intn(2) == 0 {
			r.Register(code, sub)
			if model[code] == nil {
				model[code] = map[string]bool{}
			}
			model[code][sub.ID()] = true
		} else {
			r.Unregister(code, sub)
			delete(model[code], sub.ID())
			if len(model[code]) == 0 {
				delete(model, code)
			}
		}

		want := make([]string, 0, len(model))
		for code := range model {
			want = append(want, code)
		}
		sort.Strings(want)
		require.Equal(t, want, append([]string{}, r.Meters()...), "step %d", step)

		for _, code := range meters {
			require.Equal(t, len(model[code]), r.Count(code), "step %d meter %s", step, code)
		}
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	common.SetTestLoggerNop()
	r := NewRegistry()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := newFakeSubscriber()
			r.Register("MED-001A", sub)
			_ = r.Snapshot("MED-001A")
			r.Unregister("MED-001A", sub)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count("MED-001A"))
	assert.Empty(t, r.Meters())
}

func TestRegistry_CloseAll(t *testing.T) {
	common.SetTestLoggerNop()
	r := NewRegistry()

	a, b := newFakeSubscriber(), newFakeSubscriber()
	r.Register("MED-001A", a)
	r.Register("MED-002B", b)

	r.CloseAll()

	assert.Empty(t, r.Meters())
	assert.Equal(t, 1, a.closeCount())
	assert.Equal(t, 1, b.closeCount())
	assert.Equal(t, 0, r.Count("MED-001A"))
}
