package ads

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/producttrack/producttrack/internal/keystore"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newCounter(kv keystore.Store) (*Counter, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewCounter(kv, clk.Now), clk
}

func TestStartFreshWindow(t *testing.T) {
	kv := keystore.NewMemoryStore()
	c, clk := newCounter(kv)

	show, err := c.Start()
	require.NoError(t, err)
	assert.True(t, show)
	assert.Equal(t, 1, c.Count())

	ts, _ := kv.Get(keystore.KeyAdTimestamp)
	assert.Equal(t, strconv.FormatInt(clk.t.UnixMilli(), 10), ts)

	show, err = c.Start()
	require.NoError(t, err)
	assert.False(t, show, "only one start banner per process")
}

func TestStartWithinWindowShowsOncePerProcess(t *testing.T) {
	kv := keystore.NewMemoryStore()
	first, clk := newCounter(kv)
	_, err := first.Start()
	require.NoError(t, err)

	clk.Advance(time.Hour)
	second := NewCounter(kv, clk.Now)
	show, err := second.Start()
	require.NoError(t, err)
	assert.True(t, show)
	assert.Equal(t, 2, second.Count())
}

func TestNeverMoreThanFourPerWindow(t *testing.T) {
	kv := keystore.NewMemoryStore()
	c, clk := newCounter(kv)

	shows := 0
	if ok, _ := c.Start(); ok {
		shows++
	}
	for i := 0; i < 10; i++ {
		clk.Advance(TickInterval)
		ok, err := c.Tick()
		require.NoError(t, err)
		if ok {
			shows++
		}
	}
	// A new process within the same window shows nothing either.
	other := NewCounter(kv, clk.Now)
	ok, err := other.Start()
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, MaxPerWindow, shows)
	assert.Equal(t, MaxPerWindow, c.Count())
}

func TestExpiredWindowResets(t *testing.T) {
	kv := keystore.NewMemoryStore()
	c, clk := newCounter(kv)
	require.NoError(t, kv.Set(keystore.KeyAdCount, "4"))
	require.NoError(t, kv.Set(keystore.KeyAdTimestamp, strconv.FormatInt(clk.t.Add(-25*time.Hour).UnixMilli(), 10)))

	show, err := c.Start()
	require.NoError(t, err)
	assert.True(t, show)
	assert.Equal(t, 1, c.Count())
}

func TestTickResetsExpiredWindow(t *testing.T) {
	kv := keystore.NewMemoryStore()
	c, clk := newCounter(kv)
	for i := 0; i < MaxPerWindow; i++ {
		_, err := c.Tick()
		require.NoError(t, err)
	}
	ok, _ := c.Tick()
	require.False(t, ok)

	clk.Advance(Window + time.Minute)
	ok, err := c.Tick()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, c.Count())
}

func TestCorruptTimestampTreatedAsMissing(t *testing.T) {
	kv := keystore.NewMemoryStore()
	require.NoError(t, kv.Set(keystore.KeyAdTimestamp, "yesterday"))
	require.NoError(t, kv.Set(keystore.KeyAdCount, "3"))

	c, _ := newCounter(kv)
	show, err := c.Start()
	require.NoError(t, err)
	assert.True(t, show)
	assert.Equal(t, 1, c.Count())
}

func TestBanner(t *testing.T) {
	assert.Equal(t, Banners[0], Banner(0))
	assert.Equal(t, Banners[0], Banner(1))
	assert.Equal(t, Banners[1], Banner(2))
	assert.Equal(t, Banners[0], Banner(len(Banners)+1))
}
