// Package ads rations the promotional banner: at most MaxPerWindow
// displays per rolling Window, persisted across runs in the keystore.
package ads

import (
	"strconv"
	"sync"
	"time"

	"github.com/producttrack/producttrack/internal/keystore"
)

const (
	MaxPerWindow = 4
	Window       = 24 * time.Hour
	TickInterval = 15 * time.Minute

	// CloseDelay is how long a banner stays before it may be dismissed.
	CloseDelay = 5 * time.Second
)

// Banners are the promotional messages, chosen in rotation.
var Banners = []string{
	"ProductTrack Pro: alertas de vencimiento por correo y reportes semanales.",
	"Escanea tus etiquetas con NutriScan y conoce lo que comes.",
	"¿Tienes un negocio? Invita a tu equipo con una cuenta empresarial.",
	"Nunca más sin stock: activa las recomendaciones de reposición.",
}

// Counter decides when a banner is shown. Time is injectable for tests.
type Counter struct {
	kv  keystore.Store
	now func() time.Time

	mu    sync.Mutex
	shown bool
}

// NewCounter creates a counter backed by kv.
func NewCounter(kv keystore.Store, now func() time.Time) *Counter {
	if now == nil {
		now = time.Now
	}
	return &Counter{kv: kv, now: now}
}

// Start is called once when the session view opens. An expired or missing
// window restarts at one display; otherwise one banner is shown per process
// while the window has room.
func (c *Counter) Start() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, windowStart, ok := c.load()
	now := c.now()
	if !ok || now.Sub(windowStart) > Window {
		c.shown = true
		return true, c.save(1, now)
	}
	if c.shown || count >= MaxPerWindow {
		return false, nil
	}
	c.shown = true
	return true, c.save(count+1, windowStart)
}

// Tick is called every TickInterval and shows another banner while the
// window has room. An expired window restarts like Start does.
func (c *Counter) Tick() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	count, windowStart, ok := c.load()
	now := c.now()
	if !ok || now.Sub(windowStart) > Window {
		return true, c.save(1, now)
	}
	if count >= MaxPerWindow {
		return false, nil
	}
	return true, c.save(count+1, windowStart)
}

// Count returns the displays recorded in the current window.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, _, _ := c.load()
	return count
}

// Banner returns the banner for the n-th display.
func Banner(n int) string {
	if n < 1 {
		n = 1
	}
	return Banners[(n-1)%len(Banners)]
}

func (c *Counter) load() (count int, windowStart time.Time, ok bool) {
	rawTS, hasTS := c.kv.Get(keystore.KeyAdTimestamp)
	if !hasTS {
		return 0, time.Time{}, false
	}
	ms, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return 0, time.Time{}, false
	}
	rawCount, _ := c.kv.Get(keystore.KeyAdCount)
	count, _ = strconv.Atoi(rawCount)
	return count, time.UnixMilli(ms), true
}

// save stores the timestamp in epoch milliseconds, as the web client did.
func (c *Counter) save(count int, windowStart time.Time) error {
	if err := c.kv.Set(keystore.KeyAdCount, strconv.Itoa(count)); err != nil {
		return err
	}
	return c.kv.Set(keystore.KeyAdTimestamp, strconv.FormatInt(windowStart.UnixMilli(), 10))
}
