package rod

import (
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is the default number of pages rendered before the
// browser is restarted.
const DefaultMaxPages = 75

// instance is one launched Chrome process and the pages open in it.
type instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	active   int
	retired  bool
}

func (i *instance) shutdown() {
	_ = i.browser.Close()
	i.launcher.Kill()
}

// browser owns a headless Chrome process and replaces it every maxPages
// pages, since Chrome's memory use only grows over a long run. A replaced
// process is shut down once its last open page is released.
type browser struct {
	mu       sync.Mutex
	current  *instance
	pages    int
	maxPages int
	closed   bool
}

func newBrowser(maxPages int) (*browser, error) {
	inst, err := launch()
	if err != nil {
		return nil, err
	}
	return &browser{current: inst, maxPages: maxPages}, nil
}

// acquire returns the browser to open the next page in and a function that
// must be called once that page is closed.
func (b *browser) acquire() (*rod.Browser, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil, fmt.Errorf("browser closed")
	}
	if b.maxPages > 0 && b.pages >= b.maxPages {
		b.replace()
	}
	b.pages++

	inst := b.current
	inst.active++
	return inst.browser, func() { b.release(inst) }, nil
}

func (b *browser) release(inst *instance) {
	b.mu.Lock()
	defer b.mu.Unlock()

	inst.active--
	if inst.retired && inst.active == 0 {
		inst.shutdown()
	}
}

// replace swaps in a fresh process, keeping the old one if the launch fails.
// Must be called with mu held.
func (b *browser) replace() {
	next, err := launch()
	if err != nil {
		return
	}
	old := b.current
	b.current = next
	b.pages = 0

	old.retired = true
	if old.active == 0 {
		old.shutdown()
	}
}

func (b *browser) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	err := b.current.browser.Close()
	b.current.launcher.Kill()
	return err
}

func launch() (*instance, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &instance{browser: b, launcher: l}, nil
}
