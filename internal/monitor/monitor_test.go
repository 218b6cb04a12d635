package monitor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"crouswatch/internal/config"
	"crouswatch/internal/domain"
	"crouswatch/internal/monitoring"
)

// --- Fakes ---

type fakeSettings struct {
	s config.Settings
}

func (f fakeSettings) Snapshot() config.Settings { return f.s }

type mutableSettings struct {
	mu sync.Mutex
	s  config.Settings
}

func (m *mutableSettings) Snapshot() config.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}

func (m *mutableSettings) set(s config.Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
}

type fakeFetcher struct {
	mu    sync.Mutex
	pages []int
	err   error
}

func (f *fakeFetcher) FetchPage(ctx context.Context, page int) (string, error) {
	f.mu.Lock()
	f.pages = append(f.pages, page)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("<html>page %d</html>", page), nil
}

func (f *fakeFetcher) fetched() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pages...)
}

// blockingFetcher parks inside FetchPage until released, so tests can hold
// a scan mid-flight.
type blockingFetcher struct {
	entered chan struct{}
	release chan struct{}
}

func (f *blockingFetcher) FetchPage(ctx context.Context, page int) (string, error) {
	f.entered <- struct{}{}
	<-f.release
	return "<html></html>", nil
}

type fakeExtractor struct {
	pages map[int]domain.PageListings
	err   error
}

func (f *fakeExtractor) Extract(html, city string, page int) (domain.PageListings, error) {
	if f.err != nil {
		return domain.PageListings{}, f.err
	}
	return f.pages[page], nil
}

// cityExtractor records the city passed to each Extract call.
type cityExtractor struct {
	mu     sync.Mutex
	cities []string
}

func (f *cityExtractor) Extract(html, city string, page int) (domain.PageListings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cities = append(f.cities, city)
	return domain.PageListings{}, nil
}

func (f *cityExtractor) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cities...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Send(ctx context.Context, creds domain.Credentials, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}

// --- Helpers ---

func validSettings() config.Settings {
	return config.Settings{
		City:     "Paris",
		Interval: 0.5,
		BotToken: "123:abc",
		ChatID:   "42",
		MaxPages: 5,
	}
}

func fullPages(listingsOnLast int, lastPage int) map[int]domain.PageListings {
	pages := make(map[int]domain.PageListings)
	for p := 1; p < lastPage; p++ {
		pages[p] = domain.PageListings{Total: FullPageSize}
	}
	last := domain.PageListings{Total: listingsOnLast}
	for i := 0; i < listingsOnLast; i++ {
		last.Listings = append(last.Listings, domain.Listing{
			Title: fmt.Sprintf("Résidence %d", i+1),
			City:  "Paris",
			Page:  lastPage,
		})
	}
	pages[lastPage] = last
	return pages
}

func newTestMonitor(s config.Settings, f Fetcher, e Extractor, n Notifier) *Monitor {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	return New(f, e, n, fakeSettings{s}, metrics, zap.NewNop())
}

// --- Tests ---

func TestStartThenStopNotificationOrder(t *testing.T) {
	notifier := &fakeNotifier{}
	m := newTestMonitor(validSettings(), &fakeFetcher{}, &fakeExtractor{pages: fullPages(0, 1)}, notifier)

	require.NoError(t, m.Start())
	require.NoError(t, m.Stop())

	messages := notifier.sent()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "Monitor Started")
	assert.Contains(t, messages[1], "stopped by user")
	assert.Equal(t, domain.StateIdle, m.Status().State)
}

func TestStartInvalidConfig(t *testing.T) {
	s := validSettings()
	s.City = "  "
	notifier := &fakeNotifier{}
	m := newTestMonitor(s, &fakeFetcher{}, &fakeExtractor{}, notifier)

	err := m.Start()
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, domain.StateIdle, m.Status().State)
	assert.Empty(t, notifier.sent())
}

func TestStartWhileRunning(t *testing.T) {
	m := newTestMonitor(validSettings(), &fakeFetcher{}, &fakeExtractor{pages: fullPages(0, 1)}, &fakeNotifier{})

	require.NoError(t, m.Start())
	assert.ErrorIs(t, m.Start(), ErrAlreadyRunning)
	require.NoError(t, m.Stop())
}

func TestStopWhenIdle(t *testing.T) {
	m := newTestMonitor(validSettings(), &fakeFetcher{}, &fakeExtractor{}, &fakeNotifier{})
	assert.ErrorIs(t, m.Stop(), ErrNotRunning)
}

func TestPaginationStopsAtShortPage(t *testing.T) {
	fetcher := &fakeFetcher{}
	extractor := &fakeExtractor{pages: fullPages(5, 3)}
	s := validSettings()
	s.MaxPages = 10
	m := newTestMonitor(s, fetcher, extractor, &fakeNotifier{})

	report, err := m.TestCheckOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, fetcher.fetched())
	assert.Equal(t, 3, report.Pages)
}

func TestPaginationStopsAtMaxPages(t *testing.T) {
	fetcher := &fakeFetcher{}
	pages := map[int]domain.PageListings{}
	for p := 1; p <= 20; p++ {
		pages[p] = domain.PageListings{Total: FullPageSize}
	}
	s := validSettings()
	s.MaxPages = 4
	m := newTestMonitor(s, fetcher, &fakeExtractor{pages: pages}, &fakeNotifier{})

	report, err := m.TestCheckOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4}, fetcher.fetched())
	assert.Equal(t, 4, report.Pages)
	assert.False(t, report.Found)
}

func TestScenarioShortFirstPageWithListings(t *testing.T) {
	fetcher := &fakeFetcher{}
	notifier := &fakeNotifier{}
	m := newTestMonitor(validSettings(), fetcher, &fakeExtractor{pages: fullPages(3, 1)}, notifier)

	report, err := m.TestCheckOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1}, fetcher.fetched())
	assert.True(t, report.Found)
	require.Len(t, report.Listings, 3)

	messages := notifier.sent()
	require.Len(t, messages, 1)
	for i := 1; i <= 3; i++ {
		assert.Contains(t, messages[0], fmt.Sprintf("Résidence %d", i))
	}
}

func TestCheckOnceNoListingsLeavesStateUntouched(t *testing.T) {
	notifier := &fakeNotifier{}
	m := newTestMonitor(validSettings(), &fakeFetcher{}, &fakeExtractor{pages: fullPages(0, 1)}, notifier)

	report, err := m.TestCheckOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Found)
	assert.Contains(t, report.Summary, "No Paris listings found")
	assert.Empty(t, notifier.sent())

	status := m.Status()
	assert.Equal(t, domain.StateIdle, status.State)
	assert.Nil(t, status.LastCheck)
	assert.Nil(t, status.LastReport)
}

func TestCheckOnceWhileRunning(t *testing.T) {
	m := newTestMonitor(validSettings(), &fakeFetcher{}, &fakeExtractor{pages: fullPages(0, 1)}, &fakeNotifier{})

	require.NoError(t, m.Start())
	_, err := m.TestCheckOnce(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	require.NoError(t, m.Stop())
}

func TestCheckOnceInFlightRejectsStartAndSecondCheck(t *testing.T) {
	fetcher := &blockingFetcher{entered: make(chan struct{}, 1), release: make(chan struct{})}
	m := newTestMonitor(validSettings(), fetcher, &fakeExtractor{pages: fullPages(0, 1)}, &fakeNotifier{})

	errCh := make(chan error, 1)
	go func() {
		_, err := m.TestCheckOnce(context.Background())
		errCh <- err
	}()
	<-fetcher.entered

	assert.ErrorIs(t, m.Start(), ErrAlreadyRunning)
	_, err := m.TestCheckOnce(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(fetcher.release)
	require.NoError(t, <-errCh)

	// Once the check completes the monitor is available again.
	require.NoError(t, m.Start())
	require.NoError(t, m.Stop())
}

func TestLoopPicksUpSettingsChangeNextCycle(t *testing.T) {
	settings := &mutableSettings{s: validSettings()}
	extractor := &cityExtractor{}
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	m := New(&fakeFetcher{}, extractor, &fakeNotifier{}, settings, metrics, zap.NewNop())
	m.newTimer = func(time.Duration) *time.Timer { return time.NewTimer(time.Millisecond) }

	require.NoError(t, m.Start())
	require.Eventually(t, func() bool {
		return len(extractor.seen()) >= 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "Paris", extractor.seen()[0])

	updated := validSettings()
	updated.City = "Lyon"
	updated.Interval = 2
	settings.set(updated)

	// The next cycle must scan the new city and schedule with the new
	// interval.
	require.Eventually(t, func() bool {
		seen := extractor.seen()
		if len(seen) == 0 || seen[len(seen)-1] != "Lyon" {
			return false
		}
		st := m.Status()
		return st.NextCheck != nil && time.Until(*st.NextCheck) > time.Minute
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, "Lyon", m.Status().City)
	require.NoError(t, m.Stop())
}

func TestFailedCyclesKeepMonitorRunning(t *testing.T) {
	fetcher := &fakeFetcher{err: &domain.NetworkError{URL: "https://example.org", Err: context.DeadlineExceeded}}
	m := newTestMonitor(validSettings(), fetcher, &fakeExtractor{}, &fakeNotifier{})

	require.NoError(t, m.Start())

	require.Eventually(t, func() bool {
		return len(fetcher.fetched()) >= 1 && m.Status().NextCheck != nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, domain.StateRunning, m.Status().State)
	require.NoError(t, m.Stop())
	assert.Equal(t, domain.StateIdle, m.Status().State)
}

func TestRunningCycleSendsResultNotification(t *testing.T) {
	notifier := &fakeNotifier{}
	m := newTestMonitor(validSettings(), &fakeFetcher{}, &fakeExtractor{pages: fullPages(2, 1)}, notifier)

	require.NoError(t, m.Start())

	require.Eventually(t, func() bool {
		return len(notifier.sent()) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, m.Stop())

	messages := notifier.sent()
	require.Len(t, messages, 3)
	assert.Contains(t, messages[0], "Monitor Started")
	assert.Contains(t, messages[1], "PARIS FOUND!")
	assert.Contains(t, messages[1], "Résidence 1")
	assert.Contains(t, messages[2], "Monitor Stopped")
}

func TestStatusWhileRunning(t *testing.T) {
	m := newTestMonitor(validSettings(), &fakeFetcher{}, &fakeExtractor{pages: fullPages(0, 1)}, &fakeNotifier{})

	require.NoError(t, m.Start())

	require.Eventually(t, func() bool {
		st := m.Status()
		return st.LastCheck != nil && st.NextCheck != nil
	}, 2*time.Second, 10*time.Millisecond)

	status := m.Status()
	assert.Equal(t, domain.StateRunning, status.State)
	assert.Equal(t, "Paris", status.City)
	require.NotNil(t, status.LastReport)
	assert.False(t, status.LastReport.Found)

	require.NoError(t, m.Stop())
}
