// Package monitor owns the scan lifecycle: the poll loop, the
// idle/running/stopping state machine, and the decision of when
// notifications fire.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"crouswatch/internal/config"
	"crouswatch/internal/domain"
	"crouswatch/internal/evaluator"
	"crouswatch/internal/monitoring"
)

// FullPageSize is how many listings a full search-results page carries. A
// page with fewer candidates is the last one of the sweep.
const FullPageSize = 20

const notifyTimeout = 15 * time.Second

var (
	// ErrAlreadyRunning is returned by Start and TestCheckOnce when the
	// monitor is not idle.
	ErrAlreadyRunning = errors.New("monitor is already running")
	// ErrNotRunning is returned by Stop when there is nothing to stop.
	ErrNotRunning = errors.New("monitor is not running")

	errStopRequested = errors.New("stop requested")
)

// Fetcher retrieves the raw HTML of one search-results page.
type Fetcher interface {
	FetchPage(ctx context.Context, page int) (string, error)
}

// Extractor parses one page into listing records for the target city.
type Extractor interface {
	Extract(html, city string, page int) (domain.PageListings, error)
}

// Notifier delivers one text message to the messaging endpoint.
type Notifier interface {
	Send(ctx context.Context, creds domain.Credentials, text string) error
}

// SettingsSource provides a consistent settings snapshot. The loop reads one
// at the top of every cycle so a mid-run change never tears a cycle.
type SettingsSource interface {
	Snapshot() config.Settings
}

// Status is the externally visible monitor state.
type Status struct {
	State      domain.MonitorState `json:"state"`
	City       string              `json:"city,omitempty"`
	LastCheck  *time.Time          `json:"last_check,omitempty"`
	NextCheck  *time.Time          `json:"next_check,omitempty"`
	LastReport *domain.ScanReport  `json:"last_report,omitempty"`
}

// Monitor runs periodic scans on a background goroutine. A single scan is
// active at a time; stop requests are cooperative and take effect between
// page fetches and between cycles, never mid-request.
type Monitor struct {
	fetcher   Fetcher
	extractor Extractor
	notifier  Notifier
	settings  SettingsSource
	metrics   *monitoring.Metrics
	logger    *zap.Logger

	// newTimer builds the between-cycles timer; tests swap it to avoid
	// real interval waits.
	newTimer func(d time.Duration) *time.Timer

	mu         sync.Mutex
	state      domain.MonitorState
	checking   bool
	reason     domain.StopReason
	city       string
	stopCh     chan struct{}
	done       chan struct{}
	lastCheck  time.Time
	nextCheck  time.Time
	lastReport *domain.ScanReport
}

func New(f Fetcher, e Extractor, n Notifier, s SettingsSource, m *monitoring.Metrics, l *zap.Logger) *Monitor {
	return &Monitor{
		fetcher:   f,
		extractor: e,
		notifier:  n,
		settings:  s,
		metrics:   m,
		logger:    l,
		newTimer:  time.NewTimer,
		state:     domain.StateIdle,
	}
}

// Start validates the current settings and launches the scan loop. The first
// scan runs immediately rather than after one full interval. Valid only from
// the idle state; an invalid configuration surfaces as *domain.ConfigError
// and the monitor stays idle.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.state != domain.StateIdle || m.checking {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	cfg := m.settings.Snapshot()
	if err := cfg.Validate(); err != nil {
		m.mu.Unlock()
		return err
	}
	m.state = domain.StateRunning
	m.reason = ""
	m.city = cfg.City
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stopCh, m.done
	m.mu.Unlock()

	m.metrics.SetMonitorRunning(true)
	m.logger.Info("monitoring started",
		zap.String("city", cfg.City),
		zap.Float64("interval_minutes", cfg.Interval))
	m.notify(cfg, startedMessage(cfg))

	go m.run(stop, done)
	return nil
}

// Stop signals the loop to exit once the current cycle completes and waits
// for it to wind down. Valid only while running.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	if m.state != domain.StateRunning {
		m.mu.Unlock()
		return ErrNotRunning
	}
	m.state = domain.StateStopping
	m.reason = domain.StopManual
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
	return nil
}

// TestCheckOnce performs exactly one scan cycle synchronously and returns
// the report, without entering the running state. When listings are found
// the scan-result notification is sent, mirroring a normal cycle. While the
// check is in flight the monitor rejects Start and further checks, so a
// single scan is active at a time.
func (m *Monitor) TestCheckOnce(ctx context.Context) (domain.ScanReport, error) {
	m.mu.Lock()
	if m.state != domain.StateIdle || m.checking {
		m.mu.Unlock()
		return domain.ScanReport{}, ErrAlreadyRunning
	}
	m.checking = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.checking = false
		m.mu.Unlock()
	}()

	cfg := m.settings.Snapshot()
	if err := cfg.Validate(); err != nil {
		return domain.ScanReport{}, err
	}

	m.logger.Info("test check started", zap.String("city", cfg.City))
	report, err := m.scanOnce(ctx, cfg, nil)
	if err != nil {
		m.metrics.IncErrorsTotal(domain.ErrorKind(err))
		return domain.ScanReport{}, err
	}
	if report.Found {
		m.notify(cfg, report.Summary)
	}
	return report, nil
}

// Status returns a snapshot of the monitor for the control surface.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{State: m.state, City: m.city, LastReport: m.lastReport}
	if !m.lastCheck.IsZero() {
		t := m.lastCheck
		st.LastCheck = &t
	}
	if !m.nextCheck.IsZero() && m.state == domain.StateRunning {
		t := m.nextCheck
		st.NextCheck = &t
	}
	return st
}

func (m *Monitor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		cfg := m.settings.Snapshot()
		if err := cfg.Validate(); err != nil {
			// Waiting cannot fix a broken configuration.
			m.logger.Error("configuration became invalid, stopping", zap.Error(err))
			m.finish(cfg, domain.StopFatal)
			return
		}
		m.setCity(cfg.City)

		report, err := m.scanOnce(context.Background(), cfg, stop)
		switch {
		case errors.Is(err, errStopRequested):
			// The select below exits immediately.
		case err != nil:
			// Transient site or network trouble: the cycle is skipped and
			// the loop stays alive for the next interval.
			m.logger.Warn("scan cycle failed, retrying next interval",
				zap.String("city", cfg.City),
				zap.String("error_type", domain.ErrorKind(err)),
				zap.Error(err))
			m.metrics.IncErrorsTotal(domain.ErrorKind(err))
		default:
			m.recordReport(report)
			m.metrics.IncScansTotal()
			m.metrics.AddListingsFound(len(report.Listings))
			if report.Found {
				m.notify(cfg, report.Summary)
			}
			m.logger.Info("scan cycle complete",
				zap.String("city", cfg.City),
				zap.Bool("found", report.Found),
				zap.Int("listings", len(report.Listings)),
				zap.Int("pages", report.Pages))
		}

		interval := cfg.IntervalDuration()
		m.setNextCheck(time.Now().Add(interval))

		timer := m.newTimer(interval)
		select {
		case <-stop:
			timer.Stop()
			m.finish(cfg, m.takeReason())
			return
		case <-timer.C:
		}
	}
}

// scanOnce sweeps pages 1..MaxPages sequentially, stopping early at the
// first page with fewer candidates than a full page. Any fetch or parse
// error fails the whole cycle.
func (m *Monitor) scanOnce(ctx context.Context, cfg config.Settings, stop <-chan struct{}) (domain.ScanReport, error) {
	startedAt := time.Now()
	var gathered []domain.Listing
	pages := 0

	for page := 1; page <= cfg.MaxPages; page++ {
		if stopRequested(stop) {
			return domain.ScanReport{}, errStopRequested
		}

		html, err := m.fetcher.FetchPage(ctx, page)
		if err != nil {
			return domain.ScanReport{}, fmt.Errorf("page %d: %w", page, err)
		}

		extracted, err := m.extractor.Extract(html, cfg.City, page)
		if err != nil {
			return domain.ScanReport{}, fmt.Errorf("page %d: %w", page, err)
		}

		pages++
		gathered = append(gathered, extracted.Listings...)

		if extracted.Total < FullPageSize {
			break
		}
	}

	report := evaluator.Evaluate(cfg.City, gathered)
	report.Pages = pages
	report.CheckedAt = startedAt
	return report, nil
}

// notify sends one message best-effort. Failures are logged and counted,
// never propagated.
func (m *Monitor) notify(cfg config.Settings, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	if err := m.notifier.Send(ctx, cfg.Credentials(), text); err != nil {
		m.logger.Warn("failed to send notification",
			zap.String("city", cfg.City),
			zap.Error(err))
		m.metrics.IncErrorsTotal(domain.ErrorKind(err))
		m.metrics.IncNotificationsTotal("failed")
		return
	}
	m.metrics.IncNotificationsTotal("sent")
}

func (m *Monitor) finish(cfg config.Settings, reason domain.StopReason) {
	m.mu.Lock()
	m.state = domain.StateIdle
	m.nextCheck = time.Time{}
	m.mu.Unlock()

	m.metrics.SetMonitorRunning(false)
	m.logger.Info("monitoring stopped",
		zap.String("city", cfg.City),
		zap.String("reason", string(reason)))
	m.notify(cfg, stoppedMessage(cfg, reason))
}

func (m *Monitor) recordReport(report domain.ScanReport) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCheck = report.CheckedAt
	m.lastReport = &report
}

func (m *Monitor) setCity(city string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.city = city
}

func (m *Monitor) setNextCheck(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCheck = t
}

func (m *Monitor) takeReason() domain.StopReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reason == "" {
		return domain.StopManual
	}
	return m.reason
}

func stopRequested(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
