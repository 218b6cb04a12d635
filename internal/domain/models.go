package domain

import "time"

// Listing is one housing entry found on the search site for the target city.
// Listings carry no identity across scans; every scan starts from scratch.
type Listing struct {
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	City    string `json:"city"`
	Context string `json:"context,omitempty"` // surrounding card text, whitespace-normalized
	Page    int    `json:"page"`
}

// PageListings is the extraction result for a single search-results page.
// Total counts every listing candidate on the page, matched or not; the
// scan loop uses it to decide whether the page was the last one.
type PageListings struct {
	Listings []Listing
	Total    int
}

// ScanReport is the availability verdict for one full scan cycle.
type ScanReport struct {
	City      string    `json:"city"`
	Found     bool      `json:"found"`
	Listings  []Listing `json:"listings,omitempty"`
	Summary   string    `json:"summary"`
	Pages     int       `json:"pages_scanned"`
	CheckedAt time.Time `json:"checked_at"`
}

// MonitorState is the lifecycle state of the monitor loop. Transitions are
// owned exclusively by the loop; they are the only way scans start or stop.
type MonitorState int

const (
	StateIdle MonitorState = iota
	StateRunning
	StateStopping
)

func (s MonitorState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// MarshalText lets the state render as its name in JSON responses.
func (s MonitorState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StopReason distinguishes a user-requested stop from an unexpected one in
// the stopped notification.
type StopReason string

const (
	StopManual StopReason = "manual"
	StopFatal  StopReason = "fatal"
)

// Credentials identify the Telegram recipient for one notification. They are
// part of the per-cycle config snapshot, so a credential change takes effect
// on the next send without a restart.
type Credentials struct {
	BotToken string
	ChatID   string
}
