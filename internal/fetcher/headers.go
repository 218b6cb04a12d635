package fetcher

import (
	"math/rand"
	"net/http"
	"sync"
)

// headerSet produces the browser-like request headers the listing site
// expects, rotating the user agent between requests.
type headerSet struct {
	mu         sync.Mutex
	userAgents []string
	index      int
}

func newHeaderSet() *headerSet {
	h := &headerSet{
		userAgents: []string{
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
			"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/107.0.0.0 Safari/537.36",
		},
	}
	h.index = rand.Intn(len(h.userAgents))
	return h
}

func (h *headerSet) apply(req *http.Request) {
	h.mu.Lock()
	ua := h.userAgents[h.index]
	h.index = (h.index + 1) % len(h.userAgents)
	h.mu.Unlock()

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en;q=0.8")
}
