// Package companion is the HTTP client for the companion AI service:
// directory caching, chat handles, and streaming turns (spec.md §4.6).
package companion

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rotoslider/choom-bridge/internal/config"
)

// Companion is one directory entry (spec.md §3).
type Companion struct {
	ID          string
	Name        string
	Description string
	VoiceID     string
	Model       string
	Endpoint    string
	ImageGen    map[string]any
}

// Client caches the companion directory, reuses per-companion chats, and
// streams turns over SSE.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	store      *config.Store

	directoryMu      sync.RWMutex
	directory        map[string]*Companion // keyed by lower(name)
	directoryByID    map[string]*Companion
	directoryFetched time.Time
	directoryTTL     time.Duration

	chatsMu sync.Mutex
	chats   map[string]string // companionID -> chatID

	activityMu sync.Mutex
	activity   map[string]time.Time // lower(name) -> last owner message time
}

// New creates a companion client pointed at baseURL.
func New(baseURL string, store *config.Store, log zerolog.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
		log:          log,
		store:        store,
		directory:    make(map[string]*Companion),
		directoryByID: make(map[string]*Companion),
		directoryTTL: 60 * time.Second,
		chats:        make(map[string]string),
		activity:     make(map[string]time.Time),
	}
}
