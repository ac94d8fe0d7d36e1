package types

import "time"

const (
	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second

	// DefaultDebounce is the quiet period before a realtime event burst
	// triggers an authoritative reconciliation.
	DefaultDebounce = 300 * time.Millisecond

	// UserAgent is the user agent string
	UserAgent = "budgetboard-go/1.0.0"
)
