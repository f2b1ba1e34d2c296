package entities

import "time"

// CacheStats represents cache statistics
type CacheStats struct {
	// Hits is the number of fresh lookups served from disk
	Hits int64 `json:"hits"`

	// Misses is the number of lookups that required a fetch
	Misses int64 `json:"misses"`

	// Fetches is the number of fetches actually performed
	Fetches int64 `json:"fetches"`

	// Evictions is the number of entries removed by sweeps
	Evictions int64 `json:"evictions"`

	// Entries is the current number of indexed assets
	Entries int `json:"entries"`

	// TotalBytes is the size of all cached files
	TotalBytes int64 `json:"total_bytes"`

	// Leased is the number of entries bound to in-progress compiles
	Leased int `json:"leased"`

	// HitRate is the percentage of cache hits
	HitRate float64 `json:"hit_rate"`
}

// CacheEntry is the metadata record for one cached asset
type CacheEntry struct {
	Key         string    `json:"key"`
	Source      string    `json:"source"`
	Path        string    `json:"path"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Fresh reports whether the entry is younger than ttl at now
func (e CacheEntry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// CachedAsset is what a cache lookup hands back
type CachedAsset struct {
	Entry     CacheEntry `json:"entry"`
	FromCache bool       `json:"from_cache"`
}

// Path returns the local file path of the asset
func (a CachedAsset) Path() string {
	return a.Entry.Path
}
