package metadata

import "time"

// Statistics is a point-in-time copy of the cache counters plus the
// derived rates. Rates are percentages rounded to two decimal places
// and computed on read, never stored; both are 0 when the denominator
// is 0. JSON keys match the diagnostic snapshot the cache tool
// returns.
type Statistics struct {
	Hits                int64     `json:"hits"`
	Misses              int64     `json:"misses"`
	HitRate             float64   `json:"hit_rate"`
	RefreshCount        int64     `json:"refresh_count"`
	RefreshSuccessCount int64     `json:"refresh_success_count"`
	RefreshFailureCount int64     `json:"refresh_failure_count"`
	RefreshSuccessRate  float64   `json:"refresh_success_rate"`
	LastRefreshTime     time.Time `json:"last_refresh_time,omitzero"`
	LastHitTime         time.Time `json:"last_hit_time,omitzero"`
	LastMissTime        time.Time `json:"last_miss_time,omitzero"`
}

// percentage returns part/total as a percentage rounded to two
// decimals, or 0 when total is 0.
func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	scaled := float64(part) / float64(total) * 10000
	return float64(int64(scaled+0.5)) / 100
}
