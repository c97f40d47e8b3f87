package stats

import "time"

// Outcome is the structured result of a single probe. IP and RTTMs carry
// values only when Success is true.
type Outcome struct {
	Address string  `json:"address"`
	Success bool    `json:"success"`
	IP      string  `json:"ip,omitempty"`
	RTTMs   float64 `json:"rtt_ms,omitempty"`
}

// ProxyStats is the accumulated health record for one proxy address.
//
// LastIP and RTTMs are set iff the most recent probe succeeded.
// Version counts successful persists; 0 means the record has never been
// written. The storage layer uses it for optimistic conflict detection.
type ProxyStats struct {
	Address string    `json:"address"`
	Passed  int64     `json:"passed"`
	Total   int64     `json:"total"`
	Percent float64   `json:"percent"`
	LastIP  *string   `json:"last_ip,omitempty"`
	RTTMs   *float64  `json:"rtt_ms,omitempty"`
	Updated time.Time `json:"updated"`
	Version int64     `json:"version"`
}

// New returns a fresh record for addr with zeroed counters.
func New(addr string) *ProxyStats {
	return &ProxyStats{Address: addr}
}

// Apply folds one probe outcome into the record: bumps counters, sets or
// clears the last-success fields, recomputes the percentage, and stamps
// Updated. It touches nothing but the record itself.
func Apply(rec *ProxyStats, out Outcome) {
	rec.Total++
	if out.Success {
		rec.Passed++
		ip, rtt := out.IP, out.RTTMs
		rec.LastIP = &ip
		rec.RTTMs = &rtt
	} else {
		rec.LastIP = nil
		rec.RTTMs = nil
	}
	rec.Percent = float64(rec.Passed) / float64(rec.Total) * 100.0
	rec.Updated = time.Now().UTC()
}

// PassRate returns passed/total as a percentage, 0 for an empty record.
func (p *ProxyStats) PassRate() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Passed) / float64(p.Total) * 100.0
}
