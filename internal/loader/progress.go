package loader

import (
	"sync/atomic"

	"github.com/pgEdge/bikestore-loader/internal/logging"
)

// progress tracks rows loaded into one table across insert workers
// and logs whenever the count crosses a reporting interval.
type progress struct {
	table    string
	total    int64
	interval int64
	current  atomic.Int64
}

func newProgress(table string, total, interval int64) *progress {
	return &progress{
		table:    table,
		total:    total,
		interval: interval,
	}
}

// add records rows inserted by one batch and logs if the batch
// crossed a progress interval.
func (p *progress) add(rows int64) {
	if rows == 0 {
		return
	}
	current := p.current.Add(rows)
	if p.interval <= 0 {
		return
	}

	if current/p.interval > (current-rows)/p.interval {
		pct := float64(current) / float64(p.total) * 100
		logging.Info().
			Str("table", p.table).
			Int64("rows", current).
			Int64("total", p.total).
			Float64("percent", pct).
			Msg("Loading rows")
	}
}
