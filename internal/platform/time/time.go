// Package time contains time related helpers
package time

import (
	"fmt"
	"math"
	"time"
)

// Human renders d as "12.3s", "4m 5.0s" or "1h 2m 3.0s"
func Human(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := d.Seconds()
	switch {
	case secs < 60:
		return fmt.Sprintf("%.1fs", secs)
	case secs < 3600:
		m := math.Floor(secs / 60)
		return fmt.Sprintf("%dm %.1fs", int(m), secs-m*60)
	default:
		h := math.Floor(secs / 3600)
		m := math.Floor((secs - h*3600) / 60)
		return fmt.Sprintf("%dh %dm %.1fs", int(h), int(m), secs-h*3600-m*60)
	}
}

