package updatestate

import "fmt"

// ClampPercent bounds a reported completion percentage to [0, 100].
func ClampPercent(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// Normalized returns a copy of p with the percent clamped and, once the total
// is known, the transferred count capped at the total. Download engines report
// both slightly out of range around stream boundaries.
func (p Progress) Normalized() Progress {
	out := p
	out.Percent = ClampPercent(p.Percent)
	if out.Total > 0 && out.Transferred > out.Total {
		out.Transferred = out.Total
	}
	if out.Transferred < 0 {
		out.Transferred = 0
	}
	return out
}

// FormatBytes renders a byte count with binary units at one-decimal precision.
// Whole bytes carry no decimal: "512 B", "1.5 KB", "2.0 GB".
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for x := n / unit; x >= unit && exp < 2; x /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", float64(n)/float64(div), [...]string{"KB", "MB", "GB"}[exp])
}

// FormatProgress renders one progress report for logs and status lines.
func FormatProgress(p Progress) string {
	n := p.Normalized()
	if n.Total > 0 {
		return fmt.Sprintf("%.0f%% (%s / %s, %s/s)",
			n.Percent, FormatBytes(n.Transferred), FormatBytes(n.Total), FormatBytes(int64(n.BytesPerSecond)))
	}
	return fmt.Sprintf("%.0f%% (%s, %s/s)",
		n.Percent, FormatBytes(n.Transferred), FormatBytes(int64(n.BytesPerSecond)))
}
