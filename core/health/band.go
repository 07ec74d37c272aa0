package health

// Band is the display bucket of a health score.
type Band string

const (
	BandCritical Band = "critical"
	BandWarning  Band = "warning"
	BandHealthy  Band = "healthy"
)

// BandOf buckets a score for display: critical under 40, warning under 70, healthy otherwise.
func BandOf(score int) Band {
	switch {
	case score < 40:
		return BandCritical
	case score < 70:
		return BandWarning
	}
	return BandHealthy
}
