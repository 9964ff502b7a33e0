package finding

// MaxScore is the score of a session with no findings.
const MaxScore = 100

// Summary counts findings per severity.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total is the number of counted findings.
func (s Summary) Total() int {
	return s.Critical + s.High + s.Medium + s.Low
}

// Count returns the counter for sev.
func (s Summary) Count(sev Severity) int {
	switch sev {
	case SeverityCritical:
		return s.Critical
	case SeverityHigh:
		return s.High
	case SeverityMedium:
		return s.Medium
	case SeverityLow:
		return s.Low
	}
	return 0
}

// Buckets partitions findings by severity, each bucket in discovery order.
type Buckets struct {
	Critical []Finding
	High     []Finding
	Medium   []Finding
	Low      []Finding
}

// Get returns the bucket for sev.
func (b Buckets) Get(sev Severity) []Finding {
	switch sev {
	case SeverityCritical:
		return b.Critical
	case SeverityHigh:
		return b.High
	case SeverityMedium:
		return b.Medium
	case SeverityLow:
		return b.Low
	}
	return nil
}

// Score computes the security score of a session: 100 minus the weight of
// every finding, floored at 0.
func Score(s *Session) int {
	return ScoreFindings(s.Findings())
}

// ScoreFindings is Score over a plain finding list.
func ScoreFindings(findings []Finding) int {
	score := MaxScore
	for _, f := range findings {
		score -= f.Severity.Weight()
	}
	if score < 0 {
		return 0
	}
	return score
}

// BySeverity partitions the session's findings into four buckets.
func BySeverity(s *Session) Buckets {
	var b Buckets
	for _, f := range s.Findings() {
		switch f.Severity {
		case SeverityCritical:
			b.Critical = append(b.Critical, f)
		case SeverityHigh:
			b.High = append(b.High, f)
		case SeverityMedium:
			b.Medium = append(b.Medium, f)
		case SeverityLow:
			b.Low = append(b.Low, f)
		}
	}
	return b
}

// Summarize counts the session's findings per severity.
func Summarize(s *Session) Summary {
	return SummarizeFindings(s.Findings())
}

// SummarizeFindings is Summarize over a plain finding list.
func SummarizeFindings(findings []Finding) Summary {
	var sum Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			sum.Critical++
		case SeverityHigh:
			sum.High++
		case SeverityMedium:
			sum.Medium++
		case SeverityLow:
			sum.Low++
		}
	}
	return sum
}

// Worst returns the most severe finding severity, or false when there are none.
func Worst(findings []Finding) (Severity, bool) {
	var worst Severity
	for _, f := range findings {
		if !f.Severity.Valid() {
			continue
		}
		if worst == 0 || f.Severity < worst {
			worst = f.Severity
		}
	}
	return worst, worst != 0
}
