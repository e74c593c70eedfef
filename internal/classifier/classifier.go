package classifier

import (
	"sort"

	"github.com/RabowNicholas/swna-automation/internal/textutil"
)

const (
	// DefaultThreshold is the minimum score for a classification to stand.
	DefaultThreshold = 0.9
	// DefaultPartialCeiling caps partial matches below a definite match.
	DefaultPartialCeiling = 0.75
)

// Status describes how a classification ended.
type Status string

const (
	StatusClassified Status = "classified"
	StatusUnknown    Status = "unknown"
	StatusAmbiguous  Status = "ambiguous"
)

// Result is the outcome of classifying one document. TypeID is empty unless
// Status is StatusClassified.
type Result struct {
	Status     Status  `json:"status"`
	TypeID     string  `json:"type_id,omitempty"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
	// Candidates holds every signature with a non-zero score, best first.
	Candidates []Match `json:"candidates,omitempty"`
	// Tied lists the type ids sharing the top score when Status is ambiguous.
	Tied []string `json:"tied,omitempty"`
}

// Options tune scoring.
type Options struct {
	Threshold      float64
	PartialCeiling float64
}

// Classifier scores text against a signature table. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	table     *Table
	threshold float64
	ceiling   float64
}

// New constructs a classifier over table. Zero options take defaults.
func New(table *Table, opts Options) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.PartialCeiling <= 0 || opts.PartialCeiling >= 1 {
		opts.PartialCeiling = DefaultPartialCeiling
	}
	return &Classifier{table: table, threshold: opts.Threshold, ceiling: opts.PartialCeiling}
}

// Table exposes the signature table in use.
func (c *Classifier) Table() *Table { return c.table }

// Threshold returns the acceptance threshold.
func (c *Classifier) Threshold() float64 { return c.threshold }

// Classify scores normalized document text against every signature.
func (c *Classifier) Classify(text string) Result {
	matchText := textutil.MatchingForm(text)
	if matchText == "" {
		return Result{Status: StatusUnknown}
	}

	var candidates []Match
	for _, sig := range c.table.signatures {
		m := sig.Score(matchText, c.ceiling)
		if m.Score > 0 {
			candidates = append(candidates, m)
		}
	}
	// Stable sort keeps table order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	result := Result{Status: StatusUnknown, Candidates: candidates}
	if len(candidates) == 0 {
		return result
	}
	best := candidates[0]
	result.Confidence = best.Score
	if best.Score < c.threshold {
		return result
	}

	for _, m := range candidates {
		if m.Score == best.Score {
			result.Tied = append(result.Tied, m.TypeID)
		}
	}
	if len(result.Tied) > 1 {
		result.Status = StatusAmbiguous
		return result
	}
	result.Tied = nil
	result.Status = StatusClassified
	result.TypeID = best.TypeID
	result.Label = best.Label
	return result
}
