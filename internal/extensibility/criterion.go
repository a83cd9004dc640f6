package extensibility

import (
	"log/slog"

	"github.com/comalice/hybridx"
)

// LoggingCriterion wraps a DecisionCriterion and logs whenever its choice
// changes. Repeated identical decisions are not logged.
type LoggingCriterion struct {
	inner hybridx.DecisionCriterion
	log   *slog.Logger
	last  *hybridx.MotionBehaviour
}

// NewLoggingCriterion creates a LoggingCriterion wrapping inner.
func NewLoggingCriterion(inner hybridx.DecisionCriterion, log *slog.Logger) *LoggingCriterion {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingCriterion{inner: inner, log: log}
}

// Next delegates to the inner criterion.
func (c *LoggingCriterion) Next(q hybridx.Query) *hybridx.MotionBehaviour {
	next := c.inner.Next(q)
	if next != c.last {
		from := "<nil>"
		if q.From != nil {
			from = q.From.Name()
		}
		choice := "none"
		if next != nil {
			choice = next.String()
		}
		c.log.Debug("decision changed", "from", from, "changed", q.Changed, "next", choice, "t", q.T)
		c.last = next
	}
	return next
}
