package dataset

import (
	"fmt"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Step names one of the segmenting granularities a local dataset can
// use to turn a reftime into a segment path (spec §4.5 config key
// "step"); ondisk2 and iseg both key their "one segment per time step"
// behavior off the same Step.
type Step string

const (
	StepYearly     Step = "yearly"
	StepMonthly    Step = "monthly"
	StepBiweekly   Step = "biweekly"
	StepWeekly     Step = "weekly"
	StepDaily      Step = "daily"
	StepSinglefile Step = "singlefile"
)

func ParseStep(s string) (Step, error) {
	switch Step(s) {
	case StepYearly, StepMonthly, StepBiweekly, StepWeekly, StepDaily, StepSinglefile:
		return Step(s), nil
	default:
		return "", arkierr.Consistency("unknown dataset step %q", s)
	}
}

// TargetRelpath maps a datum's reftime to the segment it belongs in,
// relative to the dataset root, with the given data format as the
// file extension (spec's on-disk layout "<dsroot>/<YYYY>/<MM-DD>.<format>"
// is the Daily case; monthly, biweekly and weekly keep the same
// <YYYY>/<bucket> shape, while yearly and singlefile write a file
// directly under the root).
func (s Step) TargetRelpath(t time.Time, format string) string {
	t = t.UTC()
	switch s {
	case StepYearly:
		return fmt.Sprintf("%04d.%s", t.Year(), format)
	case StepMonthly:
		return fmt.Sprintf("%04d/%02d.%s", t.Year(), t.Month(), format)
	case StepBiweekly:
		half := 1
		if t.Day() > 15 {
			half = 2
		}
		return fmt.Sprintf("%04d/%02d-%d.%s", t.Year(), t.Month(), half, format)
	case StepWeekly:
		_, week := t.ISOWeek()
		return fmt.Sprintf("%04d/w%02d.%s", t.Year(), week, format)
	case StepDaily:
		return fmt.Sprintf("%04d/%02d-%02d.%s", t.Year(), t.Month(), t.Day(), format)
	case StepSinglefile:
		return fmt.Sprintf("all.%s", format)
	default:
		return fmt.Sprintf("%04d/%02d-%02d.%s", t.Year(), t.Month(), t.Day(), format)
	}
}
