package maintenance

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/pkg/log"
)

// Scheduler runs FullMaintenance over a fixed set of datasets on a
// cron schedule, the way cc-backend's task manager registers its
// periodic services — here with robfig/cron/v3 driving the ticks
// instead of gocron, since this repo has no other use for gocron's
// richer job-chaining API.
type Scheduler struct {
	cron *cron.Cron

	mu      sync.Mutex
	reports map[string]Report
}

// NewScheduler builds a Scheduler; call Start to begin running sweeps.
func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		reports: make(map[string]Report),
	}
}

// Register adds a sweep over every dataset in datasets on spec (a
// standard 5-field cron expression), running FullMaintenance and
// keeping its Report for LastReport. Returns the cron.EntryID so a
// caller can Remove it later.
func (s *Scheduler) Register(spec string, datasets []dataset.Maintainable) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, func() { s.sweep(datasets) })
}

func (s *Scheduler) sweep(datasets []dataset.Maintainable) {
	for _, ds := range datasets {
		report, err := Run(ds, FullMaintenance())
		if err != nil {
			log.Errorf("maintenance sweep: %s: %v", ds.Name(), err)
			continue
		}
		s.mu.Lock()
		s.reports[ds.Name()] = report
		s.mu.Unlock()

		counts := report.Counts()
		if len(counts) == 0 || (len(counts) == 1 && counts["ok"] == len(report.Segments)) {
			continue
		}
		log.Infof("maintenance sweep: %s: %v", ds.Name(), counts)
	}
}

// LastReport returns the most recent Report recorded for name, if any.
func (s *Scheduler) LastReport(name string) (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[name]
	return r, ok
}

// Start begins running registered sweeps in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop cancels the scheduler and waits for any running sweep to finish.
func (s *Scheduler) Stop() { <-s.cron.Stop().Done() }
