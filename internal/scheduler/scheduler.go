package scheduler

import (
	"github.com/robfig/cron/v3"

	"eduvoice-backend/internal/logger"
)

// Scheduler runs housekeeping jobs on cron schedules with seconds precision.
type Scheduler struct {
	cron *cron.Cron
	log  *logger.Logger
}

func New(log *logger.Logger) *Scheduler {
	cl := cronLogger{log: log}
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		log: log,
	}
}

// cronLogger routes the scheduler's own messages, including recovered job
// panics, through the service logger.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// Every registers fn under spec, e.g. "0 */5 * * * *".
func (s *Scheduler) Every(spec, name string, fn func()) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.log.Debug("cron job started", "job", name)
		fn()
	})
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("cron jobs started", "jobs", len(s.cron.Entries()))
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("cron jobs stopped")
}
