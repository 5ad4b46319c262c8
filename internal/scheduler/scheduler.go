package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appanalysis "github.com/contentedge/insight/internal/application/analysis"
)

// Scheduler runs the periodic trend snapshot over recently stored analyses.
type Scheduler struct {
	cron       *cron.Cron
	svc        *appanalysis.Service
	windowDays int
	log        *zap.Logger
}

func New(svc *appanalysis.Service, schedule string, windowDays int, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(),
		svc:        svc,
		windowDays: windowDays,
		log:        log,
	}
	if _, err := s.cron.AddFunc(schedule, s.trendSnapshot); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// trendSnapshot logs the rolling window summary. Same aggregate as the
// /v1/trends endpoint; a failed run just logs and waits for the next tick.
func (s *Scheduler) trendSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := s.svc.Summary(ctx, s.windowDays)
	if err != nil {
		s.log.Error("trend snapshot failed", zap.Error(err))
		return
	}
	s.log.Info("trend snapshot",
		zap.Int("window_days", s.windowDays),
		zap.Int("total", stats.Total),
		zap.Float64("avg_score", stats.AvgScore),
		zap.String("top_tone", stats.TopTone),
	)
}
