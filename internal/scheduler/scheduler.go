// Package scheduler drives the unattended posting loop.
package scheduler

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/postforge/internal/core/content"
	"github.com/example/postforge/internal/ports/primary"
)

// Scheduler publishes one post per interval, picking a random topic from the
// pool. The first post fires immediately on Run; an hourly heartbeat confirms
// the loop is alive between posts.
type Scheduler struct {
	service      primary.ContentService
	topics       []string
	interval     time.Duration
	maxAttempts  int
	attemptPause time.Duration
	log          *logrus.Entry
	randIntn     func(n int) int
}

// Config carries the scheduler settings.
type Config struct {
	Topics      []string
	Interval    time.Duration
	MaxAttempts int
	Logger      *logrus.Entry
}

// New creates a scheduler for the given service.
func New(service primary.ContentService, cfg Config) *Scheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 8 * time.Hour
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	log := cfg.Logger
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = logrus.NewEntry(discard)
	}
	return &Scheduler{
		service:      service,
		topics:       cfg.Topics,
		interval:     interval,
		maxAttempts:  maxAttempts,
		attemptPause: 5 * time.Second,
		log:          log,
		randIntn:     rand.Intn,
	}
}

// Run blocks until ctx is cancelled, publishing on every tick. The first
// post fires immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.WithFields(logrus.Fields{
		"interval": s.interval.String(),
		"topics":   len(s.topics),
	}).Info("scheduler started")

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	heartbeat := time.NewTicker(time.Hour)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return ctx.Err()
		case <-heartbeat.C:
			s.log.Info("scheduler alive")
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick attempts one publication, switching topics between attempts so a
// duplicate or failed idea does not burn the whole tick.
func (s *Scheduler) tick(ctx context.Context) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		topic := s.pickTopic()
		log := s.log.WithFields(logrus.Fields{
			"attempt": attempt,
			"topic":   topic,
		})

		resp, err := s.service.ProducePost(ctx, primary.ProducePostRequest{TopicHint: topic})
		if err == nil {
			log.WithField("record_id", resp.RecordID).Info("post published")
			return
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		var dup *content.DuplicateContentError
		if errors.As(err, &dup) {
			log.Warn("all generated ideas were duplicates, switching topic")
		} else {
			log.WithError(err).Error("publication attempt failed")
		}

		if attempt < s.maxAttempts {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.attemptPause):
			}
		}
	}
	s.log.Error("all publication attempts failed this tick")
}

func (s *Scheduler) pickTopic() string {
	if len(s.topics) == 0 {
		return ""
	}
	return s.topics[s.randIntn(len(s.topics))]
}
