// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package services

import (
	"context"
	"time"

	"github.com/tomtom215/shoprec/internal/logging"
	"github.com/tomtom215/shoprec/internal/metrics"
	"github.com/tomtom215/shoprec/internal/recommend"
)

// Trainer is the slice of the basket agent the retrainer needs.
type Trainer interface {
	Train(ctx context.Context) error
}

// RetrainService periodically rebuilds the association rule set so the
// basket agent tracks fresh purchase data.
type RetrainService struct {
	trainer  Trainer
	interval time.Duration
	// trainTimeout bounds one training run.
	trainTimeout time.Duration
}

// NewRetrainService creates a retrainer. interval must be positive; the
// caller decides whether to register the service at all when retraining is
// disabled.
func NewRetrainService(trainer Trainer, interval time.Duration) *RetrainService {
	return &RetrainService{
		trainer:      trainer,
		interval:     interval,
		trainTimeout: 10 * time.Minute,
	}
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.train(ctx)
		}
	}
}

func (s *RetrainService) train(ctx context.Context) {
	trainCtx, cancel := context.WithTimeout(ctx, s.trainTimeout)
	defer cancel()

	start := time.Now()
	err := s.trainer.Train(trainCtx)

	rules := 0
	if holder, ok := s.trainer.(interface{ RuleSet() *recommend.RuleSet }); ok {
		if rs := holder.RuleSet(); rs != nil {
			rules = len(rs.Rules)
		}
	}
	metrics.RecordBasketTraining(time.Since(start), rules, err)

	if err != nil {
		logging.Error().Err(err).Msg("Scheduled rule retraining failed")
		return
	}
	logging.Info().
		Dur("duration", time.Since(start)).
		Int("rules", rules).
		Msg("Scheduled rule retraining completed")
}

// String implements fmt.Stringer for supervisor log messages.
func (s *RetrainService) String() string {
	return "basket-retrainer"
}
