// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"sweetshop/internal/model"
	"sweetshop/internal/store"
)

// Scheduler handles recurring maintenance tasks: pruning old event log
// entries and auditing low-stock inventory.
type Scheduler struct {
	db                *sql.DB
	cron              *cron.Cron
	logger            *slog.Logger
	retentionDays     int
	lowStockThreshold int64
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger, retentionDays int, lowStockThreshold int64) *Scheduler {
	return &Scheduler{
		db:                db,
		cron:              cron.New(),
		logger:            logger,
		retentionDays:     retentionDays,
		lowStockThreshold: lowStockThreshold,
	}
}

// Start registers the maintenance jobs and begins the scheduler.
// Events are pruned nightly at 03:00; stock is audited hourly.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.pruneEvents(); err != nil {
			s.logger.Error("failed to prune events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc("0 * * * *", func() {
		if err := s.auditStock(); err != nil {
			s.logger.Error("failed to audit stock", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// pruneEvents deletes event log entries older than the retention window.
func (s *Scheduler) pruneEvents() error {
	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	pruned, err := queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	if pruned > 0 {
		s.logger.Info("pruned old events", "count", pruned, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}

// auditStock records an event for each sweet at or below the low-stock threshold.
func (s *Scheduler) auditStock() error {
	ctx := context.Background()
	queries := store.New(s.db)

	sweets, err := queries.ListLowStockSweets(ctx, s.lowStockThreshold)
	if err != nil {
		return err
	}

	if len(sweets) == 0 {
		return nil
	}

	s.logger.Info("stock audit found low-stock sweets", "count", len(sweets))

	now := time.Now()
	for _, sweet := range sweets {
		metadata := map[string]interface{}{
			"sweet_id":  sweet.ID,
			"name":      sweet.Name,
			"quantity":  sweet.Quantity,
			"threshold": s.lowStockThreshold,
		}
		metadataJSON, _ := json.Marshal(metadata)

		_, err := queries.CreateEvent(ctx, store.CreateEventParams{
			Level:     model.EventLevelWarning,
			Category:  model.EventCategoryInventory,
			Message:   "Low stock detected by audit: " + sweet.Name,
			UserID:    sql.NullInt64{}, // System action, no user
			Metadata:  string(metadataJSON),
			CreatedAt: now,
		})
		if err != nil {
			s.logger.Warn("failed to log low stock event", "sweet_id", sweet.ID, "error", err)
		}
	}

	return nil
}
