package services

import (
	"log"
	"time"

	"tournament-funding-system/models"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
)

// StartFundingSweeper runs a minutely job that fails funding_open
// tournaments whose deadline elapsed without the pool filling. The request
// path already does this check per call; the sweep catches tournaments
// nobody tries to invest in after the deadline.
func (s *FundingService) StartFundingSweeper() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	sched.Start()

	_, err = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()
			var expired []models.Tournament
			err := s.DB.Where("status = ? AND funding_end_time IS NOT NULL AND funding_end_time < ?",
				models.StatusFundingOpen, now).
				Find(&expired).Error
			if err != nil {
				log.Printf("[Sweeper] DB error: %v", err)
				return
			}

			for _, t := range expired {
				flipped, err := failExpiredFunding(s.DB, t.ID, now)
				if err != nil {
					log.Printf("[Sweeper] Failed to expire tournament %s: %v", t.ID, err)
					continue
				}
				if flipped {
					log.Printf("[Sweeper] Tournament %s funding failed at deadline (pool %s of %s)",
						t.ID, formatAmount(t.CurrentPoolAmount), formatAmount(t.TargetPoolAmount))
					s.Notifier.Notify(t.CreatorUserID, models.NotifyFundingFailed, fiber.Map{
						"tournament_id":   t.ID,
						"tournament_name": t.Name,
						"pool_amount":     t.CurrentPoolAmount,
					})
				}
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return sched, nil
}
