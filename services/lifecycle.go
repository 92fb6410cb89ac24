package services

import (
	"time"

	"tournament-funding-system/models"

	"gorm.io/gorm"
)

// transitionStatus is the single compare-and-commit primitive for lifecycle
// moves: the row is updated only if it still holds fromStatus, so a guard
// that no longer holds changes nothing. extra fields ride in the same UPDATE.
func transitionStatus(db *gorm.DB, tournamentID, fromStatus, toStatus string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": toStatus}
	for k, v := range extra {
		updates[k] = v
	}
	res := db.Model(&models.Tournament{}).
		Where("id = ? AND status = ?", tournamentID, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var t models.Tournament
		if err := db.First(&t, "id = ?", tournamentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return models.NewAppError(models.KindNotFound, "tournament %s not found", tournamentID)
			}
			return err
		}
		return models.NewAppError(models.KindInvalidTransition,
			"cannot move tournament from %s to %s (current status: %s)", fromStatus, toStatus, t.Status)
	}
	return nil
}

// failExpiredFunding flips a funding_open tournament past its deadline to
// funding_failed. Both the request path and the background sweep go through
// this one conditional update, so the flip happens at most once.
func failExpiredFunding(db *gorm.DB, tournamentID string, now time.Time) (bool, error) {
	res := db.Model(&models.Tournament{}).
		Where("id = ? AND status = ? AND funding_end_time IS NOT NULL AND funding_end_time < ?",
			tournamentID, models.StatusFundingOpen, now).
		Update("status", models.StatusFundingFailed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
