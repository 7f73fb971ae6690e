package jobs

import (
	"log"

	"github.com/kipkoechg/theory_coach/database"
	"github.com/kipkoechg/theory_coach/models"
	"github.com/kipkoechg/theory_coach/services"
)

// SweepExpiredSessions finalizes ongoing sessions whose time limit has
// passed. Expiry is still absorbed lazily on access; the sweep only keeps
// old rows from sitting in the ongoing state when a student never returns.
func SweepExpiredSessions() {
	log.Println("Running job: SweepExpiredSessions...")

	var stale []models.ExamSession
	err := database.DB.
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", models.SessionOngoing, services.Now()).
		Find(&stale).Error
	if err != nil {
		log.Printf("Error finding expired sessions: %v", err)
		return
	}

	if len(stale) == 0 {
		log.Println("No expired sessions found.")
		return
	}

	closed := 0
	for i := range stale {
		if _, err := services.EnsureSessionActive(&stale[i]); err != nil {
			log.Printf("Error finalizing expired session %s: %v", stale[i].ID, err)
			continue
		}
		closed++
	}

	log.Printf("Closed %d expired session(s).", closed)
}
