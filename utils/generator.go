package utils

import (
	"math/rand"
	"time"

	"github.com/kipkoechg/theory_coach/models"
	"gorm.io/gorm"
)

const qidLength = 8
const letterBytes = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateUniqueQID mints a business question id that no existing question
// uses, for imports that arrive without one.
func GenerateUniqueQID(tx *gorm.DB) (string, error) {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))

	for {
		b := make([]byte, qidLength)
		for i := range b {
			b[i] = letterBytes[seededRand.Intn(len(letterBytes))]
		}
		qid := "Q-" + string(b)

		var question models.Question
		err := tx.Where("qid = ?", qid).First(&question).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return qid, nil
			}
			return "", err
		}
	}
}
