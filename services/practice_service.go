package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kipkoechg/theory_coach/database"
	"github.com/kipkoechg/theory_coach/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordPracticeAttempt appends one ad-hoc practice attempt to the log and,
// on a miss, bumps the student's notebook ledger for the question. Both
// writes commit together.
func RecordPracticeAttempt(studentID, questionID uuid.UUID, chosenOption string, timeSpentSeconds int) (models.AttemptRecord, error) {
	var student models.Student
	if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AttemptRecord{}, fmt.Errorf("%w: student", ErrNotFound)
		}
		return models.AttemptRecord{}, err
	}

	var question models.Question
	if err := database.DB.First(&question, "id = ?", questionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AttemptRecord{}, fmt.Errorf("%w: question", ErrNotFound)
		}
		return models.AttemptRecord{}, err
	}

	option := strings.ToUpper(strings.TrimSpace(chosenOption))
	if len(option) != 1 || option < "A" || option > "D" {
		return models.AttemptRecord{}, fmt.Errorf("%w: chosen option must be one of A-D", ErrValidation)
	}
	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}

	now := nowFunc()
	attempt := models.AttemptRecord{
		StudentID:        student.ID,
		QuestionID:       question.ID,
		State:            student.State,
		ChosenOption:     option,
		IsCorrect:        option == question.CorrectOption,
		TimeSpentSeconds: timeSpentSeconds,
		AttemptedAt:      now,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}
		if attempt.IsCorrect {
			return nil
		}
		entry := models.NotebookEntry{
			StudentID:   student.ID,
			QuestionID:  question.ID,
			State:       student.State,
			WrongCount:  1,
			LastWrongAt: &now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "question_id"}, {Name: "state"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"wrong_count":   gorm.Expr("notebook_entries.wrong_count + 1"),
				"last_wrong_at": now,
			}),
		}).Create(&entry).Error
	})
	if err != nil {
		return models.AttemptRecord{}, err
	}
	return attempt, nil
}
