package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kipkoechg/theory_coach/database"
	"github.com/kipkoechg/theory_coach/models"
	"github.com/kipkoechg/theory_coach/services"
)

func TestRecordPracticeAttemptCorrect(t *testing.T) {
	setupTestDB(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	installClock(t, now)
	student := createStudent(t, "NSW", "ENGLISH")
	question := createQuestion(t, "Q1", "NSW", "ENGLISH", "signs", "A")

	attempt, err := services.RecordPracticeAttempt(student.ID, question.ID, "a", 12)
	if err != nil {
		t.Fatalf("RecordPracticeAttempt: %v", err)
	}
	if !attempt.IsCorrect || attempt.ChosenOption != "A" {
		t.Errorf("expected normalized correct attempt, got %+v", attempt)
	}
	if !attempt.AttemptedAt.Equal(now) {
		t.Errorf("attempt should carry the service clock, got %v", attempt.AttemptedAt)
	}

	var entries int64
	database.DB.Model(&models.NotebookEntry{}).Where("student_id = ?", student.ID).Count(&entries)
	if entries != 0 {
		t.Errorf("a correct attempt must not touch the notebook, got %d entries", entries)
	}
}

func TestRecordPracticeAttemptMissIncrementsNotebook(t *testing.T) {
	setupTestDB(t)
	clock := installClock(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	student := createStudent(t, "NSW", "ENGLISH")
	question := createQuestion(t, "Q1", "NSW", "ENGLISH", "signs", "A")

	if _, err := services.RecordPracticeAttempt(student.ID, question.ID, "B", 5); err != nil {
		t.Fatalf("RecordPracticeAttempt: %v", err)
	}
	clock.now = clock.now.Add(time.Minute)
	if _, err := services.RecordPracticeAttempt(student.ID, question.ID, "C", 5); err != nil {
		t.Fatalf("RecordPracticeAttempt (second miss): %v", err)
	}

	var attempts int64
	database.DB.Model(&models.AttemptRecord{}).Where("student_id = ?", student.ID).Count(&attempts)
	if attempts != 2 {
		t.Errorf("the attempt log is append-only, expected 2 rows, got %d", attempts)
	}

	var entry models.NotebookEntry
	err := database.DB.First(&entry, "student_id = ? AND question_id = ?", student.ID, question.ID).Error
	if err != nil {
		t.Fatalf("load notebook entry: %v", err)
	}
	if entry.WrongCount != 2 {
		t.Errorf("expected wrong_count 2, got %d", entry.WrongCount)
	}
	if entry.LastWrongAt == nil || !entry.LastWrongAt.Equal(clock.now) {
		t.Errorf("last_wrong_at should track the latest miss, got %v", entry.LastWrongAt)
	}
}

func TestRecordPracticeAttemptRejections(t *testing.T) {
	setupTestDB(t)
	installClock(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	student := createStudent(t, "NSW", "ENGLISH")
	question := createQuestion(t, "Q1", "NSW", "ENGLISH", "signs", "A")

	if _, err := services.RecordPracticeAttempt(student.ID, question.ID, "Z", 5); !errors.Is(err, services.ErrValidation) {
		t.Errorf("bad option: expected ErrValidation, got %v", err)
	}
	if _, err := services.RecordPracticeAttempt(student.ID, uuid.New(), "A", 5); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("unknown question: expected ErrNotFound, got %v", err)
	}
	if _, err := services.RecordPracticeAttempt(uuid.New(), question.ID, "A", 5); !errors.Is(err, services.ErrNotFound) {
		t.Errorf("unknown student: expected ErrNotFound, got %v", err)
	}
}
