package services_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/kipkoechg/theory_coach/database"
	"github.com/kipkoechg/theory_coach/models"
	"github.com/kipkoechg/theory_coach/services"
	"gorm.io/gorm"
)

var testDBCounter int64

// setupTestDB points the global connection at a fresh in-memory SQLite
// database with the production schema, partial indexes included.
func setupTestDB(t *testing.T) {
	t.Helper()

	name := fmt.Sprintf("file:servicetest%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	database.DB = db
	database.Migrate()

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
}

// testClock freezes the service time source; tests advance it explicitly.
type testClock struct {
	now time.Time
}

func installClock(t *testing.T, at time.Time) *testClock {
	t.Helper()
	clock := &testClock{now: at}
	restore := services.SetClock(func() time.Time { return clock.now })
	t.Cleanup(restore)
	return clock
}

func createStudent(t *testing.T, state, language string) models.Student {
	t.Helper()
	student := models.Student{
		FullName:          "Test Student",
		MobileNumber:      fmt.Sprintf("04%08d", atomic.AddInt64(&testDBCounter, 1)),
		State:             state,
		PreferredLanguage: language,
	}
	if err := database.DB.Create(&student).Error; err != nil {
		t.Fatalf("create student: %v", err)
	}
	return student
}

func createQuestion(t *testing.T, qid, scope, language, topic, correct string) models.Question {
	t.Helper()
	question := models.Question{
		QID:           qid,
		StateScope:    scope,
		Language:      language,
		Prompt:        "Prompt for " + qid,
		Topic:         topic,
		OptionA:       "A",
		OptionB:       "B",
		OptionC:       "C",
		OptionD:       "D",
		CorrectOption: correct,
	}
	if err := database.DB.Create(&question).Error; err != nil {
		t.Fatalf("create question %s: %v", qid, err)
	}
	return question
}

func createRule(t *testing.T, state string, total, passMark, limitMinutes int) {
	t.Helper()
	rule := models.ExamRule{
		State:            state,
		TotalQuestions:   total,
		PassMark:         passMark,
		TimeLimitMinutes: limitMinutes,
	}
	if err := database.DB.Where("state = ?", state).Delete(&models.ExamRule{}).Error; err != nil {
		t.Fatalf("clear rule %s: %v", state, err)
	}
	if err := database.DB.Create(&rule).Error; err != nil {
		t.Fatalf("create rule %s: %v", state, err)
	}
}

func createPaper(t *testing.T, state string, limitMinutes int, questions ...models.Question) models.ExamPaper {
	t.Helper()
	paper := models.ExamPaper{
		State:            state,
		Title:            state + " practice paper",
		TimeLimitMinutes: limitMinutes,
	}
	if err := database.DB.Create(&paper).Error; err != nil {
		t.Fatalf("create paper: %v", err)
	}
	for i, question := range questions {
		pq := models.ExamPaperQuestion{
			ExamPaperID: paper.ID,
			QuestionID:  question.ID,
			Position:    i + 1,
		}
		if err := database.DB.Create(&pq).Error; err != nil {
			t.Fatalf("create paper question %d: %v", i, err)
		}
	}
	return paper
}
