package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kipkoechg/theory_coach/database"
	"github.com/kipkoechg/theory_coach/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionStart reports the session a student should be working in and
// whether it was resumed rather than freshly created.
type SessionStart struct {
	Session models.ExamSession
	Resumed bool
}

// SessionSubmission is the outcome of submitting a session.
type SessionSubmission struct {
	Score    int
	Total    int
	PassMark int
	Passed   bool
}

// SessionQuestion pairs a paper question with the student's answer so far.
type SessionQuestion struct {
	Question models.Question
	Position int
	Answer   *models.ExamAnswer
}

// GetSession loads a session owned by the given student.
func GetSession(sessionID, studentID uuid.UUID) (*models.ExamSession, error) {
	var session models.ExamSession
	err := database.DB.First(&session, "id = ? AND student_id = ?", sessionID, studentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: exam session", ErrNotFound)
		}
		return nil, err
	}
	return &session, nil
}

// StartSession returns the student's ongoing session for the paper, or
// creates one. An ongoing session for a different paper is a conflict; an
// expired one is finalized as abandoned before a fresh session is opened.
// The partial unique index on ongoing sessions is the final authority: a
// concurrent start that loses the insert race surfaces as a conflict too.
func StartSession(studentID, paperID uuid.UUID) (SessionStart, error) {
	var student models.Student
	if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionStart{}, fmt.Errorf("%w: student", ErrNotFound)
		}
		return SessionStart{}, err
	}

	var paper models.ExamPaper
	err := database.DB.Preload("Questions.Question").First(&paper, "id = ?", paperID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionStart{}, fmt.Errorf("%w: exam paper", ErrNotFound)
		}
		return SessionStart{}, err
	}

	var existing models.ExamSession
	err = database.DB.
		Where("student_id = ? AND status = ?", studentID, models.SessionOngoing).
		Order("started_at desc").
		First(&existing).Error
	switch {
	case err == nil:
		if existing.ExamPaperID != paper.ID {
			return SessionStart{}, fmt.Errorf("%w: finish the current exam before starting a new one", ErrConflict)
		}
		session, err := EnsureSessionActive(&existing)
		if err != nil {
			return SessionStart{}, err
		}
		if session.Status == models.SessionOngoing {
			return SessionStart{Session: *session, Resumed: true}, nil
		}
		// Expired under the student's feet; fall through to a new session.
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return SessionStart{}, err
	}

	now := nowFunc()
	expiresAt := now.Add(time.Duration(paper.TimeLimitMinutes) * time.Minute)
	total := 0
	for _, pq := range paper.Questions {
		if pq.Question.StateScope == student.State || pq.Question.StateScope == models.ScopeAll {
			total++
		}
	}

	session := models.ExamSession{
		StudentID:   student.ID,
		State:       student.State,
		ExamPaperID: paper.ID,
		Status:      models.SessionOngoing,
		StartedAt:   now,
		ExpiresAt:   &expiresAt,
		Total:       &total,
	}
	if err := database.DB.Create(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return SessionStart{}, fmt.Errorf("%w: finish the current exam before starting a new one", ErrConflict)
		}
		return SessionStart{}, err
	}
	return SessionStart{Session: session, Resumed: false}, nil
}

// EnsureSessionActive absorbs the lazy expiry transition. Callers must use
// it before trusting a session's status; it finalizes an overdue ongoing
// session as abandoned, exactly once.
func EnsureSessionActive(session *models.ExamSession) (*models.ExamSession, error) {
	now := nowFunc()
	if session.Status == models.SessionOngoing && session.ExpiresAt != nil && !now.Before(*session.ExpiresAt) {
		if err := finalizeSessionAt(session, true, now); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// SessionQuestions returns the paper's questions in position order,
// restricted to the session's state scope, each paired with the answer
// recorded so far (if any).
func SessionQuestions(session *models.ExamSession) ([]SessionQuestion, error) {
	return sessionQuestionsIn(database.DB, session)
}

func sessionQuestionsIn(db *gorm.DB, session *models.ExamSession) ([]SessionQuestion, error) {
	var paperQuestions []models.ExamPaperQuestion
	err := db.
		Preload("Question").
		Where("exam_paper_id = ?", session.ExamPaperID).
		Order("position asc").
		Find(&paperQuestions).Error
	if err != nil {
		return nil, err
	}

	var answers []models.ExamAnswer
	if err := db.Where("session_id = ?", session.ID).Find(&answers).Error; err != nil {
		return nil, err
	}
	answerLookup := make(map[uuid.UUID]models.ExamAnswer, len(answers))
	for _, answer := range answers {
		answerLookup[answer.QuestionID] = answer
	}

	filtered := make([]SessionQuestion, 0, len(paperQuestions))
	for _, pq := range paperQuestions {
		if pq.Question.StateScope != session.State && pq.Question.StateScope != models.ScopeAll {
			continue
		}
		item := SessionQuestion{Question: pq.Question, Position: pq.Position}
		if answer, ok := answerLookup[pq.QuestionID]; ok {
			answer := answer
			item.Answer = &answer
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

// RecordAnswer upserts the student's answer for one paper question.
// Re-answering overwrites the previous row; the (session, question)
// uniqueness constraint plus ON CONFLICT make the overwrite atomic.
func RecordAnswer(session *models.ExamSession, questionID uuid.UUID, selectedOption string) (models.ExamAnswer, error) {
	if session.Status != models.SessionOngoing {
		return models.ExamAnswer{}, fmt.Errorf("%w: exam session is no longer ongoing", ErrConflict)
	}

	option := strings.ToUpper(strings.TrimSpace(selectedOption))
	if len(option) != 1 || option < "A" || option > "D" {
		return models.ExamAnswer{}, fmt.Errorf("%w: selected option must be one of A-D", ErrValidation)
	}

	var paperQuestion models.ExamPaperQuestion
	err := database.DB.
		Preload("Question").
		Where("exam_paper_id = ? AND question_id = ?", session.ExamPaperID, questionID).
		First(&paperQuestion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ExamAnswer{}, fmt.Errorf("%w: question is not part of this exam", ErrScope)
		}
		return models.ExamAnswer{}, err
	}

	now := nowFunc()
	answer := models.ExamAnswer{
		SessionID:      session.ID,
		QuestionID:     questionID,
		SelectedOption: option,
		IsCorrect:      option == paperQuestion.Question.CorrectOption,
		AnsweredAt:     now,
	}
	err = database.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "question_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"selected_option": answer.SelectedOption,
			"is_correct":      answer.IsCorrect,
			"answered_at":     now,
		}),
	}).Create(&answer).Error
	if err != nil {
		return models.ExamAnswer{}, err
	}

	// Reload into a fresh struct so the caller sees the surviving row.
	// Reusing answer would smuggle its discarded primary key into the
	// WHERE clause when the conflict-update path won.
	var saved models.ExamAnswer
	err = database.DB.
		Where("session_id = ? AND question_id = ?", session.ID, questionID).
		First(&saved).Error
	if err != nil {
		return models.ExamAnswer{}, err
	}
	return saved, nil
}

// FinalizeSession closes an ongoing session: it scores the paper in
// position order, stamps the terminal status (submitted, or abandoned when
// auto-expired), appends the historical score summary and feeds every miss
// into the notebook ledger. Terminal sessions are left untouched. All
// effects commit in one transaction.
func FinalizeSession(session *models.ExamSession, auto bool) error {
	return finalizeSessionAt(session, auto, nowFunc())
}

func finalizeSessionAt(session *models.ExamSession, auto bool, now time.Time) error {
	if session.Status != models.SessionOngoing {
		return nil
	}

	status := models.SessionSubmitted
	if auto {
		status = models.SessionAbandoned
	}
	score, total := 0, 0
	applied := false

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Score inside the transaction so an answer landing mid-finalize
		// cannot be dropped from the persisted result.
		questions, err := sessionQuestionsIn(tx, session)
		if err != nil {
			return err
		}
		var missed []models.Question
		for _, item := range questions {
			if item.Answer != nil && item.Answer.IsCorrect {
				score++
			} else {
				missed = append(missed, item.Question)
			}
		}
		total = len(questions)

		result := tx.Model(&models.ExamSession{}).
			Where("id = ? AND status = ?", session.ID, models.SessionOngoing).
			Updates(map[string]interface{}{
				"status":      status,
				"finished_at": now,
				"score":       score,
				"total":       total,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Another request finalized it first; leave their outcome be.
			return nil
		}
		applied = true

		summary := models.ExamSummary{
			StudentID: session.StudentID,
			State:     session.State,
			Score:     score,
			TakenAt:   now,
		}
		if err := tx.Create(&summary).Error; err != nil {
			return err
		}

		for _, question := range missed {
			entry := models.NotebookEntry{
				StudentID:   session.StudentID,
				QuestionID:  question.ID,
				State:       session.State,
				WrongCount:  1,
				LastWrongAt: &now,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "student_id"}, {Name: "question_id"}, {Name: "state"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"wrong_count":   gorm.Expr("notebook_entries.wrong_count + 1"),
					"last_wrong_at": now,
				}),
			}).Create(&entry).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if !applied {
		return database.DB.First(session, "id = ?", session.ID).Error
	}
	session.Status = status
	session.FinishedAt = &now
	session.Score = &score
	session.Total = &total
	return nil
}

// SubmitSession submits an exam. The expiry check runs first, so an
// overdue session lands as abandoned and can never pass regardless of
// score. Submitting an already-terminal session returns its frozen stats
// without recomputation.
func SubmitSession(session *models.ExamSession) (SessionSubmission, error) {
	if _, err := EnsureSessionActive(session); err != nil {
		return SessionSubmission{}, err
	}
	if session.Status == models.SessionOngoing {
		if err := FinalizeSession(session, false); err != nil {
			return SessionSubmission{}, err
		}
	}

	var rule models.ExamRule
	if err := database.DB.First(&rule, "state = ?", session.State).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SessionSubmission{}, fmt.Errorf("%w: no exam rule configured for state %q", ErrValidation, session.State)
		}
		return SessionSubmission{}, err
	}

	score, total := 0, 0
	if session.Score != nil {
		score = *session.Score
	}
	if session.Total != nil {
		total = *session.Total
	}
	return SessionSubmission{
		Score:    score,
		Total:    total,
		PassMark: rule.PassMark,
		Passed:   session.Status == models.SessionSubmitted && score >= rule.PassMark,
	}, nil
}
