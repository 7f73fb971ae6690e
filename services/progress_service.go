package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kipkoechg/theory_coach/database"
	"github.com/kipkoechg/theory_coach/models"
	"gorm.io/gorm"
)

// ProgressQuery narrows progress lookups. State defaults to the student's
// active state; Topic is a case-insensitive exact match; StartAt/EndAt
// bound the records considered.
type ProgressQuery struct {
	State   string
	Topic   string
	StartAt *time.Time
	EndAt   *time.Time
}

// ProgressSummary is the study snapshot for one student in one state.
type ProgressSummary struct {
	State     string
	Total     int
	Done      int
	Correct   int
	Wrong     int
	Pending   int
	LastScore *int
}

// ProgressTrendPoint is one day of attempt volume and accuracy.
type ProgressTrendPoint struct {
	Day       time.Time
	Attempted int
	Correct   int
	Accuracy  float64
}

// progressRecord is one attempt or finalized exam answer mapped back to
// its business question id.
type progressRecord struct {
	QID       string    `gorm:"column:qid"`
	IsCorrect bool      `gorm:"column:is_correct"`
	At        time.Time `gorm:"column:recorded_at"`
}

// GetProgressSummary computes completion metrics for a student. The
// denominator is the resolved question bank for the state (and topic);
// done/correct come from the latest practice attempt or finalized exam
// answer per qid; wrong is the notebook-ledger total, which is allowed to
// disagree with correct since it accumulates historical misses.
func GetProgressSummary(studentID, actingStudentID uuid.UUID, query ProgressQuery) (ProgressSummary, error) {
	student, state, err := resolveProgressScope(studentID, actingStudentID, query.State)
	if err != nil {
		return ProgressSummary{}, err
	}

	questions, err := questionsForScope(student, state, query.Topic)
	if err != nil {
		return ProgressSummary{}, err
	}
	qids := make([]string, 0, len(questions))
	for _, question := range questions {
		qids = append(qids, question.QID)
	}

	latest, err := latestRecordsByQID(studentID, state, qids, query.StartAt, query.EndAt)
	if err != nil {
		return ProgressSummary{}, err
	}

	total := len(qids)
	done := len(latest)
	correct := 0
	for _, record := range latest {
		if record.IsCorrect {
			correct++
		}
	}
	pending := total - done
	if pending < 0 {
		pending = 0
	}

	wrong, err := notebookWrongTotal(studentID, state, query)
	if err != nil {
		return ProgressSummary{}, err
	}

	lastScore, err := lastExamScore(studentID, state, query)
	if err != nil {
		return ProgressSummary{}, err
	}

	return ProgressSummary{
		State:     state,
		Total:     total,
		Done:      done,
		Correct:   correct,
		Wrong:     wrong,
		Pending:   pending,
		LastScore: lastScore,
	}, nil
}

// GetProgressTrend buckets the same scoped attempt/answer union by UTC
// calendar day. Accuracy is 0 for a day with no attempts.
func GetProgressTrend(studentID, actingStudentID uuid.UUID, query ProgressQuery) ([]ProgressTrendPoint, error) {
	student, state, err := resolveProgressScope(studentID, actingStudentID, query.State)
	if err != nil {
		return nil, err
	}

	questions, err := questionsForScope(student, state, query.Topic)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return []ProgressTrendPoint{}, nil
	}
	qids := make([]string, 0, len(questions))
	for _, question := range questions {
		qids = append(qids, question.QID)
	}

	records, err := scopedRecords(studentID, state, qids, query.StartAt, query.EndAt)
	if err != nil {
		return nil, err
	}

	buckets := make(map[time.Time]*ProgressTrendPoint)
	for _, record := range records {
		at := record.At.UTC()
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		point, ok := buckets[day]
		if !ok {
			point = &ProgressTrendPoint{Day: day}
			buckets[day] = point
		}
		point.Attempted++
		if record.IsCorrect {
			point.Correct++
		}
	}

	trend := make([]ProgressTrendPoint, 0, len(buckets))
	for _, point := range buckets {
		if point.Attempted > 0 {
			ratio := float64(point.Correct) / float64(point.Attempted) * 100
			point.Accuracy = math.Round(ratio*10) / 10
		}
		trend = append(trend, *point)
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Day.Before(trend[j].Day) })
	return trend, nil
}

// ExportProgressCSV renders the per-question progress for the selected
// state as CSV with columns qid, correctness, last_attempt_at.
func ExportProgressCSV(studentID, actingStudentID uuid.UUID, query ProgressQuery) (string, error) {
	student, state, err := resolveProgressScope(studentID, actingStudentID, query.State)
	if err != nil {
		return "", err
	}

	questions, err := questionsForScope(student, state, query.Topic)
	if err != nil {
		return "", err
	}
	qids := make([]string, 0, len(questions))
	for _, question := range questions {
		qids = append(qids, question.QID)
	}
	sort.Strings(qids)

	latest, err := latestRecordsByQID(studentID, state, qids, query.StartAt, query.EndAt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"qid", "correctness", "last_attempt_at"}); err != nil {
		return "", err
	}
	for _, qid := range qids {
		row := []string{qid, "pending", ""}
		if record, ok := latest[qid]; ok {
			row[1] = "incorrect"
			if record.IsCorrect {
				row[1] = "correct"
			}
			row[2] = record.At.UTC().Format(time.RFC3339)
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// resolveProgressScope enforces self-access, loads the student and
// validates that the resolved state has a configured exam rule.
func resolveProgressScope(studentID, actingStudentID uuid.UUID, state string) (models.Student, string, error) {
	if actingStudentID != uuid.Nil && actingStudentID != studentID {
		return models.Student{}, "", fmt.Errorf("%w: students may only view their own progress", ErrScope)
	}

	var student models.Student
	if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, "", fmt.Errorf("%w: student", ErrNotFound)
		}
		return models.Student{}, "", err
	}

	if state == "" {
		state = student.State
	}
	resolved, err := normalizeState(state)
	if err != nil {
		return models.Student{}, "", err
	}

	var rule models.ExamRule
	if err := database.DB.First(&rule, "state = ?", resolved).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, "", fmt.Errorf("%w: no exam rule configured for state %q", ErrValidation, resolved)
		}
		return models.Student{}, "", err
	}
	return student, resolved, nil
}

func questionsForScope(student models.Student, state, topic string) ([]models.Question, error) {
	questions, err := ResolveQuestions(state, student.PreferredLanguage)
	if err != nil {
		return nil, err
	}
	topicFilter := strings.ToLower(strings.TrimSpace(topic))
	if topicFilter == "" {
		return questions, nil
	}
	filtered := questions[:0]
	for _, question := range questions {
		if strings.ToLower(question.Topic) == topicFilter {
			filtered = append(filtered, question)
		}
	}
	return filtered, nil
}

// scopedRecords unions practice attempts with finalized exam answers,
// joined back to qid. Exam answer timestamps fall back to the owning
// session's finish time, then its start time.
func scopedRecords(studentID uuid.UUID, state string, qids []string, startAt, endAt *time.Time) ([]progressRecord, error) {
	if len(qids) == 0 {
		return nil, nil
	}

	var attempts []progressRecord
	attemptQuery := database.DB.Model(&models.AttemptRecord{}).
		Select("questions.qid AS qid, attempt_records.is_correct AS is_correct, attempt_records.attempted_at AS recorded_at").
		Joins("JOIN questions ON questions.id = attempt_records.question_id").
		Where("attempt_records.student_id = ? AND attempt_records.state = ?", studentID, state).
		Where("questions.qid IN ?", qids)
	if startAt != nil {
		attemptQuery = attemptQuery.Where("attempt_records.attempted_at >= ?", *startAt)
	}
	if endAt != nil {
		attemptQuery = attemptQuery.Where("attempt_records.attempted_at <= ?", *endAt)
	}
	if err := attemptQuery.Scan(&attempts).Error; err != nil {
		return nil, err
	}

	const answerTime = "COALESCE(exam_answers.answered_at, exam_sessions.finished_at, exam_sessions.started_at)"
	var answers []progressRecord
	answerQuery := database.DB.Model(&models.ExamAnswer{}).
		Select("questions.qid AS qid, exam_answers.is_correct AS is_correct, "+answerTime+" AS recorded_at").
		Joins("JOIN questions ON questions.id = exam_answers.question_id").
		Joins("JOIN exam_sessions ON exam_sessions.id = exam_answers.session_id").
		Where("exam_sessions.student_id = ? AND exam_sessions.state = ?", studentID, state).
		Where("exam_sessions.status <> ?", models.SessionOngoing).
		Where("questions.qid IN ?", qids)
	if startAt != nil {
		answerQuery = answerQuery.Where(answerTime+" >= ?", *startAt)
	}
	if endAt != nil {
		answerQuery = answerQuery.Where(answerTime+" <= ?", *endAt)
	}
	if err := answerQuery.Scan(&answers).Error; err != nil {
		return nil, err
	}

	return append(attempts, answers...), nil
}

func latestRecordsByQID(studentID uuid.UUID, state string, qids []string, startAt, endAt *time.Time) (map[string]progressRecord, error) {
	records, err := scopedRecords(studentID, state, qids, startAt, endAt)
	if err != nil {
		return nil, err
	}
	latest := make(map[string]progressRecord)
	for _, record := range records {
		current, ok := latest[record.QID]
		if !ok || record.At.After(current.At) {
			latest[record.QID] = record
		}
	}
	return latest, nil
}

func notebookWrongTotal(studentID uuid.UUID, state string, query ProgressQuery) (int, error) {
	wrongQuery := database.DB.Model(&models.NotebookEntry{}).
		Where("notebook_entries.student_id = ? AND notebook_entries.state = ?", studentID, state)
	topicFilter := strings.ToLower(strings.TrimSpace(query.Topic))
	if topicFilter != "" {
		wrongQuery = wrongQuery.
			Joins("JOIN questions ON questions.id = notebook_entries.question_id").
			Where("LOWER(questions.topic) = ?", topicFilter)
	}
	if query.StartAt != nil {
		wrongQuery = wrongQuery.Where("notebook_entries.last_wrong_at >= ?", *query.StartAt)
	}
	if query.EndAt != nil {
		wrongQuery = wrongQuery.Where("notebook_entries.last_wrong_at <= ?", *query.EndAt)
	}

	var wrong int
	err := wrongQuery.Select("COALESCE(SUM(notebook_entries.wrong_count), 0)").Scan(&wrong).Error
	if err != nil {
		return 0, err
	}
	return wrong, nil
}

func lastExamScore(studentID uuid.UUID, state string, query ProgressQuery) (*int, error) {
	summaryQuery := database.DB.
		Where("student_id = ? AND state = ?", studentID, state)
	if query.StartAt != nil {
		summaryQuery = summaryQuery.Where("taken_at >= ?", *query.StartAt)
	}
	if query.EndAt != nil {
		summaryQuery = summaryQuery.Where("taken_at <= ?", *query.EndAt)
	}

	var summary models.ExamSummary
	err := summaryQuery.Order("taken_at desc").First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	score := summary.Score
	return &score, nil
}
