package services_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kipkoechg/theory_coach/models"
	"github.com/kipkoechg/theory_coach/services"
)

type progressFixture struct {
	student    models.Student
	q1, q2, q3 models.Question
}

// newProgressFixture seeds an NSW student with a three-question bank:
// two on signs (one state-specific), one on rules.
func newProgressFixture(t *testing.T) progressFixture {
	t.Helper()
	student := createStudent(t, "NSW", "ENGLISH")
	createRule(t, "NSW", 3, 2, 30)
	return progressFixture{
		student: student,
		q1:      createQuestion(t, "Q1", "ALL", "ENGLISH", "signs", "A"),
		q2:      createQuestion(t, "Q2", "ALL", "ENGLISH", "rules", "B"),
		q3:      createQuestion(t, "Q3", "NSW", "ENGLISH", "signs", "C"),
	}
}

func practiceAt(t *testing.T, clock *testClock, at time.Time, studentID, questionID uuid.UUID, option string) {
	t.Helper()
	clock.now = at
	if _, err := services.RecordPracticeAttempt(studentID, questionID, option, 10); err != nil {
		t.Fatalf("RecordPracticeAttempt: %v", err)
	}
}

func TestProgressSummaryCountsLatestAttempts(t *testing.T) {
	setupTestDB(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := installClock(t, base)
	fx := newProgressFixture(t)

	// Q1: miss, then a later correct attempt. Q2: one miss. Q3: untouched.
	practiceAt(t, clock, base, fx.student.ID, fx.q1.ID, "D")
	practiceAt(t, clock, base.Add(time.Hour), fx.student.ID, fx.q1.ID, "A")
	practiceAt(t, clock, base.Add(2*time.Hour), fx.student.ID, fx.q2.ID, "D")

	summary, err := services.GetProgressSummary(fx.student.ID, fx.student.ID, services.ProgressQuery{})
	if err != nil {
		t.Fatalf("GetProgressSummary: %v", err)
	}
	if summary.State != "NSW" {
		t.Errorf("state should default to the student's, got %s", summary.State)
	}
	if summary.Total != 3 || summary.Done != 2 || summary.Pending != 1 {
		t.Errorf("expected total=3 done=2 pending=1, got %+v", summary)
	}
	if summary.Correct != 1 {
		t.Errorf("only the latest attempt per qid counts, expected correct=1, got %d", summary.Correct)
	}
	if summary.Wrong != 2 {
		t.Errorf("the notebook ledger keeps historical misses, expected wrong=2, got %d", summary.Wrong)
	}
	if summary.LastScore != nil {
		t.Errorf("no exam taken yet, expected nil last score, got %v", summary.LastScore)
	}
}

func TestProgressSummaryUnionsFinalizedExamAnswers(t *testing.T) {
	setupTestDB(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := installClock(t, base)

	student := createStudent(t, "NSW", "ENGLISH")
	createRule(t, "NSW", 1, 1, 30)
	q1 := createQuestion(t, "Q1", "NSW", "ENGLISH", "signs", "A")
	paper := createPaper(t, "NSW", 30, q1)

	// A practice miss, then a correct answer inside a submitted exam.
	practiceAt(t, clock, base, student.ID, q1.ID, "B")

	clock.now = base.Add(time.Hour)
	start, err := services.StartSession(student.ID, paper.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	session := start.Session
	if _, err := services.RecordAnswer(&session, q1.ID, "A"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if _, err := services.SubmitSession(&session); err != nil {
		t.Fatalf("SubmitSession: %v", err)
	}

	summary, err := services.GetProgressSummary(student.ID, student.ID, services.ProgressQuery{})
	if err != nil {
		t.Fatalf("GetProgressSummary: %v", err)
	}
	if summary.Done != 1 || summary.Correct != 1 {
		t.Errorf("the newer exam answer should win the union, got %+v", summary)
	}
	if summary.LastScore == nil || *summary.LastScore != 1 {
		t.Errorf("expected last exam score 1, got %v", summary.LastScore)
	}
}

func TestProgressSummaryIgnoresOngoingExamAnswers(t *testing.T) {
	setupTestDB(t)
	installClock(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	student := createStudent(t, "NSW", "ENGLISH")
	createRule(t, "NSW", 1, 1, 30)
	q1 := createQuestion(t, "Q1", "NSW", "ENGLISH", "signs", "A")
	paper := createPaper(t, "NSW", 30, q1)

	start, err := services.StartSession(student.ID, paper.ID)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	session := start.Session
	if _, err := services.RecordAnswer(&session, q1.ID, "A"); err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}

	summary, err := services.GetProgressSummary(student.ID, student.ID, services.ProgressQuery{})
	if err != nil {
		t.Fatalf("GetProgressSummary: %v", err)
	}
	if summary.Done != 0 {
		t.Errorf("answers in an ongoing session must not count, got done=%d", summary.Done)
	}
}

func TestProgressSummaryTopicFilter(t *testing.T) {
	setupTestDB(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := installClock(t, base)
	fx := newProgressFixture(t)

	practiceAt(t, clock, base, fx.student.ID, fx.q1.ID, "A")
	practiceAt(t, clock, base.Add(time.Minute), fx.student.ID, fx.q2.ID, "D")

	summary, err := services.GetProgressSummary(fx.student.ID, fx.student.ID, services.ProgressQuery{Topic: "Signs"})
	if err != nil {
		t.Fatalf("GetProgressSummary: %v", err)
	}
	if summary.Total != 2 {
		t.Errorf("topic filter should keep Q1 and Q3, got total=%d", summary.Total)
	}
	if summary.Done != 1 || summary.Correct != 1 {
		t.Errorf("only Q1 is attempted under the topic, got %+v", summary)
	}
	if summary.Wrong != 0 {
		t.Errorf("the Q2 miss is outside the topic, got wrong=%d", summary.Wrong)
	}
}

func TestProgressSummaryDateFilter(t *testing.T) {
	setupTestDB(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := installClock(t, base)
	fx := newProgressFixture(t)

	practiceAt(t, clock, base, fx.student.ID, fx.q1.ID, "A")
	practiceAt(t, clock, base.AddDate(0, 0, 2), fx.student.ID, fx.q2.ID, "B")

	cutoff := base.AddDate(0, 0, 1)
	summary, err := services.GetProgressSummary(fx.student.ID, fx.student.ID, services.ProgressQuery{StartAt: &cutoff})
	if err != nil {
		t.Fatalf("GetProgressSummary: %v", err)
	}
	if summary.Done != 1 {
		t.Errorf("only the attempt after the cutoff should count, got done=%d", summary.Done)
	}
}

func TestProgressSummaryAccessDenied(t *testing.T) {
	setupTestDB(t)
	fx := newProgressFixture(t)
	other := createStudent(t, "NSW", "ENGLISH")

	_, err := services.GetProgressSummary(fx.student.ID, other.ID, services.ProgressQuery{})
	if !errors.Is(err, services.ErrScope) {
		t.Fatalf("expected ErrScope, got %v", err)
	}
}

func TestProgressSummaryMissingRule(t *testing.T) {
	setupTestDB(t)
	fx := newProgressFixture(t)

	_, err := services.GetProgressSummary(fx.student.ID, fx.student.ID, services.ProgressQuery{State: "WA"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation for an unconfigured state, got %v", err)
	}
}

func TestProgressTrendBucketsByDay(t *testing.T) {
	setupTestDB(t)
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC)
	clock := installClock(t, day1)
	fx := newProgressFixture(t)

	practiceAt(t, clock, day1, fx.student.ID, fx.q1.ID, "A")
	practiceAt(t, clock, day1.Add(time.Hour), fx.student.ID, fx.q2.ID, "D")
	practiceAt(t, clock, day2, fx.student.ID, fx.q3.ID, "C")

	trend, err := services.GetProgressTrend(fx.student.ID, fx.student.ID, services.ProgressQuery{})
	if err != nil {
		t.Fatalf("GetProgressTrend: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("expected 2 day buckets, got %d", len(trend))
	}
	if !trend[0].Day.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("buckets should be sorted ascending, first day %v", trend[0].Day)
	}
	if trend[0].Attempted != 2 || trend[0].Correct != 1 || trend[0].Accuracy != 50.0 {
		t.Errorf("day 1: expected 2 attempts, 1 correct, 50.0%%, got %+v", trend[0])
	}
	if trend[1].Attempted != 1 || trend[1].Correct != 1 || trend[1].Accuracy != 100.0 {
		t.Errorf("day 2: expected 1 attempt, 1 correct, 100.0%%, got %+v", trend[1])
	}
}

func TestProgressTrendEmptyScope(t *testing.T) {
	setupTestDB(t)
	student := createStudent(t, "NSW", "ENGLISH")
	createRule(t, "NSW", 3, 2, 30)

	trend, err := services.GetProgressTrend(student.ID, student.ID, services.ProgressQuery{})
	if err != nil {
		t.Fatalf("GetProgressTrend: %v", err)
	}
	if len(trend) != 0 {
		t.Errorf("an empty bank yields an empty trend, got %+v", trend)
	}
}

func TestExportProgressCSV(t *testing.T) {
	setupTestDB(t)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := installClock(t, base)
	fx := newProgressFixture(t)

	practiceAt(t, clock, base, fx.student.ID, fx.q1.ID, "A")
	practiceAt(t, clock, base.Add(time.Minute), fx.student.ID, fx.q2.ID, "D")

	out, err := services.ExportProgressCSV(fx.student.ID, fx.student.ID, services.ProgressQuery{})
	if err != nil {
		t.Fatalf("ExportProgressCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines:\n%s", len(lines), out)
	}
	if lines[0] != "qid,correctness,last_attempt_at" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "Q1,correct,") {
		t.Errorf("Q1 row: %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Q2,incorrect,") {
		t.Errorf("Q2 row: %q", lines[2])
	}
	if lines[3] != "Q3,pending," {
		t.Errorf("an untouched question exports as pending with no timestamp, got %q", lines[3])
	}
}
