package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kipkoechg/theory_coach/database"
	"github.com/kipkoechg/theory_coach/middleware"
	"github.com/kipkoechg/theory_coach/models"
	"github.com/kipkoechg/theory_coach/services"
	"github.com/kipkoechg/theory_coach/utils"
	"gorm.io/gorm"
)

var validate = validator.New()

// serviceError maps the service error taxonomy onto HTTP statuses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrScope):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}

type QuestionRequest struct {
	QID           string `json:"qid"`
	StateScope    string `json:"state_scope"`
	Language      string `json:"language"`
	Prompt        string `json:"prompt" validate:"required"`
	Topic         string `json:"topic"`
	OptionA       string `json:"option_a" validate:"required"`
	OptionB       string `json:"option_b" validate:"required"`
	OptionC       string `json:"option_c" validate:"required"`
	OptionD       string `json:"option_d" validate:"required"`
	CorrectOption string `json:"correct_option" validate:"required,oneof=A B C D"`
	Explanation   string `json:"explanation"`
	ImageURL      string `json:"image_url"`
}

func CreateQuestion(c *fiber.Ctx) error {
	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	qid := strings.TrimSpace(req.QID)
	if qid == "" {
		generated, err := utils.GenerateUniqueQID(database.DB)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate question id"})
		}
		qid = generated
	}

	scope := strings.ToUpper(strings.TrimSpace(req.StateScope))
	if scope == "" {
		scope = models.ScopeAll
	}

	question := models.Question{
		QID:           qid,
		StateScope:    scope,
		Language:      services.NormalizeLanguage(req.Language),
		Prompt:        req.Prompt,
		Topic:         req.Topic,
		OptionA:       req.OptionA,
		OptionB:       req.OptionB,
		OptionC:       req.OptionC,
		OptionD:       req.OptionD,
		CorrectOption: req.CorrectOption,
		Explanation:   req.Explanation,
		ImageURL:      req.ImageURL,
	}
	if question.Topic == "" {
		question.Topic = "general"
	}

	if err := database.DB.Create(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "A question with this qid, scope and language already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create question"})
	}

	return c.Status(fiber.StatusCreated).JSON(question)
}

func ListQuestions(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Question{})
	if state := strings.ToUpper(strings.TrimSpace(c.Query("state"))); state != "" {
		query = query.Where("state_scope = ?", state)
	}
	if language := strings.TrimSpace(c.Query("language")); language != "" {
		query = query.Where("language = ?", services.NormalizeLanguage(language))
	}
	if topic := strings.TrimSpace(c.Query("topic")); topic != "" {
		query = query.Where("LOWER(topic) = ?", strings.ToLower(topic))
	}

	var questions []models.Question
	query.Order("qid asc").Find(&questions)
	return c.JSON(questions)
}

func GetQuestion(c *fiber.Ctx) error {
	questionID := c.Params("questionId")
	var question models.Question
	if err := database.DB.First(&question, "id = ?", questionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	return c.JSON(question)
}

func UpdateQuestion(c *fiber.Ctx) error {
	questionID := c.Params("questionId")
	var question models.Question
	if err := database.DB.First(&question, "id = ?", questionID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}

	var req QuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	question.Prompt = req.Prompt
	question.OptionA = req.OptionA
	question.OptionB = req.OptionB
	question.OptionC = req.OptionC
	question.OptionD = req.OptionD
	question.CorrectOption = req.CorrectOption
	question.Explanation = req.Explanation
	question.ImageURL = req.ImageURL
	if req.Topic != "" {
		question.Topic = req.Topic
	}
	database.DB.Save(&question)

	return c.JSON(question)
}

func DeleteQuestion(c *fiber.Ctx) error {
	questionID := c.Params("questionId")
	result := database.DB.Delete(&models.Question{}, "id = ?", questionID)

	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete question"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Question not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type ExamPaperRequest struct {
	State            string   `json:"state" validate:"required"`
	Title            string   `json:"title" validate:"required"`
	TimeLimitMinutes int      `json:"time_limit_minutes" validate:"required,gt=0"`
	QuestionIDs      []string `json:"question_ids" validate:"required,min=1"`
}

func CreateExamPaper(c *fiber.Ctx) error {
	var req ExamPaperRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var questions []models.Question
	if err := database.DB.Where("id IN ?", req.QuestionIDs).Find(&questions).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to find questions"})
	}
	if len(questions) != len(req.QuestionIDs) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "One or more provided question IDs are invalid"})
	}

	paper := models.ExamPaper{
		State:            strings.ToUpper(strings.TrimSpace(req.State)),
		Title:            req.Title,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&paper).Error; err != nil {
			return err
		}
		for i, rawID := range req.QuestionIDs {
			questionID, err := uuid.Parse(rawID)
			if err != nil {
				return err
			}
			pq := models.ExamPaperQuestion{
				ExamPaperID: paper.ID,
				QuestionID:  questionID,
				Position:    i + 1,
			}
			if err := tx.Create(&pq).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create exam paper"})
	}

	return c.Status(fiber.StatusCreated).JSON(paper)
}

func ListExamPapers(c *fiber.Ctx) error {
	query := database.DB.Model(&models.ExamPaper{})
	if state := strings.ToUpper(strings.TrimSpace(c.Query("state"))); state != "" {
		query = query.Where("state = ?", state)
	}
	var papers []models.ExamPaper
	query.Order("title asc").Find(&papers)
	return c.JSON(papers)
}

func GetExamPaper(c *fiber.Ctx) error {
	paperID := c.Params("paperId")
	var paper models.ExamPaper
	err := database.DB.Preload("Questions.Question").First(&paper, "id = ?", paperID).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam paper not found"})
	}
	return c.JSON(paper)
}

func DeleteExamPaper(c *fiber.Ctx) error {
	paperID := c.Params("paperId")

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var paper models.ExamPaper
		if err := tx.First(&paper, "id = ?", paperID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.ExamPaperQuestion{}, "exam_paper_id = ?", paper.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&paper).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Exam paper not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete exam paper"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type ExamRuleRequest struct {
	State            string `json:"state" validate:"required"`
	TotalQuestions   int    `json:"total_questions" validate:"required,gt=0"`
	PassMark         int    `json:"pass_mark" validate:"required,gt=0"`
	TimeLimitMinutes int    `json:"time_limit_minutes" validate:"required,gt=0"`
}

func UpsertExamRule(c *fiber.Ctx) error {
	var req ExamRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	rule := models.ExamRule{
		State:            strings.ToUpper(strings.TrimSpace(req.State)),
		TotalQuestions:   req.TotalQuestions,
		PassMark:         req.PassMark,
		TimeLimitMinutes: req.TimeLimitMinutes,
	}
	if err := database.DB.Save(&rule).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save exam rule"})
	}
	return c.JSON(rule)
}

func ListExamRules(c *fiber.Ctx) error {
	var rules []models.ExamRule
	database.DB.Order("state asc").Find(&rules)
	return c.JSON(rules)
}

// QuestionForStudent strips grading fields from a question while the
// student is still inside an ongoing session.
type QuestionForStudent struct {
	ID       uuid.UUID `json:"id"`
	QID      string    `json:"qid"`
	Position int       `json:"position"`
	Prompt   string    `json:"prompt"`
	Topic    string    `json:"topic"`
	OptionA  string    `json:"option_a"`
	OptionB  string    `json:"option_b"`
	OptionC  string    `json:"option_c"`
	OptionD  string    `json:"option_d"`
	ImageURL string    `json:"image_url,omitempty"`
	Selected string    `json:"selected_option,omitempty"`
}

func StartExamSession(c *fiber.Ctx) error {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		return err
	}
	paperID, err := uuid.Parse(c.Params("paperId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid paper id"})
	}

	start, err := services.StartSession(studentID, paperID)
	if err != nil {
		return serviceError(c, err)
	}

	status := fiber.StatusCreated
	if start.Resumed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(fiber.Map{
		"session": start.Session,
		"resumed": start.Resumed,
	})
}

func GetSessionQuestions(c *fiber.Ctx) error {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := services.GetSession(sessionID, studentID)
	if err != nil {
		return serviceError(c, err)
	}
	if _, err := services.EnsureSessionActive(session); err != nil {
		return serviceError(c, err)
	}

	questions, err := services.SessionQuestions(session)
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]QuestionForStudent, len(questions))
	for i, item := range questions {
		items[i] = QuestionForStudent{
			ID:       item.Question.ID,
			QID:      item.Question.QID,
			Position: item.Position,
			Prompt:   item.Question.Prompt,
			Topic:    item.Question.Topic,
			OptionA:  item.Question.OptionA,
			OptionB:  item.Question.OptionB,
			OptionC:  item.Question.OptionC,
			OptionD:  item.Question.OptionD,
			ImageURL: item.Question.ImageURL,
		}
		if item.Answer != nil {
			items[i].Selected = item.Answer.SelectedOption
		}
	}

	return c.JSON(fiber.Map{
		"session":   session,
		"questions": items,
	})
}

type AnswerRequest struct {
	QuestionID     string `json:"question_id" validate:"required"`
	SelectedOption string `json:"selected_option" validate:"required,oneof=A B C D"`
}

func AnswerSessionQuestion(c *fiber.Ctx) error {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req AnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid question id"})
	}

	session, err := services.GetSession(sessionID, studentID)
	if err != nil {
		return serviceError(c, err)
	}
	if _, err := services.EnsureSessionActive(session); err != nil {
		return serviceError(c, err)
	}

	answer, err := services.RecordAnswer(session, questionID, req.SelectedOption)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(answer)
}

func SubmitExamSession(c *fiber.Ctx) error {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		return err
	}
	sessionID, err := uuid.Parse(c.Params("sessionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := services.GetSession(sessionID, studentID)
	if err != nil {
		return serviceError(c, err)
	}

	submission, err := services.SubmitSession(session)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":    session.Status,
		"score":     submission.Score,
		"total":     submission.Total,
		"pass_mark": submission.PassMark,
		"passed":    submission.Passed,
	})
}

// parseTimeParam accepts RFC3339 timestamps or plain dates.
func parseTimeParam(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
