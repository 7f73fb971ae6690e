package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kipkoechg/theory_coach/middleware"
	"github.com/kipkoechg/theory_coach/services"
)

func progressQueryFromRequest(c *fiber.Ctx) (services.ProgressQuery, error) {
	startAt, err := parseTimeParam(c.Query("start"))
	if err != nil {
		return services.ProgressQuery{}, fiber.NewError(fiber.StatusBadRequest, "Invalid start date")
	}
	endAt, err := parseTimeParam(c.Query("end"))
	if err != nil {
		return services.ProgressQuery{}, fiber.NewError(fiber.StatusBadRequest, "Invalid end date")
	}
	return services.ProgressQuery{
		State:   c.Query("state"),
		Topic:   c.Query("topic"),
		StartAt: startAt,
		EndAt:   endAt,
	}, nil
}

func GetProgressSummary(c *fiber.Ctx) error {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		return err
	}
	query, err := progressQueryFromRequest(c)
	if err != nil {
		return err
	}

	summary, err := services.GetProgressSummary(studentID, studentID, query)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{
		"state":      summary.State,
		"total":      summary.Total,
		"done":       summary.Done,
		"correct":    summary.Correct,
		"wrong":      summary.Wrong,
		"pending":    summary.Pending,
		"last_score": summary.LastScore,
	})
}

func GetProgressTrend(c *fiber.Ctx) error {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		return err
	}
	query, err := progressQueryFromRequest(c)
	if err != nil {
		return err
	}

	trend, err := services.GetProgressTrend(studentID, studentID, query)
	if err != nil {
		return serviceError(c, err)
	}

	points := make([]fiber.Map, len(trend))
	for i, point := range trend {
		points[i] = fiber.Map{
			"day":       point.Day.Format("2006-01-02"),
			"attempted": point.Attempted,
			"correct":   point.Correct,
			"accuracy":  point.Accuracy,
		}
	}
	return c.JSON(points)
}

func ExportProgress(c *fiber.Ctx) error {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		return err
	}
	query, err := progressQueryFromRequest(c)
	if err != nil {
		return err
	}

	csvBody, err := services.ExportProgressCSV(studentID, studentID, query)
	if err != nil {
		return serviceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="progress.csv"`)
	return c.SendString(csvBody)
}

type PracticeAttemptRequest struct {
	QuestionID       string `json:"question_id" validate:"required"`
	ChosenOption     string `json:"chosen_option" validate:"required,oneof=A B C D"`
	TimeSpentSeconds int    `json:"time_spent_seconds" validate:"gte=0"`
}

func RecordPracticeAttempt(c *fiber.Ctx) error {
	studentID, err := middleware.StudentID(c)
	if err != nil {
		return err
	}

	var req PracticeAttemptRequest
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

	attempt, err := services.RecordPracticeAttempt(studentID, questionID, req.ChosenOption, req.TimeSpentSeconds)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(attempt)
}

func ListQuestionBank(c *fiber.Ctx) error {
	if _, err := middleware.StudentID(c); err != nil {
		return err
	}

	questions, err := services.ResolveQuestions(c.Query("state"), c.Query("language"))
	if err != nil {
		return serviceError(c, err)
	}

	items := make([]QuestionForStudent, len(questions))
	for i, question := range questions {
		items[i] = QuestionForStudent{
			ID:       question.ID,
			QID:      question.QID,
			Prompt:   question.Prompt,
			Topic:    question.Topic,
			OptionA:  question.OptionA,
			OptionB:  question.OptionB,
			OptionC:  question.OptionC,
			OptionD:  question.OptionD,
			ImageURL: question.ImageURL,
		}
	}
	return c.JSON(items)
}
