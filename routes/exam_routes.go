package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kipkoechg/theory_coach/handlers"
	"github.com/kipkoechg/theory_coach/middleware"
)

func ExamRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	admin := api.Group("/admin/exams", middleware.Protected(), middleware.AdminRequired())

	questions := admin.Group("/questions")
	questions.Post("", handlers.CreateQuestion)
	questions.Get("", handlers.ListQuestions)
	questions.Get("/:questionId", handlers.GetQuestion)
	questions.Put("/:questionId", handlers.UpdateQuestion)
	questions.Delete("/:questionId", handlers.DeleteQuestion)

	papers := admin.Group("/papers")
	papers.Post("", handlers.CreateExamPaper)
	papers.Get("", handlers.ListExamPapers)
	papers.Get("/:paperId", handlers.GetExamPaper)
	papers.Delete("/:paperId", handlers.DeleteExamPaper)

	rules := admin.Group("/rules")
	rules.Put("", handlers.UpsertExamRule)
	rules.Get("", handlers.ListExamRules)

	studentExams := api.Group("/exams", middleware.Protected())
	studentExams.Get("/papers", handlers.ListExamPapers)
	studentExams.Post("/papers/:paperId/start", handlers.StartExamSession)
	studentExams.Get("/sessions/:sessionId/questions", handlers.GetSessionQuestions)
	studentExams.Post("/sessions/:sessionId/answers", handlers.AnswerSessionQuestion)
	studentExams.Post("/sessions/:sessionId/submit", handlers.SubmitExamSession)
}
