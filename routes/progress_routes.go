package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/kipkoechg/theory_coach/handlers"
	"github.com/kipkoechg/theory_coach/middleware"
)

func ProgressRoutes(app *fiber.App) {
	api := app.Group("/api/v1", middleware.Protected())

	progress := api.Group("/progress")
	progress.Get("/summary", handlers.GetProgressSummary)
	progress.Get("/trend", handlers.GetProgressTrend)
	progress.Get("/export", handlers.ExportProgress)

	practice := api.Group("/practice")
	practice.Get("/questions", handlers.ListQuestionBank)
	practice.Post("/attempts", handlers.RecordPracticeAttempt)
}
