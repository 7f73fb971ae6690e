package database

import (
	"fmt"
	"log"

	config "github.com/kipkoechg/theory_coach/configs"
	"github.com/kipkoechg/theory_coach/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

func Migrate() {
	err := DB.AutoMigrate(
		&models.Student{},
		&models.Question{},
		&models.ExamRule{},
		&models.ExamPaper{},
		&models.ExamPaperQuestion{},
		&models.ExamSession{},
		&models.ExamAnswer{},
		&models.NotebookEntry{},
		&models.AttemptRecord{},
		&models.ExamSummary{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate database: %v", err)
	}

	// AutoMigrate cannot express a partial index, so the invariant that a
	// student has at most one ongoing session lives in raw SQL. Both
	// Postgres and SQLite understand this form.
	err = DB.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_exam_sessions_ongoing
		 ON exam_sessions(student_id) WHERE status = 'ongoing'`,
	).Error
	if err != nil {
		log.Fatalf("🔥 Failed to create ongoing-session index: %v", err)
	}

	fmt.Println("✅ Database migration successful")
}

// SeedExamRules installs the default per-state exam configuration on first
// boot. Existing rules are left untouched so operators can tune them.
func SeedExamRules() {
	defaults := []models.ExamRule{
		{State: "NSW", TotalQuestions: 45, PassMark: 41, TimeLimitMinutes: 45},
		{State: "VIC", TotalQuestions: 32, PassMark: 25, TimeLimitMinutes: 30},
		{State: "QLD", TotalQuestions: 30, PassMark: 27, TimeLimitMinutes: 30},
		{State: "WA", TotalQuestions: 30, PassMark: 24, TimeLimitMinutes: 30},
		{State: "SA", TotalQuestions: 50, PassMark: 40, TimeLimitMinutes: 45},
		{State: "TAS", TotalQuestions: 35, PassMark: 30, TimeLimitMinutes: 35},
		{State: "ACT", TotalQuestions: 45, PassMark: 41, TimeLimitMinutes: 45},
		{State: "NT", TotalQuestions: 30, PassMark: 24, TimeLimitMinutes: 30},
	}

	for _, rule := range defaults {
		var count int64
		if err := DB.Model(&models.ExamRule{}).Where("state = ?", rule.State).Count(&count).Error; err != nil {
			log.Fatalf("🔥 Failed to check exam rule for %s: %v", rule.State, err)
		}
		if count > 0 {
			continue
		}
		if err := DB.Create(&rule).Error; err != nil {
			log.Fatalf("🔥 Failed to seed exam rule for %s: %v", rule.State, err)
		}
	}

	log.Println("✅ Exam rules seeded successfully")
}
