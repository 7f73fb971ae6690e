package models

// ExamRule is the per-state exam configuration maintained by administrators.
type ExamRule struct {
	State            string `gorm:"size:10;primary_key"`
	TotalQuestions   int    `gorm:"not null"`
	PassMark         int    `gorm:"not null"`
	TimeLimitMinutes int    `gorm:"not null"`
}
