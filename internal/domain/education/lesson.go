package education

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Lesson is a catalog entry. Locked when LevelRequired exceeds the user's level.
type Lesson struct {
	ID            string `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	Title         string `gorm:"column:title;not null" json:"title" yaml:"title"`
	Description   string `gorm:"column:description;not null;default:''" json:"description" yaml:"description"`
	Content       string `gorm:"column:content;type:text;not null;default:''" json:"content" yaml:"content"`
	LevelRequired int    `gorm:"column:level_required;not null;default:1" json:"level_required" yaml:"level_required"`
	XPReward      int64  `gorm:"column:xp_reward;not null;default:0" json:"xp_reward" yaml:"xp_reward"`
	Position      int    `gorm:"column:position;not null;default:0" json:"position" yaml:"position"`
}

func (Lesson) TableName() string { return "lessons" }

type QuizQuestion struct {
	ID            string                     `gorm:"primaryKey;size:64" json:"id" yaml:"id"`
	LessonID      string                     `gorm:"column:lesson_id;size:64;not null;index" json:"lesson_id" yaml:"lesson_id"`
	Question      string                     `gorm:"column:question;not null" json:"question" yaml:"question"`
	Options       datatypes.JSONSlice[string] `gorm:"column:options" json:"options" yaml:"options"`
	CorrectAnswer string                     `gorm:"column:correct_answer;not null" json:"-" yaml:"correct_answer"`
	Position      int                        `gorm:"column:position;not null;default:0" json:"position" yaml:"position"`
}

func (QuizQuestion) TableName() string { return "quiz_questions" }

type LessonProgress struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_lesson" json:"user_id"`
	LessonID    string     `gorm:"column:lesson_id;size:64;not null;uniqueIndex:idx_user_lesson" json:"lesson_id"`
	Completed   bool       `gorm:"column:completed;not null;default:false" json:"completed"`
	Score       int        `gorm:"column:score;not null;default:0" json:"score"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

func (p *LessonProgress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// LessonView is a lesson annotated for one user.
type LessonView struct {
	Lesson
	Locked    bool `json:"locked"`
	Completed bool `json:"completed"`
	Score     int  `json:"score"`
}
