package postgres

import (
	"time"

	"gameed/internal/domain"
	"github.com/uptrace/bun"
)

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string `bun:"id,pk"`
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Avatar       string
	Points       int
	Level        int
	LastActive   time.Time
	CreatedAt    time.Time
}

func newUserModel(u domain.User) *userModel {
	return &userModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Avatar:       u.Avatar,
		Points:       u.Points,
		Level:        u.Level,
		LastActive:   u.LastActive,
		CreatedAt:    u.CreatedAt,
	}
}

func (m *userModel) domain() domain.User {
	return domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		Avatar:       m.Avatar,
		Points:       m.Points,
		Level:        m.Level,
		LastActive:   m.LastActive,
		CreatedAt:    m.CreatedAt,
	}
}

func (m *userModel) summary() *domain.UserSummary {
	if m == nil || m.ID == "" {
		return nil
	}
	return &domain.UserSummary{ID: m.ID, Name: m.Name, Email: m.Email}
}

type missionModel struct {
	bun.BaseModel `bun:"table:missions,alias:m"`

	ID           string `bun:"id,pk"`
	Title        string
	Description  string
	Instructions string
	Points       int
	Difficulty   string
	Category     string
	Deadline     *time.Time
	IsActive     bool
	MaxAttempts  int
	CreatedBy    string
	Creator      *userModel `bun:"rel:belongs-to,join:created_by=id"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func newMissionModel(m domain.Mission) *missionModel {
	return &missionModel{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Instructions: m.Instructions,
		Points:       m.Points,
		Difficulty:   string(m.Difficulty),
		Category:     m.Category,
		Deadline:     m.Deadline,
		IsActive:     m.IsActive,
		MaxAttempts:  m.MaxAttempts,
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (m *missionModel) domain() domain.Mission {
	return domain.Mission{
		ID:           m.ID,
		Title:        m.Title,
		Description:  m.Description,
		Instructions: m.Instructions,
		Points:       m.Points,
		Difficulty:   domain.Difficulty(m.Difficulty),
		Category:     m.Category,
		Deadline:     m.Deadline,
		IsActive:     m.IsActive,
		MaxAttempts:  m.MaxAttempts,
		CreatedBy:    m.CreatedBy,
		Creator:      m.Creator.summary(),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type submissionModel struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID            string `bun:"id,pk"`
	MissionID     string
	Mission       *missionModel `bun:"rel:belongs-to,join:mission_id=id"`
	StudentID     string
	Student       *userModel `bun:"rel:belongs-to,join:student_id=id"`
	Body          string
	FileURL       string `bun:"file_url"`
	Status        string
	Feedback      string
	PointsAwarded *int
	SubmittedAt   time.Time
	ReviewedAt    *time.Time
	ReviewedBy    *string
}

func newSubmissionModel(s domain.Submission) *submissionModel {
	return &submissionModel{
		ID:          s.ID,
		MissionID:   s.MissionID,
		StudentID:   s.StudentID,
		Body:        s.Body,
		FileURL:     s.FileURL,
		Status:      string(s.Status),
		Feedback:    s.Feedback,
		SubmittedAt: s.SubmittedAt,
	}
}

func (m *submissionModel) domain() domain.Submission {
	sub := domain.Submission{
		ID:            m.ID,
		MissionID:     m.MissionID,
		StudentID:     m.StudentID,
		Student:       m.Student.summary(),
		Body:          m.Body,
		FileURL:       m.FileURL,
		Status:        domain.SubmissionStatus(m.Status),
		Feedback:      m.Feedback,
		PointsAwarded: m.PointsAwarded,
		SubmittedAt:   m.SubmittedAt,
		ReviewedAt:    m.ReviewedAt,
	}
	if m.ReviewedBy != nil {
		sub.ReviewedBy = *m.ReviewedBy
	}
	return sub
}

type completedMissionModel struct {
	bun.BaseModel `bun:"table:user_completed_missions,alias:ucm"`

	UserID      string `bun:"user_id,pk"`
	MissionID   string `bun:"mission_id,pk"`
	CompletedAt time.Time
}

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID          string `bun:"id,pk"`
	Title       string
	Description string
	Questions   []domain.Question `bun:"questions,type:jsonb"`
	Category    string
	Difficulty  string
	TimeLimit   int
	TotalPoints int
	IsActive    bool
	CreatedBy   *string
	Creator     *userModel `bun:"rel:belongs-to,join:created_by=id"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newQuizModel(q domain.Quiz) *quizModel {
	m := &quizModel{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   q.Questions,
		Category:    q.Category,
		Difficulty:  string(q.Difficulty),
		TimeLimit:   q.TimeLimit,
		TotalPoints: q.TotalPoints,
		IsActive:    q.IsActive,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
	if q.CreatedBy != "" {
		createdBy := q.CreatedBy
		m.CreatedBy = &createdBy
	}
	return m
}

func (m *quizModel) domain() domain.Quiz {
	q := domain.Quiz{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Questions:   m.Questions,
		Category:    m.Category,
		Difficulty:  domain.Difficulty(m.Difficulty),
		TimeLimit:   m.TimeLimit,
		TotalPoints: m.TotalPoints,
		IsActive:    m.IsActive,
		Creator:     m.Creator.summary(),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.CreatedBy != nil {
		q.CreatedBy = *m.CreatedBy
	}
	if q.Questions == nil {
		q.Questions = []domain.Question{}
	}
	return q
}

type quizCompletionModel struct {
	bun.BaseModel `bun:"table:quiz_completions,alias:qc"`

	ID          int64 `bun:"id,pk,autoincrement"`
	UserID      string
	QuizID      string
	Score       int
	CompletedAt time.Time
}

type rewardModel struct {
	bun.BaseModel `bun:"table:rewards,alias:r"`

	ID             string `bun:"id,pk"`
	Name           string
	Description    string
	Icon           string
	PointsRequired int
	Category       string
	Rarity         string
	IsActive       bool
	CreatedAt      time.Time
}

func (m *rewardModel) domain() domain.Reward {
	return domain.Reward{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		Icon:           m.Icon,
		PointsRequired: m.PointsRequired,
		Category:       m.Category,
		Rarity:         m.Rarity,
		IsActive:       m.IsActive,
		CreatedAt:      m.CreatedAt,
	}
}
