package domain

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// CanReview reports whether the role may author missions and review submissions.
func (r Role) CanReview() bool {
	return r == RoleTeacher || r == RoleAdmin
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// MissionCategories lists the accepted mission categories.
var MissionCategories = []string{
	"environment", "coding", "math", "science", "language", "creative", "recycling", "energy",
}

// QuizCategories lists the accepted quiz categories.
var QuizCategories = []string{
	"math", "science", "coding", "general", "language", "environment",
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func ValidMissionCategory(c string) bool { return contains(MissionCategories, c) }

func ValidQuizCategory(c string) bool { return contains(QuizCategories, c) }

type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
)

// Terminal reports whether no further transition is allowed out of the status.
func (s SubmissionStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s SubmissionStatus) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// User is the stored account. PasswordHash never leaves the service boundary.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Avatar       string    `json:"avatar"`
	Points       int       `json:"points"`
	Level        int       `json:"level"`
	LastActive   time.Time `json:"lastActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Progress is a user's score after a point-changing write.
type Progress struct {
	UserID string `json:"userId"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
}

type Mission struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Instructions string       `json:"instructions"`
	Points       int          `json:"points"`
	Difficulty   Difficulty   `json:"difficulty"`
	Category     string       `json:"category"`
	Deadline     *time.Time   `json:"deadline,omitempty"`
	IsActive     bool         `json:"isActive"`
	MaxAttempts  int          `json:"maxAttempts"`
	CreatedBy    string       `json:"-"`
	Creator      *UserSummary `json:"createdBy,omitempty"`
	Submissions  []Submission `json:"submissions,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

type Submission struct {
	ID            string           `json:"id"`
	MissionID     string           `json:"missionId"`
	StudentID     string           `json:"-"`
	Student       *UserSummary     `json:"student,omitempty"`
	Body          string           `json:"submission"`
	FileURL       string           `json:"fileUrl,omitempty"`
	Status        SubmissionStatus `json:"status"`
	Feedback      string           `json:"feedback,omitempty"`
	PointsAwarded *int             `json:"pointsAwarded,omitempty"`
	SubmittedAt   time.Time        `json:"submittedAt"`
	ReviewedAt    *time.Time       `json:"reviewedAt,omitempty"`
	ReviewedBy    string           `json:"reviewedBy,omitempty"`
}

// StudentSubmission is the flattened view a student gets of their own submissions.
type StudentSubmission struct {
	MissionID     string           `json:"missionId"`
	MissionTitle  string           `json:"missionTitle"`
	MissionPoints int              `json:"missionPoints"`
	SubmissionID  string           `json:"submissionId"`
	Submission    string           `json:"submission"`
	FileURL       string           `json:"fileUrl,omitempty"`
	Status        SubmissionStatus `json:"status"`
	Feedback      string           `json:"feedback,omitempty"`
	PointsAwarded *int             `json:"pointsAwarded,omitempty"`
	SubmittedAt   time.Time        `json:"submittedAt"`
}

// Review moves a pending submission to a terminal status.
type Review struct {
	MissionID    string
	SubmissionID string
	ReviewerID   string
	Decision     SubmissionStatus
	Feedback     string
	At           time.Time
}

// ReviewOutcome is the state after a review was applied.
type ReviewOutcome struct {
	Submission    Submission
	PointsAwarded int
	Student       Progress
}

type MissionFilter struct {
	Category   string
	Difficulty Difficulty
	Page       Page
}

// CompletedMission is the populated form of a user's completed mission reference.
type CompletedMission struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Points      int       `json:"points"`
	Category    string    `json:"category"`
	CompletedAt time.Time `json:"completedAt"`
}

type Reward struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Icon           string    `json:"icon"`
	PointsRequired int       `json:"pointsRequired"`
	Category       string    `json:"category"`
	Rarity         string    `json:"rarity"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Profile is a user with their history populated.
type Profile struct {
	User
	CompletedMissions []CompletedMission `json:"completedMissions"`
	CompletedQuizzes  []QuizCompletion   `json:"completedQuizzes"`
	Badges            []Reward           `json:"badges"`
}

// LeaderboardEntry is a snapshot-friendly view of a ranked user.
type LeaderboardEntry struct {
	UserID string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Level  int    `json:"level"`
	Avatar string `json:"avatar"`
}

// Leaderboard captures the ordered ranking at a point in time.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"leaders"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// PlatformStats are aggregate counters over the whole platform.
type PlatformStats struct {
	MissionsCompleted int `json:"missionsCompleted"`
	TotalMissions     int `json:"totalMissions"`
	ActiveMissions    int `json:"activeMissions"`
	TotalQuizzes      int `json:"totalQuizzes"`
	QuizzesCompleted  int `json:"quizzesCompleted"`
	TotalUsers        int `json:"totalUsers"`
	StudentsEngaged   int `json:"studentsEngaged"`
	XPEarned          int `json:"xpEarned"`
}
