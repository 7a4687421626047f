package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gameed/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultMaxAttempts = 3

	DefaultApproveFeedback = "Great job! Mission approved."
	DefaultRejectFeedback  = "Please improve and resubmit."
)

type MissionInput struct {
	Title        string     `json:"title" validate:"required,max=100"`
	Description  string     `json:"description" validate:"required"`
	Instructions string     `json:"instructions" validate:"required"`
	Points       int        `json:"points" validate:"required,gt=0,lte=10000"`
	Difficulty   string     `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Category     string     `json:"category" validate:"required,oneof=environment coding math science language creative recycling energy"`
	Deadline     *time.Time `json:"deadline"`
	IsActive     *bool      `json:"isActive"`
	MaxAttempts  int        `json:"maxAttempts" validate:"omitempty,gte=1"`
}

type SubmissionInput struct {
	Submission string `json:"submission" validate:"required"`
	FileURL    string `json:"fileUrl"`
}

type MissionPage struct {
	Missions []domain.Mission `json:"missions"`
	Count    int              `json:"count"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
}

// MissionService runs the mission lifecycle: authoring, submission and review.
type MissionService struct {
	missions MissionRepository
	scorer   *Scorer
	now      func() time.Time
}

func NewMissionService(missions MissionRepository, scorer *Scorer) *MissionService {
	return &MissionService{missions: missions, scorer: scorer, now: time.Now}
}

func (s *MissionService) CreateMission(ctx context.Context, creator Identity, in MissionInput) (domain.Mission, error) {
	if !creator.Role.CanReview() {
		return domain.Mission{}, domain.ErrReviewersOnly
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in, "Please provide all required mission fields"); err != nil {
		return domain.Mission{}, err
	}

	now := s.now()
	mission := domain.Mission{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Instructions: in.Instructions,
		Points:       in.Points,
		Difficulty:   domain.Difficulty(in.Difficulty),
		Category:     in.Category,
		Deadline:     in.Deadline,
		IsActive:     true,
		MaxAttempts:  DefaultMaxAttempts,
		CreatedBy:    creator.UserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.IsActive != nil {
		mission.IsActive = *in.IsActive
	}
	if in.MaxAttempts > 0 {
		mission.MaxAttempts = in.MaxAttempts
	}
	if err := s.missions.CreateMission(ctx, mission); err != nil {
		return domain.Mission{}, fmt.Errorf("create mission: %w", err)
	}
	// Re-read so the creator reference comes back populated.
	return s.missions.MissionByID(ctx, mission.ID)
}

// ListMissions returns active missions, newest first.
func (s *MissionService) ListMissions(ctx context.Context, filter domain.MissionFilter) (MissionPage, error) {
	filter.Page = filter.Page.Normalize()
	missions, total, err := s.missions.ListMissions(ctx, filter)
	if err != nil {
		return MissionPage{}, err
	}
	if missions == nil {
		missions = []domain.Mission{}
	}
	return MissionPage{
		Missions: missions,
		Count:    len(missions),
		Total:    total,
		Page:     filter.Page.Number,
		Pages:    filter.Page.Pages(total),
	}, nil
}

// GetMission returns the mission and its submissions. Students only see their own.
func (s *MissionService) GetMission(ctx context.Context, caller Identity, id string) (domain.Mission, error) {
	mission, err := s.mission(ctx, id)
	if err != nil {
		return domain.Mission{}, err
	}
	submissions, err := s.missions.SubmissionsForMission(ctx, id, "")
	if err != nil {
		return domain.Mission{}, err
	}
	if !caller.Role.CanReview() {
		own := submissions[:0]
		for _, sub := range submissions {
			if sub.StudentID == caller.UserID {
				own = append(own, sub)
			}
		}
		submissions = own
	}
	mission.Submissions = submissions
	return mission, nil
}

func (s *MissionService) SubmitMission(ctx context.Context, student Identity, missionID string, in SubmissionInput) (domain.Submission, error) {
	mission, err := s.mission(ctx, missionID)
	if err != nil {
		return domain.Submission{}, err
	}
	if student.Role != domain.RoleStudent {
		return domain.Submission{}, domain.ErrStudentsOnly
	}
	submitted, err := s.missions.HasSubmitted(ctx, mission.ID, student.UserID)
	if err != nil {
		return domain.Submission{}, err
	}
	if submitted {
		return domain.Submission{}, domain.ErrAlreadySubmitted
	}
	if !mission.IsActive {
		return domain.Submission{}, domain.ErrMissionInactive
	}
	in.Submission = strings.TrimSpace(in.Submission)
	if err := validateInput(in, "Submission content is required"); err != nil {
		return domain.Submission{}, err
	}

	submission := domain.Submission{
		ID:          uuid.NewString(),
		MissionID:   mission.ID,
		StudentID:   student.UserID,
		Body:        in.Submission,
		FileURL:     strings.TrimSpace(in.FileURL),
		Status:      domain.StatusPending,
		SubmittedAt: s.now(),
	}
	// The store's (mission, student) uniqueness reports ErrAlreadySubmitted if a
	// concurrent request won the race after HasSubmitted.
	if err := s.missions.CreateSubmission(ctx, submission); err != nil {
		return domain.Submission{}, err
	}
	return submission, nil
}

func (s *MissionService) ApproveSubmission(ctx context.Context, reviewer Identity, missionID, submissionID, feedback string) (domain.ReviewOutcome, error) {
	return s.review(ctx, reviewer, missionID, submissionID, domain.StatusApproved, feedback, DefaultApproveFeedback)
}

func (s *MissionService) RejectSubmission(ctx context.Context, reviewer Identity, missionID, submissionID, feedback string) (domain.ReviewOutcome, error) {
	return s.review(ctx, reviewer, missionID, submissionID, domain.StatusRejected, feedback, DefaultRejectFeedback)
}

func (s *MissionService) review(ctx context.Context, reviewer Identity, missionID, submissionID string, decision domain.SubmissionStatus, feedback, fallback string) (domain.ReviewOutcome, error) {
	if !reviewer.Role.CanReview() {
		return domain.ReviewOutcome{}, domain.ErrReviewersOnly
	}
	if _, err := s.mission(ctx, missionID); err != nil {
		return domain.ReviewOutcome{}, err
	}
	if !validID(submissionID) {
		return domain.ReviewOutcome{}, domain.ErrSubmissionNotFound
	}
	feedback = strings.TrimSpace(feedback)
	if feedback == "" {
		feedback = fallback
	}
	return s.scorer.ApplyReview(ctx, domain.Review{
		MissionID:    missionID,
		SubmissionID: submissionID,
		ReviewerID:   reviewer.UserID,
		Decision:     decision,
		Feedback:     feedback,
		At:           s.now(),
	})
}

// MissionSubmissions is the review queue of one mission, optionally filtered by status.
func (s *MissionService) MissionSubmissions(ctx context.Context, reviewer Identity, missionID string, status domain.SubmissionStatus) ([]domain.Submission, error) {
	if !reviewer.Role.CanReview() {
		return nil, domain.ErrReviewersOnly
	}
	if status != "" && !status.Valid() {
		return nil, domain.ValidationFields("Invalid submission status", map[string]string{
			"status": "must be one of: pending, approved, rejected",
		})
	}
	if _, err := s.mission(ctx, missionID); err != nil {
		return nil, err
	}
	submissions, err := s.missions.SubmissionsForMission(ctx, missionID, status)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []domain.Submission{}
	}
	return submissions, nil
}

// MySubmissions lists the student's own submissions, newest first.
func (s *MissionService) MySubmissions(ctx context.Context, student Identity) ([]domain.StudentSubmission, error) {
	if student.Role != domain.RoleStudent {
		return nil, domain.ErrStudentsOnly
	}
	submissions, err := s.missions.SubmissionsByStudent(ctx, student.UserID)
	if err != nil {
		return nil, err
	}
	if submissions == nil {
		submissions = []domain.StudentSubmission{}
	}
	return submissions, nil
}

// DeleteMission removes the mission and its submissions. Points already granted are kept.
func (s *MissionService) DeleteMission(ctx context.Context, caller Identity, missionID string) error {
	mission, err := s.mission(ctx, missionID)
	if err != nil {
		return err
	}
	if caller.Role != domain.RoleAdmin && mission.CreatedBy != caller.UserID {
		return domain.ErrNotMissionOwner
	}
	return s.missions.DeleteMission(ctx, mission.ID)
}

func (s *MissionService) mission(ctx context.Context, id string) (domain.Mission, error) {
	if !validID(id) {
		return domain.Mission{}, domain.ErrMissionNotFound
	}
	return s.missions.MissionByID(ctx, id)
}
