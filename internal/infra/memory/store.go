package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gameed/internal/domain"
)

// Store is an in-memory implementation of every app repository. A single mutex guards all
// state, so reviews and point awards are trivially atomic.
type Store struct {
	mu sync.RWMutex

	users  map[string]*userRecord
	emails map[string]string

	missions     map[string]domain.Mission
	missionOrder []string
	submissions  map[string]domain.Submission
	subOrder     []string

	quizzes   map[string]domain.Quiz
	quizOrder []string

	rewards []domain.Reward
}

type userRecord struct {
	user      domain.User
	completed []completedRef
	quizzes   []domain.QuizCompletion
}

type completedRef struct {
	missionID string
	at        time.Time
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]*userRecord),
		emails:      make(map[string]string),
		missions:    make(map[string]domain.Mission),
		submissions: make(map[string]domain.Submission),
		quizzes:     make(map[string]domain.Quiz),
	}
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.emails[user.Email]; ok {
		return domain.ErrEmailTaken
	}
	s.users[user.ID] = &userRecord{user: user}
	s.emails[user.Email] = user.ID
	return nil
}

func (s *Store) UserByID(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return rec.user, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return s.users[id].user, nil
}

func (s *Store) TouchLastActive(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	rec.user.LastActive = at
	return nil
}

func (s *Store) AwardPoints(_ context.Context, userID string, delta int) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return domain.Progress{}, domain.ErrUserNotFound
	}
	return rec.award(delta), nil
}

func (s *Store) RecordQuizCompletion(_ context.Context, userID string, completion domain.QuizCompletion) (domain.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return domain.Progress{}, domain.ErrUserNotFound
	}
	rec.quizzes = append(rec.quizzes, completion)
	return rec.award(completion.Score), nil
}

func (r *userRecord) award(delta int) domain.Progress {
	r.user.Points += delta
	r.user.Level = domain.LevelForPoints(r.user.Points)
	return domain.Progress{UserID: r.user.ID, Points: r.user.Points, Level: r.user.Level}
}

// TopUsers orders by points desc, ties broken by earliest registration.
func (s *Store) TopUsers(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	users := make([]domain.User, 0, len(s.users))
	for _, rec := range s.users {
		users = append(users, rec.user)
	}
	s.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].Points != users[j].Points {
			return users[i].Points > users[j].Points
		}
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].ID < users[j].ID
	})
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	entries := make([]domain.LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, domain.LeaderboardEntry{
			UserID: u.ID,
			Name:   u.Name,
			Points: u.Points,
			Level:  u.Level,
			Avatar: u.Avatar,
		})
	}
	return entries, nil
}

// CompletedMissions skips missions deleted since completion.
func (s *Store) CompletedMissions(_ context.Context, userID string) ([]domain.CompletedMission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := make([]domain.CompletedMission, 0, len(rec.completed))
	for _, ref := range rec.completed {
		m, ok := s.missions[ref.missionID]
		if !ok {
			continue
		}
		out = append(out, domain.CompletedMission{
			ID:          m.ID,
			Title:       m.Title,
			Points:      m.Points,
			Category:    m.Category,
			CompletedAt: ref.at,
		})
	}
	return out, nil
}

func (s *Store) CompletedQuizzes(_ context.Context, userID string) ([]domain.QuizCompletion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	out := make([]domain.QuizCompletion, 0, len(rec.quizzes))
	for _, c := range rec.quizzes {
		if q, ok := s.quizzes[c.QuizID]; ok {
			c.QuizTitle = q.Title
		}
		out = append(out, c)
	}
	return out, nil
}

// --- missions ---

func (s *Store) CreateMission(_ context.Context, mission domain.Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mission.Submissions = nil
	mission.Creator = nil
	s.missions[mission.ID] = mission
	s.missionOrder = append(s.missionOrder, mission.ID)
	return nil
}

func (s *Store) MissionByID(_ context.Context, id string) (domain.Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.missions[id]
	if !ok {
		return domain.Mission{}, domain.ErrMissionNotFound
	}
	return s.populateMissionLocked(m), nil
}

// ListMissions returns active missions newest first.
func (s *Store) ListMissions(_ context.Context, filter domain.MissionFilter) ([]domain.Mission, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Mission, 0)
	for i := len(s.missionOrder) - 1; i >= 0; i-- {
		m, ok := s.missions[s.missionOrder[i]]
		if !ok || !m.IsActive {
			continue
		}
		if filter.Category != "" && m.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && m.Difficulty != filter.Difficulty {
			continue
		}
		matched = append(matched, m)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	page := filter.Page.Normalize()
	matched = window(matched, page)
	for i := range matched {
		matched[i] = s.populateMissionLocked(matched[i])
	}
	return matched, total, nil
}

func (s *Store) DeleteMission(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.missions[id]; !ok {
		return domain.ErrMissionNotFound
	}
	delete(s.missions, id)
	s.missionOrder = without(s.missionOrder, id)
	for subID, sub := range s.submissions {
		if sub.MissionID == id {
			delete(s.submissions, subID)
			s.subOrder = without(s.subOrder, subID)
		}
	}
	return nil
}

func (s *Store) CreateSubmission(_ context.Context, submission domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.missions[submission.MissionID]; !ok {
		return domain.ErrMissionNotFound
	}
	for _, existing := range s.submissions {
		if existing.MissionID == submission.MissionID && existing.StudentID == submission.StudentID {
			return domain.ErrAlreadySubmitted
		}
	}
	submission.Student = nil
	s.submissions[submission.ID] = submission
	s.subOrder = append(s.subOrder, submission.ID)
	return nil
}

func (s *Store) HasSubmitted(_ context.Context, missionID, studentID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.submissions {
		if sub.MissionID == missionID && sub.StudentID == studentID {
			return true, nil
		}
	}
	return false, nil
}

// SubmissionsForMission returns submissions in submission order. An empty status matches all.
func (s *Store) SubmissionsForMission(_ context.Context, missionID string, status domain.SubmissionStatus) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0)
	for _, id := range s.subOrder {
		sub := s.submissions[id]
		if sub.MissionID != missionID {
			continue
		}
		if status != "" && sub.Status != status {
			continue
		}
		out = append(out, s.populateSubmissionLocked(sub))
	}
	return out, nil
}

func (s *Store) SubmissionsByStudent(_ context.Context, studentID string) ([]domain.StudentSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StudentSubmission, 0)
	for i := len(s.subOrder) - 1; i >= 0; i-- {
		sub := s.submissions[s.subOrder[i]]
		if sub.StudentID != studentID {
			continue
		}
		m := s.missions[sub.MissionID]
		out = append(out, domain.StudentSubmission{
			MissionID:     m.ID,
			MissionTitle:  m.Title,
			MissionPoints: m.Points,
			SubmissionID:  sub.ID,
			Submission:    sub.Body,
			FileURL:       sub.FileURL,
			Status:        sub.Status,
			Feedback:      sub.Feedback,
			PointsAwarded: sub.PointsAwarded,
			SubmittedAt:   sub.SubmittedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}

// ReviewSubmission applies the status transition and any point award under one lock.
func (s *Store) ReviewSubmission(_ context.Context, review domain.Review) (domain.ReviewOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[review.SubmissionID]
	if !ok || sub.MissionID != review.MissionID {
		return domain.ReviewOutcome{}, domain.ErrSubmissionNotFound
	}
	if sub.Status != domain.StatusPending {
		return domain.ReviewOutcome{}, domain.ErrAlreadyProcessed
	}
	mission, ok := s.missions[review.MissionID]
	if !ok {
		return domain.ReviewOutcome{}, domain.ErrMissionNotFound
	}
	student, ok := s.users[sub.StudentID]
	if !ok {
		return domain.ReviewOutcome{}, domain.ErrUserNotFound
	}

	at := review.At
	sub.Status = review.Decision
	sub.Feedback = review.Feedback
	sub.ReviewedAt = &at
	sub.ReviewedBy = review.ReviewerID

	outcome := domain.ReviewOutcome{}
	if review.Decision == domain.StatusApproved {
		points := mission.Points
		sub.PointsAwarded = &points
		outcome.PointsAwarded = points
		outcome.Student = student.award(points)
		if !student.hasCompleted(mission.ID) {
			student.completed = append(student.completed, completedRef{missionID: mission.ID, at: at})
		}
	} else {
		outcome.Student = domain.Progress{UserID: student.user.ID, Points: student.user.Points, Level: student.user.Level}
	}
	s.submissions[sub.ID] = sub
	outcome.Submission = s.populateSubmissionLocked(sub)
	return outcome, nil
}

func (r *userRecord) hasCompleted(missionID string) bool {
	for _, ref := range r.completed {
		if ref.missionID == missionID {
			return true
		}
	}
	return false
}

// --- quizzes ---

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz.RecomputeTotal()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	s.quizOrder = append(s.quizOrder, quiz.ID)
	return nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quiz.ID]; !ok {
		return domain.ErrQuizNotFound
	}
	quiz.RecomputeTotal()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *Store) ListQuizzes(_ context.Context, filter domain.QuizFilter) ([]domain.Quiz, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.Quiz, 0)
	for i := len(s.quizOrder) - 1; i >= 0; i-- {
		q := s.quizzes[s.quizOrder[i]]
		if !q.IsActive {
			continue
		}
		if filter.Category != "" && q.Category != filter.Category {
			continue
		}
		if filter.Difficulty != "" && q.Difficulty != filter.Difficulty {
			continue
		}
		matched = append(matched, q)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	matched = window(matched, filter.Page.Normalize())
	for i := range matched {
		matched[i] = s.populateQuizLocked(matched[i])
	}
	return matched, total, nil
}

// LoadQuiz makes the store usable as the quiz cache's backing loader.
func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.populateQuizLocked(q), nil
}

// --- rewards ---

func (s *Store) ListRewards(_ context.Context) ([]domain.Reward, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Reward(nil), s.rewards...), nil
}

// SeedRewards inserts rewards whose name is not yet in the catalog and reports how many were added.
func (s *Store) SeedRewards(_ context.Context, rewards []domain.Reward) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, r := range rewards {
		exists := false
		for _, existing := range s.rewards {
			if existing.Name == r.Name {
				exists = true
				break
			}
		}
		if !exists {
			s.rewards = append(s.rewards, r)
			added++
		}
	}
	return added, nil
}

// --- stats ---

func (s *Store) CountUsers(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// CountEngagedStudents counts students with at least one submission or quiz completion.
func (s *Store) CountEngagedStudents(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engaged := make(map[string]struct{})
	for _, sub := range s.submissions {
		engaged[sub.StudentID] = struct{}{}
	}
	for id, rec := range s.users {
		if len(rec.quizzes) > 0 {
			engaged[id] = struct{}{}
		}
	}
	n := 0
	for id := range engaged {
		if rec, ok := s.users[id]; ok && rec.user.Role == domain.RoleStudent {
			n++
		}
	}
	return n, nil
}

func (s *Store) SumPoints(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, rec := range s.users {
		total += rec.user.Points
	}
	return total, nil
}

func (s *Store) CountMissions(_ context.Context, activeOnly bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !activeOnly {
		return len(s.missions), nil
	}
	n := 0
	for _, m := range s.missions {
		if m.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountSubmissions(_ context.Context, status domain.SubmissionStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sub := range s.submissions {
		if status == "" || sub.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) CountQuizzes(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quizzes), nil
}

func (s *Store) CountQuizCompletions(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, rec := range s.users {
		n += len(rec.quizzes)
	}
	return n, nil
}

// --- helpers ---

func (s *Store) summaryLocked(userID string) *domain.UserSummary {
	rec, ok := s.users[userID]
	if !ok {
		return nil
	}
	summary := rec.user.Summary()
	return &summary
}

func (s *Store) populateMissionLocked(m domain.Mission) domain.Mission {
	m.Creator = s.summaryLocked(m.CreatedBy)
	return m
}

func (s *Store) populateSubmissionLocked(sub domain.Submission) domain.Submission {
	sub.Student = s.summaryLocked(sub.StudentID)
	return sub
}

func (s *Store) populateQuizLocked(q domain.Quiz) domain.Quiz {
	q = cloneQuiz(q)
	q.Creator = s.summaryLocked(q.CreatedBy)
	return q
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		questions[i] = question
	}
	q.Questions = questions
	return q
}

func window[T any](items []T, page domain.Page) []T {
	start := page.Offset()
	if start < 0 || start >= len(items) {
		return items[:0]
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func without(ids []string, id string) []string {
	for i, candidate := range ids {
		if candidate == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
