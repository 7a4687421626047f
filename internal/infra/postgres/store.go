package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gameed/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// levelExpr re-derives the level from the incremented points inside the UPDATE itself.
// Postgres evaluates the right-hand side against the row as it was before the update.
var levelExpr = fmt.Sprintf("level = (points + ?) / %d + 1", domain.PointsPerLevel)

// Store implements the app repositories on Postgres through bun.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.db.NewInsert().Model(newUserModel(user)).Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	var m userModel
	if err := s.db.NewSelect().Model(&m).Where("u.id = ?", id).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return m.domain(), nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	var m userModel
	if err := s.db.NewSelect().Model(&m).Where("u.email = ?", email).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	return m.domain(), nil
}

func (s *Store) TouchLastActive(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.NewUpdate().Model((*userModel)(nil)).
		Set("last_active = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("touch last active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (s *Store) AwardPoints(ctx context.Context, userID string, delta int) (domain.Progress, error) {
	return awardPoints(ctx, s.db, userID, delta)
}

// awardPoints increments points and re-derives the level in a single statement.
func awardPoints(ctx context.Context, db bun.IDB, userID string, delta int) (domain.Progress, error) {
	progress := domain.Progress{UserID: userID}
	err := db.NewUpdate().Model((*userModel)(nil)).
		Set("points = points + ?", delta).
		Set(levelExpr, delta).
		Where("id = ?", userID).
		Returning("points, level").
		Scan(ctx, &progress.Points, &progress.Level)
	if err != nil {
		return domain.Progress{}, notFound(err, domain.ErrUserNotFound)
	}
	return progress, nil
}

func (s *Store) RecordQuizCompletion(ctx context.Context, userID string, completion domain.QuizCompletion) (domain.Progress, error) {
	var progress domain.Progress
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		progress, err = awardPoints(ctx, tx, userID, completion.Score)
		if err != nil {
			return err
		}
		_, err = tx.NewInsert().Model(&quizCompletionModel{
			UserID:      userID,
			QuizID:      completion.QuizID,
			Score:       completion.Score,
			CompletedAt: completion.CompletedAt,
		}).Exec(ctx)
		return err
	})
	if err != nil {
		return domain.Progress{}, err
	}
	return progress, nil
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	var rows []userModel
	err := s.db.NewSelect().Model(&rows).
		Column("id", "name", "points", "level", "avatar").
		OrderExpr("u.points DESC, u.created_at ASC, u.id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, domain.LeaderboardEntry{
			UserID: r.ID,
			Name:   r.Name,
			Points: r.Points,
			Level:  r.Level,
			Avatar: r.Avatar,
		})
	}
	return entries, nil
}

type completedMissionRow struct {
	ID          string    `bun:"id"`
	Title       string    `bun:"title"`
	Points      int       `bun:"points"`
	Category    string    `bun:"category"`
	CompletedAt time.Time `bun:"completed_at"`
}

func (s *Store) CompletedMissions(ctx context.Context, userID string) ([]domain.CompletedMission, error) {
	var rows []completedMissionRow
	err := s.db.NewSelect().
		TableExpr("user_completed_missions AS ucm").
		ColumnExpr("m.id, m.title, m.points, m.category, ucm.completed_at").
		Join("JOIN missions AS m ON m.id = ucm.mission_id").
		Where("ucm.user_id = ?", userID).
		OrderExpr("ucm.completed_at ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("completed missions: %w", err)
	}
	out := make([]domain.CompletedMission, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.CompletedMission(r))
	}
	return out, nil
}

type quizCompletionRow struct {
	QuizID      string    `bun:"quiz_id"`
	Title       string    `bun:"title"`
	Score       int       `bun:"score"`
	CompletedAt time.Time `bun:"completed_at"`
}

func (s *Store) CompletedQuizzes(ctx context.Context, userID string) ([]domain.QuizCompletion, error) {
	var rows []quizCompletionRow
	err := s.db.NewSelect().
		TableExpr("quiz_completions AS qc").
		ColumnExpr("qc.quiz_id, COALESCE(q.title, '') AS title, qc.score, qc.completed_at").
		Join("LEFT JOIN quizzes AS q ON q.id = qc.quiz_id").
		Where("qc.user_id = ?", userID).
		OrderExpr("qc.completed_at ASC, qc.id ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("completed quizzes: %w", err)
	}
	out := make([]domain.QuizCompletion, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.QuizCompletion{
			QuizID:      r.QuizID,
			QuizTitle:   r.Title,
			Score:       r.Score,
			CompletedAt: r.CompletedAt,
		})
	}
	return out, nil
}

// --- missions ---

func (s *Store) CreateMission(ctx context.Context, mission domain.Mission) error {
	if _, err := s.db.NewInsert().Model(newMissionModel(mission)).Exec(ctx); err != nil {
		return fmt.Errorf("insert mission: %w", err)
	}
	return nil
}

func (s *Store) MissionByID(ctx context.Context, id string) (domain.Mission, error) {
	var m missionModel
	err := s.db.NewSelect().Model(&m).Relation("Creator").Where("m.id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Mission{}, notFound(err, domain.ErrMissionNotFound)
	}
	return m.domain(), nil
}

func (s *Store) ListMissions(ctx context.Context, filter domain.MissionFilter) ([]domain.Mission, int, error) {
	page := filter.Page.Normalize()
	var rows []missionModel
	q := s.db.NewSelect().Model(&rows).Relation("Creator").Where("m.is_active = TRUE")
	if filter.Category != "" {
		q = q.Where("m.category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		q = q.Where("m.difficulty = ?", string(filter.Difficulty))
	}
	total, err := q.OrderExpr("m.created_at DESC").Limit(page.Limit).Offset(page.Offset()).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list missions: %w", err)
	}
	out := make([]domain.Mission, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].domain())
	}
	return out, total, nil
}

// DeleteMission removes the mission; submissions and completion records cascade.
func (s *Store) DeleteMission(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*missionModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrMissionNotFound
	}
	return nil
}

func (s *Store) CreateSubmission(ctx context.Context, submission domain.Submission) error {
	_, err := s.db.NewInsert().Model(newSubmissionModel(submission)).Exec(ctx)
	if isUniqueViolation(err) {
		return domain.ErrAlreadySubmitted
	}
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *Store) HasSubmitted(ctx context.Context, missionID, studentID string) (bool, error) {
	return s.db.NewSelect().Model((*submissionModel)(nil)).
		Where("s.mission_id = ?", missionID).
		Where("s.student_id = ?", studentID).
		Exists(ctx)
}

func (s *Store) SubmissionsForMission(ctx context.Context, missionID string, status domain.SubmissionStatus) ([]domain.Submission, error) {
	var rows []submissionModel
	q := s.db.NewSelect().Model(&rows).Relation("Student").Where("s.mission_id = ?", missionID)
	if status != "" {
		q = q.Where("s.status = ?", string(status))
	}
	if err := q.OrderExpr("s.submitted_at ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("mission submissions: %w", err)
	}
	out := make([]domain.Submission, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].domain())
	}
	return out, nil
}

func (s *Store) SubmissionsByStudent(ctx context.Context, studentID string) ([]domain.StudentSubmission, error) {
	var rows []submissionModel
	err := s.db.NewSelect().Model(&rows).Relation("Mission").
		Where("s.student_id = ?", studentID).
		OrderExpr("s.submitted_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("student submissions: %w", err)
	}
	out := make([]domain.StudentSubmission, 0, len(rows))
	for _, r := range rows {
		entry := domain.StudentSubmission{
			MissionID:     r.MissionID,
			SubmissionID:  r.ID,
			Submission:    r.Body,
			FileURL:       r.FileURL,
			Status:        domain.SubmissionStatus(r.Status),
			Feedback:      r.Feedback,
			PointsAwarded: r.PointsAwarded,
			SubmittedAt:   r.SubmittedAt,
		}
		if r.Mission != nil {
			entry.MissionTitle = r.Mission.Title
			entry.MissionPoints = r.Mission.Points
		}
		out = append(out, entry)
	}
	return out, nil
}

// ReviewSubmission flips a pending submission with a status-guarded UPDATE and, on approval,
// credits the student in the same transaction. Concurrent reviewers race on the guard and
// exactly one wins.
func (s *Store) ReviewSubmission(ctx context.Context, review domain.Review) (domain.ReviewOutcome, error) {
	var outcome domain.ReviewOutcome
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var mission missionModel
		if err := tx.NewSelect().Model(&mission).Where("m.id = ?", review.MissionID).Scan(ctx); err != nil {
			return notFound(err, domain.ErrMissionNotFound)
		}

		var sub submissionModel
		q := tx.NewUpdate().Model(&sub).
			Set("status = ?", string(review.Decision)).
			Set("feedback = ?", review.Feedback).
			Set("reviewed_at = ?", review.At).
			Set("reviewed_by = ?", review.ReviewerID)
		if review.Decision == domain.StatusApproved {
			q = q.Set("points_awarded = ?", mission.Points)
		}
		err := q.Where("s.id = ?", review.SubmissionID).
			Where("s.mission_id = ?", review.MissionID).
			Where("s.status = ?", string(domain.StatusPending)).
			Returning("*").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return s.reviewMiss(ctx, tx, review)
		}
		if err != nil {
			return fmt.Errorf("update submission: %w", err)
		}

		if review.Decision == domain.StatusApproved {
			if _, err := awardPoints(ctx, tx, sub.StudentID, mission.Points); err != nil {
				return err
			}
			_, err = tx.NewInsert().Model(&completedMissionModel{
				UserID:      sub.StudentID,
				MissionID:   mission.ID,
				CompletedAt: review.At,
			}).On("CONFLICT DO NOTHING").Exec(ctx)
			if err != nil {
				return fmt.Errorf("record completed mission: %w", err)
			}
			outcome.PointsAwarded = mission.Points
		}

		var student userModel
		err = tx.NewSelect().Model(&student).
			Column("id", "name", "email", "points", "level").
			Where("u.id = ?", sub.StudentID).
			Scan(ctx)
		if err != nil {
			return notFound(err, domain.ErrUserNotFound)
		}
		sub.Student = &student
		outcome.Student = domain.Progress{UserID: student.ID, Points: student.Points, Level: student.Level}
		outcome.Submission = sub.domain()
		return nil
	})
	if err != nil {
		return domain.ReviewOutcome{}, err
	}
	return outcome, nil
}

// reviewMiss explains why the guarded update touched no row.
func (s *Store) reviewMiss(ctx context.Context, tx bun.Tx, review domain.Review) error {
	exists, err := tx.NewSelect().Model((*submissionModel)(nil)).
		Where("s.id = ?", review.SubmissionID).
		Where("s.mission_id = ?", review.MissionID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("lookup submission: %w", err)
	}
	if !exists {
		return domain.ErrSubmissionNotFound
	}
	return domain.ErrAlreadyProcessed
}

// --- quizzes ---

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	quiz.RecomputeTotal()
	if _, err := s.db.NewInsert().Model(newQuizModel(quiz)).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	quiz.RecomputeTotal()
	res, err := s.db.NewUpdate().Model(newQuizModel(quiz)).
		Column("title", "description", "questions", "category", "difficulty", "time_limit", "total_points", "is_active", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *Store) ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, int, error) {
	page := filter.Page.Normalize()
	var rows []quizModel
	q := s.db.NewSelect().Model(&rows).Relation("Creator").Where("q.is_active = TRUE")
	if filter.Category != "" {
		q = q.Where("q.category = ?", filter.Category)
	}
	if filter.Difficulty != "" {
		q = q.Where("q.difficulty = ?", string(filter.Difficulty))
	}
	total, err := q.OrderExpr("q.created_at DESC").Limit(page.Limit).Offset(page.Offset()).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]domain.Quiz, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].domain())
	}
	return out, total, nil
}

func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var m quizModel
	if err := s.db.NewSelect().Model(&m).Relation("Creator").Where("q.id = ?", quizID).Scan(ctx); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound)
	}
	return m.domain(), nil
}

// --- rewards ---

func (s *Store) ListRewards(ctx context.Context) ([]domain.Reward, error) {
	var rows []rewardModel
	if err := s.db.NewSelect().Model(&rows).OrderExpr("r.points_required ASC, r.name ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	out := make([]domain.Reward, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].domain())
	}
	return out, nil
}

// SeedRewards inserts rewards whose name is not in the catalog yet.
func (s *Store) SeedRewards(ctx context.Context, rewards []domain.Reward) (int, error) {
	added := 0
	for _, r := range rewards {
		res, err := s.db.NewInsert().Model(&rewardModel{
			ID:             r.ID,
			Name:           r.Name,
			Description:    r.Description,
			Icon:           r.Icon,
			PointsRequired: r.PointsRequired,
			Category:       r.Category,
			Rarity:         r.Rarity,
			IsActive:       r.IsActive,
			CreatedAt:      r.CreatedAt,
		}).On("CONFLICT (name) DO NOTHING").Exec(ctx)
		if err != nil {
			return added, fmt.Errorf("seed reward %q: %w", r.Name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}
	return added, nil
}

// --- stats ---

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*userModel)(nil)).Count(ctx)
}

const engagedStudentsQuery = `
SELECT COUNT(*) FROM users AS u
WHERE u.role = 'student'
  AND (EXISTS (SELECT 1 FROM submissions AS s WHERE s.student_id = u.id)
    OR EXISTS (SELECT 1 FROM quiz_completions AS qc WHERE qc.user_id = u.id))`

func (s *Store) CountEngagedStudents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, engagedStudentsQuery).Scan(&n); err != nil {
		return 0, fmt.Errorf("count engaged students: %w", err)
	}
	return n, nil
}

func (s *Store) SumPoints(ctx context.Context) (int, error) {
	var n int
	err := s.db.NewSelect().Model((*userModel)(nil)).ColumnExpr("COALESCE(SUM(u.points), 0)::bigint").Scan(ctx, &n)
	if err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return n, nil
}

func (s *Store) CountMissions(ctx context.Context, activeOnly bool) (int, error) {
	q := s.db.NewSelect().Model((*missionModel)(nil))
	if activeOnly {
		q = q.Where("m.is_active = TRUE")
	}
	return q.Count(ctx)
}

func (s *Store) CountSubmissions(ctx context.Context, status domain.SubmissionStatus) (int, error) {
	q := s.db.NewSelect().Model((*submissionModel)(nil))
	if status != "" {
		q = q.Where("s.status = ?", string(status))
	}
	return q.Count(ctx)
}

func (s *Store) CountQuizzes(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*quizModel)(nil)).Count(ctx)
}

func (s *Store) CountQuizCompletions(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*quizCompletionModel)(nil)).Count(ctx)
}
