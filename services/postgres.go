package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/djimmy2web/certifdiag_api/model"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

// Sentinel errors for the engine's conditional writes.
var (
	ErrOutOfLives      = errors.New("no lives available")
	ErrVersionConflict = errors.New("progress version conflict")
)

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "certifdiag_api"
		}
		sslmode := os.Getenv("DB_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}
		timezone := os.Getenv("DB_TIMEZONE")
		if timezone == "" {
			timezone = "UTC"
		}

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			host, user, password, dbname, port, sslmode, timezone)
	}

	return ds.DefaultService.Configure(ctx)
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	models := []interface{}{
		&model.User{},
		&model.UserProgress{},

		// Catalog models
		&model.Theme{},
		&model.Quiz{},
		&model.Badge{},
		&model.Quest{},

		// Engine models
		&model.QuizProgress{},
		&model.Attempt{},
		&model.UserBadge{},
		&model.QuestProgress{},
	}

	err = ds.db.AutoMigrate(models...)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound // 404
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict // 409
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest // 400
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError // 500
		errorType = "TRANSACTION_ERROR"
	default:
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			statusCode = http.StatusConflict // 409
			errorType = "UNIQUE_CONSTRAINT"
		} else if strings.Contains(err.Error(), "relation") && strings.Contains(err.Error(), "does not exist") {
			statusCode = http.StatusInternalServerError // 500
			errorType = "SCHEMA_ERROR"
		} else if strings.Contains(err.Error(), "connection refused") {
			statusCode = http.StatusServiceUnavailable // 503
			errorType = "DATABASE_CONNECTION_ERROR"
		} else {
			statusCode = http.StatusInternalServerError // 500
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key value violates unique constraint")
}

// ==================== USER METHODS ====================

func (ds *PostgresService) CreateUser(user *model.User) (*model.User, error) {
	if user.ID == "" {
		id, _ := uuid.NewV7()
		user.ID = id.String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	if err := ds.db.Create(user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return user, nil
}

func (ds *PostgresService) GetUser(userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByEmailOrUsername(emailOrUsername string) (*model.User, error) {
	var user model.User
	if err := ds.db.Where("email = ? OR username = ?", emailOrUsername, emailOrUsername).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (ds *PostgresService) UpdateUser(user *model.User) error {
	user.UpdatedAt = time.Now()
	if err := ds.db.Save(user).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== USER PROGRESS / LIVES METHODS ====================

// GetOrCreateUserProgress returns the user's resource record, creating the
// default one on first access.
func (ds *PostgresService) GetOrCreateUserProgress(userID string) (*model.UserProgress, error) {
	var progress model.UserProgress
	err := ds.db.Where("user_id = ?", userID).First(&progress).Error
	if err == nil {
		return &progress, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ds.HandleError(err)
	}

	id, _ := uuid.NewV7()
	now := time.Now()
	progress = model.UserProgress{
		ID:               id.String(),
		UserID:           userID,
		Lives:            5,
		MaxLives:         5,
		RegenRateHours:   4,
		LastRegeneration: now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := ds.db.Create(&progress).Error; err != nil {
		if isDuplicateKey(err) {
			// Lost the creation race; the winner's record is authoritative.
			var existing model.UserProgress
			if err := ds.db.Where("user_id = ?", userID).First(&existing).Error; err != nil {
				return nil, ds.HandleError(err)
			}
			return &existing, nil
		}
		return nil, ds.HandleError(err)
	}
	return &progress, nil
}

// SaveRegeneration persists lives and the advanced regeneration timestamp
// after a lazy regeneration pass.
func (ds *PostgresService) SaveRegeneration(progress *model.UserProgress) error {
	err := ds.db.Model(&model.UserProgress{}).Where("id = ?", progress.ID).Updates(map[string]interface{}{
		"lives":             progress.Lives,
		"last_regeneration": progress.LastRegeneration,
		"updated_at":        time.Now(),
	}).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ConsumeLife decrements the lives pool with a single conditional update so
// concurrent consumers can never take the pool below zero. Returns
// ErrOutOfLives when the pool is already empty.
func (ds *PostgresService) ConsumeLife(userID string) (int, error) {
	var lives int
	err := ds.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.UserProgress{}).
			Where("user_id = ? AND lives > 0", userID).
			Updates(map[string]interface{}{
				"lives":      gorm.Expr("lives - 1"),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrOutOfLives
		}

		var progress model.UserProgress
		if err := tx.Where("user_id = ?", userID).First(&progress).Error; err != nil {
			return err
		}
		lives = progress.Lives
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrOutOfLives) {
			return 0, ErrOutOfLives
		}
		return 0, ds.HandleError(err)
	}
	return lives, nil
}

// AddXP credits points to the user's cumulative total.
func (ds *PostgresService) AddXP(userID string, amount int) error {
	if amount == 0 {
		return nil
	}
	err := ds.db.Model(&model.UserProgress{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"xp":         gorm.Expr("xp + ?", amount),
		"updated_at": time.Now(),
	}).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// IncrementResumeCount bumps the resume-event counter quests evaluate.
func (ds *PostgresService) IncrementResumeCount(userID string) error {
	err := ds.db.Model(&model.UserProgress{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"resume_count": gorm.Expr("resume_count + 1"),
		"updated_at":   time.Now(),
	}).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== QUIZ PROGRESS METHODS ====================

func (ds *PostgresService) GetQuizProgress(userID, quizID string) (*model.QuizProgress, error) {
	var progress model.QuizProgress
	if err := ds.db.Where("user_id = ? AND quiz_id = ?", userID, quizID).First(&progress).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &progress, nil
}

// CreateOrGetQuizProgress inserts a fresh in-progress record for the
// (user, quiz) pair. When a concurrent start wins the unique-key race, the
// loser re-reads and returns the winner's record with created=false.
func (ds *PostgresService) CreateOrGetQuizProgress(userID, quizID string) (*model.QuizProgress, bool, error) {
	id, _ := uuid.NewV7()
	now := time.Now()
	progress := model.QuizProgress{
		ID:             id.String(),
		UserID:         userID,
		QuizID:         quizID,
		Answers:        []byte("[]"),
		StartedAt:      now,
		LastActivityAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := ds.db.Create(&progress).Error; err != nil {
		if isDuplicateKey(err) {
			existing, err := ds.GetQuizProgress(userID, quizID)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, ds.HandleError(err)
	}
	return &progress, true, nil
}

// ResetQuizProgress restarts a terminal session in place. The version guard
// keeps a concurrent restart or answer from clobbering the reset.
func (ds *PostgresService) ResetQuizProgress(progress *model.QuizProgress) error {
	now := time.Now()
	res := ds.db.Model(&model.QuizProgress{}).
		Where("id = ? AND version = ?", progress.ID, progress.Version).
		Updates(map[string]interface{}{
			"current_question_index": 0,
			"answers":                []byte("[]"),
			"is_completed":           false,
			"is_failed":              false,
			"completed_at":           nil,
			"started_at":             now,
			"last_activity_at":       now,
			"version":                progress.Version + 1,
			"updated_at":             now,
		})
	if res.Error != nil {
		return ds.HandleError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}

	progress.CurrentQuestionIndex = 0
	progress.Answers = []byte("[]")
	progress.IsCompleted = false
	progress.IsFailed = false
	progress.CompletedAt = nil
	progress.StartedAt = now
	progress.LastActivityAt = now
	progress.Version++
	return nil
}

// AnswerSideEffects carries the user-record mutations that must commit
// together with an answer write.
type AnswerSideEffects struct {
	ConsumeLife   bool
	CurrentStreak int
	BestStreak    int
}

// ApplyAnswer commits one answer submission atomically: the optional life
// decrement, the streak counters, the versioned progress write, and (on
// completion) the immutable attempt record. Either everything lands or
// nothing does, so a client retry can never double-consume a life.
//
// The failed flag is decided inside the transaction from the post-decrement
// lives count; a session that completes on its last life stays Completed.
func (ds *PostgresService) ApplyAnswer(progress *model.QuizProgress, expectedVersion int, side AnswerSideEffects, attempt *model.Attempt) (int, error) {
	livesAfter := 0

	err := ds.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		userUpdates := map[string]interface{}{
			"current_streak": side.CurrentStreak,
			"best_streak":    side.BestStreak,
			"updated_at":     now,
		}
		if side.ConsumeLife {
			userUpdates["lives"] = gorm.Expr("lives - 1")
			res := tx.Model(&model.UserProgress{}).
				Where("user_id = ? AND lives > 0", progress.UserID).
				Updates(userUpdates)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrOutOfLives
			}
		} else {
			if err := tx.Model(&model.UserProgress{}).
				Where("user_id = ?", progress.UserID).
				Updates(userUpdates).Error; err != nil {
				return err
			}
		}

		var userProgress model.UserProgress
		if err := tx.Where("user_id = ?", progress.UserID).First(&userProgress).Error; err != nil {
			return err
		}
		livesAfter = userProgress.Lives

		if !progress.IsCompleted && livesAfter == 0 {
			progress.IsFailed = true
		}

		res := tx.Model(&model.QuizProgress{}).
			Where("id = ? AND version = ?", progress.ID, expectedVersion).
			Updates(map[string]interface{}{
				"current_question_index": progress.CurrentQuestionIndex,
				"answers":                progress.Answers,
				"is_completed":           progress.IsCompleted,
				"is_failed":              progress.IsFailed,
				"completed_at":           progress.CompletedAt,
				"last_activity_at":       now,
				"version":                expectedVersion + 1,
				"updated_at":             now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrVersionConflict
		}
		progress.Version = expectedVersion + 1

		if progress.IsCompleted && attempt != nil {
			id, _ := uuid.NewV7()
			attempt.ID = id.String()
			attempt.CreatedAt = now
			if err := tx.Create(attempt).Error; err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, ErrOutOfLives) || errors.Is(err, ErrVersionConflict) {
			return 0, err
		}
		return 0, ds.HandleError(err)
	}
	return livesAfter, nil
}

// ==================== ATTEMPT METHODS ====================

func (ds *PostgresService) CountAttempts(userID string) (int64, error) {
	var count int64
	if err := ds.db.Model(&model.Attempt{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

func (ds *PostgresService) SumAnswerCounts(userID string) (int64, error) {
	var total int64
	err := ds.db.Model(&model.Attempt{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(answer_count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, ds.HandleError(err)
	}
	return total, nil
}

// AttemptSummary is the per-attempt slice of the quest stats snapshot.
type AttemptSummary struct {
	Score          int
	TotalQuestions int
}

func (ds *PostgresService) GetAttemptSummaries(userID string) ([]AttemptSummary, error) {
	var summaries []AttemptSummary
	err := ds.db.Model(&model.Attempt{}).
		Where("user_id = ?", userID).
		Select("score, total_questions").
		Scan(&summaries).Error
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return summaries, nil
}

// ==================== BADGE METHODS ====================

func (ds *PostgresService) GetActiveBadges() ([]model.Badge, error) {
	var badges []model.Badge
	if err := ds.db.Where("is_active = ?", true).Find(&badges).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return badges, nil
}

// AwardBadge inserts the (user, badge) pair idempotently; re-awarding an
// already-held badge is a no-op.
func (ds *PostgresService) AwardBadge(userID, badgeID string) error {
	id, _ := uuid.NewV7()
	now := time.Now()
	userBadge := model.UserBadge{
		ID:         id.String(),
		UserID:     userID,
		BadgeID:    badgeID,
		UnlockedAt: now,
		CreatedAt:  now,
	}

	err := ds.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&userBadge).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) CountUserBadges(userID string) (int64, error) {
	var count int64
	if err := ds.db.Model(&model.UserBadge{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, ds.HandleError(err)
	}
	return count, nil
}

// ==================== QUEST METHODS ====================

// GetActiveQuests returns the catalog in a stable order so the daily
// deterministic selection sees the same input on every call.
func (ds *PostgresService) GetActiveQuests() ([]model.Quest, error) {
	var quests []model.Quest
	if err := ds.db.Where("is_active = ?", true).Order("created_at, id").Find(&quests).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return quests, nil
}

func (ds *PostgresService) GetQuestProgress(userID, questID string) (*model.QuestProgress, error) {
	var progress model.QuestProgress
	err := ds.db.Where("user_id = ? AND quest_id = ?", userID, questID).First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, ds.HandleError(err)
	}
	return &progress, nil
}

func (ds *PostgresService) SaveQuestProgress(progress *model.QuestProgress) error {
	if progress.ID == "" {
		id, _ := uuid.NewV7()
		progress.ID = id.String()
		progress.CreatedAt = time.Now()
	}
	progress.UpdatedAt = time.Now()

	err := ds.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "quest_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "is_completed", "completed_at", "updated_at"}),
	}).Create(progress).Error
	if err != nil {
		return ds.HandleError(err)
	}
	return nil
}

// ==================== CATALOG METHODS ====================

func (ds *PostgresService) GetQuiz(id string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := ds.db.Where("id = ? AND is_active = ?", id, true).First(&quiz).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &quiz, nil
}

func (ds *PostgresService) GetActiveQuizzes(themeID string) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	query := ds.db.Where("is_active = ?", true)
	if themeID != "" {
		query = query.Where("theme_id = ?", themeID)
	}
	if err := query.Order("created_at").Find(&quizzes).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return quizzes, nil
}

func (ds *PostgresService) GetActiveThemes() ([]model.Theme, error) {
	var themes []model.Theme
	if err := ds.db.Where("is_active = ?", true).Order(`"order", created_at`).Find(&themes).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return themes, nil
}

// ==================== LEADERBOARD METHODS ====================

func (ds *PostgresService) GetTopByXP(limit int) ([]model.UserProgress, error) {
	var users []model.UserProgress
	if err := ds.db.Order("xp DESC").Limit(limit).Find(&users).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return users, nil
}
