package services

import (
	goContext "context"
	"fmt"
	"math"
	"time"

	"github.com/djimmy2web/certifdiag_api/dto"
	"github.com/djimmy2web/certifdiag_api/model"
	"github.com/djimmy2web/certifdiag_api/shared"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

const (
	dailyQuestCount    = 3
	dailyQuestCacheKey = "daily_quests:%s"
)

// questStore is the slice of the data layer the evaluator needs.
type questStore interface {
	GetActiveQuests() ([]model.Quest, error)
	GetQuestProgress(userID, questID string) (*model.QuestProgress, error)
	SaveQuestProgress(progress *model.QuestProgress) error
	GetOrCreateUserProgress(userID string) (*model.UserProgress, error)
	CountAttempts(userID string) (int64, error)
	SumAnswerCounts(userID string) (int64, error)
	CountUserBadges(userID string) (int64, error)
	GetAttemptSummaries(userID string) ([]AttemptSummary, error)
	AddXP(userID string, amount int) error
	IncrementResumeCount(userID string) error
}

// questCache is the redis-backed daily selection cache. Failures degrade to
// recomputing the selection, which is deterministic anyway.
type questCache interface {
	GetJSON(ctx goContext.Context, key string, dest interface{}) error
	Set(ctx goContext.Context, key string, value interface{}, expiration time.Duration) error
}

// QuestStats is the aggregated snapshot quest criteria are evaluated
// against. It is assembled once per evaluation pass.
type QuestStats struct {
	XP                 int
	QuizCompletedCount int
	QuestionsAnswered  int
	BadgeCount         int
	ResumeCount        int
	BestStreak         int
	Attempts           []AttemptSummary
}

// QuestService recomputes quest progress from aggregated stats. Both the
// push triggers (quiz completed, quiz resumed) and the pull trigger (daily
// quest listing) run the same evaluation; stored progress is only a cache
// while a quest is incomplete, and a frozen latch once completed.
type QuestService struct {
	context.DefaultService

	store questStore
	cache questCache
	now   func() time.Time
}

const QUEST_SVC = "quest_svc"

func (svc QuestService) Id() string {
	return QUEST_SVC
}

func (svc *QuestService) Configure(ctx *context.Context) error {
	svc.store = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.cache = ctx.Service(REDIS_SVC).(*RedisService)
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *QuestService) Start() error {
	return nil
}

// ==================== CRITERIA EVALUATION ====================

// evaluateCriteria maps one quest's criteria onto the stats snapshot. The
// switch is exhaustive; an unknown criteria type is an error, not a silent
// zero.
func evaluateCriteria(quest *model.Quest, stats *QuestStats) (int, error) {
	switch quest.CriteriaType {
	case model.CriteriaXP:
		return stats.XP, nil
	case model.CriteriaQuizCompleted:
		return stats.QuizCompletedCount, nil
	case model.CriteriaQuestionsAnswered:
		return stats.QuestionsAnswered, nil
	case model.CriteriaBadgeUnlocked:
		return stats.BadgeCount, nil
	case model.CriteriaQuizResumed:
		return stats.ResumeCount, nil
	case model.CriteriaScoreThreshold:
		data, err := quest.ParseScoreThreshold()
		if err != nil {
			return 0, fmt.Errorf("quest %s: bad score threshold data: %w", quest.ID, err)
		}
		count := 0
		for _, a := range stats.Attempts {
			if a.TotalQuestions <= 0 {
				continue
			}
			if float64(a.Score)/float64(a.TotalQuestions)*100 >= float64(data.MinScore) {
				count++
			}
		}
		return count, nil
	case model.CriteriaCorrectStreak:
		return stats.BestStreak, nil
	case model.CriteriaErrorQuiz:
		// Criteria exists in the catalog but has no progress source yet.
		return 0, nil
	default:
		return 0, fmt.Errorf("quest %s: unknown criteria type %q", quest.ID, quest.CriteriaType)
	}
}

// collectStats assembles the snapshot one evaluation pass runs against.
func (svc *QuestService) collectStats(userID string) (*QuestStats, error) {
	userProgress, err := svc.store.GetOrCreateUserProgress(userID)
	if err != nil {
		return nil, err
	}

	attemptCount, err := svc.store.CountAttempts(userID)
	if err != nil {
		return nil, err
	}

	answered, err := svc.store.SumAnswerCounts(userID)
	if err != nil {
		return nil, err
	}

	badgeCount, err := svc.store.CountUserBadges(userID)
	if err != nil {
		return nil, err
	}

	attempts, err := svc.store.GetAttemptSummaries(userID)
	if err != nil {
		return nil, err
	}

	return &QuestStats{
		XP:                 userProgress.XP,
		QuizCompletedCount: int(attemptCount),
		QuestionsAnswered:  int(answered),
		BadgeCount:         int(badgeCount),
		ResumeCount:        userProgress.ResumeCount,
		BestStreak:         userProgress.BestStreak,
		Attempts:           attempts,
	}, nil
}

// recompute evaluates the given quests against a fresh stats snapshot.
// Completed quests are latched and skipped. XP rewards earned in the pass
// are credited once, after the whole pass, so later quests in the same pass
// never observe them.
func (svc *QuestService) recompute(userID string, quests []model.Quest) ([]model.QuestProgress, error) {
	stats, err := svc.collectStats(userID)
	if err != nil {
		return nil, err
	}

	results := make([]model.QuestProgress, 0, len(quests))
	earnedXP := 0

	for i := range quests {
		quest := &quests[i]

		progress, err := svc.store.GetQuestProgress(userID, quest.ID)
		if err != nil {
			return nil, err
		}
		if progress != nil && progress.IsCompleted {
			results = append(results, *progress)
			continue
		}
		if progress == nil {
			progress = &model.QuestProgress{
				UserID:  userID,
				QuestID: quest.ID,
			}
		}

		value, err := evaluateCriteria(quest, stats)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"user_id":  userID,
				"quest_id": quest.ID,
			}).Error("Quest criteria evaluation failed")
			continue
		}

		progress.Progress = value
		if progress.Progress > quest.CriteriaValue {
			progress.Progress = quest.CriteriaValue
		}
		if value >= quest.CriteriaValue {
			now := svc.now()
			progress.IsCompleted = true
			progress.CompletedAt = &now
			earnedXP += quest.RewardXP
			questsCompletedTotal.Inc()

			log.WithFields(log.Fields{
				"user_id":   userID,
				"quest_id":  quest.ID,
				"reward_xp": quest.RewardXP,
			}).Info("Quest completed")
		}

		if err := svc.store.SaveQuestProgress(progress); err != nil {
			return nil, err
		}
		results = append(results, *progress)
	}

	if earnedXP > 0 {
		if err := svc.store.AddXP(userID, earnedXP); err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ==================== PUSH TRIGGERS ====================

// OnQuizCompleted recomputes every active quest after a session completes.
func (svc *QuestService) OnQuizCompleted(userID string) error {
	quests, err := svc.store.GetActiveQuests()
	if err != nil {
		return err
	}
	_, err = svc.recompute(userID, quests)
	return err
}

// OnQuizResumed counts the resume event, then recomputes every active
// quest so lesson_resumed quests see it immediately.
func (svc *QuestService) OnQuizResumed(userID string) error {
	if err := svc.store.IncrementResumeCount(userID); err != nil {
		return err
	}
	quests, err := svc.store.GetActiveQuests()
	if err != nil {
		return err
	}
	_, err = svc.recompute(userID, quests)
	return err
}

// ==================== DAILY SELECTION ====================

// dailySeed hashes the UTC calendar date into a 32-bit rolling hash. Every
// user and every call on the same UTC day derives the same seed.
func dailySeed(t time.Time) int32 {
	u := t.UTC()
	key := fmt.Sprintf("%d-%d-%d", u.Year(), int(u.Month()), u.Day())
	var h int32
	for _, r := range key {
		h = h*31 + int32(r)
	}
	return h
}

// seededUnit is a deterministic pseudo-random value in [0,1) derived from
// the seed and position.
func seededUnit(seed int32, i int) float64 {
	v := math.Sin(float64(seed)+float64(i)) * 10000
	return v - math.Floor(v)
}

// pickDailyQuests shuffles the catalog with a date-seeded Fisher-Yates and
// takes the first min(3, N). The input order must be stable for the output
// to be stable.
func pickDailyQuests(quests []model.Quest, t time.Time) []model.Quest {
	shuffled := make([]model.Quest, len(quests))
	copy(shuffled, quests)

	seed := dailySeed(t)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := int(seededUnit(seed, i) * float64(i+1))
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	if len(shuffled) > dailyQuestCount {
		shuffled = shuffled[:dailyQuestCount]
	}
	return shuffled
}

// selectDailyQuests resolves today's subset, consulting the shared cache
// first. The selection is deterministic, so a cache failure only costs the
// recomputation.
func (svc *QuestService) selectDailyQuests(quests []model.Quest, now time.Time) []model.Quest {
	u := now.UTC()
	key := fmt.Sprintf(dailyQuestCacheKey, u.Format("2006-01-02"))

	if svc.cache != nil {
		var cachedIDs []string
		if err := svc.cache.GetJSON(goContext.Background(), key, &cachedIDs); err != nil {
			log.WithError(err).Warn("Daily quest cache read failed")
		} else if len(cachedIDs) > 0 {
			byID := make(map[string]*model.Quest, len(quests))
			for i := range quests {
				byID[quests[i].ID] = &quests[i]
			}
			selected := make([]model.Quest, 0, len(cachedIDs))
			for _, id := range cachedIDs {
				if q, ok := byID[id]; ok {
					selected = append(selected, *q)
				}
			}
			if len(selected) == len(cachedIDs) {
				return selected
			}
			// Catalog changed under the cache; fall through and recompute.
		}
	}

	selected := pickDailyQuests(quests, now)

	if svc.cache != nil {
		ids := make([]string, len(selected))
		for i, q := range selected {
			ids[i] = q.ID
		}
		midnight := time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
		if err := svc.cache.Set(goContext.Background(), key, ids, midnight.Sub(now)); err != nil {
			log.WithError(err).Warn("Daily quest cache write failed")
		}
	}
	return selected
}

// ==================== PULL TRIGGER ====================

// GetDailyQuests returns today's quest subset with fresh progress. Quests
// still incomplete are recomputed on read; completed ones are returned from
// their latched record.
func (svc *QuestService) GetDailyQuests(userID string) (*dto.DailyQuestsResponse, error) {
	quests, err := svc.store.GetActiveQuests()
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load quests")
	}

	now := svc.now()
	selected := svc.selectDailyQuests(quests, now)

	progressList, err := svc.recompute(userID, selected)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to evaluate quests")
	}

	byQuest := make(map[string]*model.QuestProgress, len(progressList))
	for i := range progressList {
		byQuest[progressList[i].QuestID] = &progressList[i]
	}

	responses := make([]dto.DailyQuestResponse, 0, len(selected))
	for i := range selected {
		quest := &selected[i]
		item := dto.DailyQuestResponse{
			ID:          quest.ID,
			Title:       quest.Title,
			Description: quest.Description,
			Icon:        quest.Icon,
			Total:       quest.CriteriaValue,
			Type:        string(quest.CriteriaType),
		}
		if p, ok := byQuest[quest.ID]; ok {
			item.Completed = p.IsCompleted
			item.Progress = p.Progress
			if item.Progress > item.Total {
				item.Progress = item.Total
			}
		}
		responses = append(responses, item)
	}

	return &dto.DailyQuestsResponse{
		Date:   now.UTC().Format("2006-01-02"),
		Quests: responses,
	}, nil
}
