package services

import (
	"github.com/djimmy2web/certifdiag_api/model"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

// badgeStore is the slice of the data layer the evaluator needs.
type badgeStore interface {
	GetActiveBadges() ([]model.Badge, error)
	AwardBadge(userID, badgeID string) error
}

// BadgeService awards badges at quiz completion. Awards are idempotent and
// permanent; every matching badge is granted in the same pass.
type BadgeService struct {
	context.DefaultService

	store badgeStore
}

const BADGE_SVC = "badge_svc"

func (svc BadgeService) Id() string {
	return BADGE_SVC
}

func (svc *BadgeService) Configure(ctx *context.Context) error {
	svc.store = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *BadgeService) Start() error {
	return nil
}

// badgeMatches checks the award rule's optional filters against the
// completed session. A badge with no filters matches every completion.
func badgeMatches(badge *model.Badge, quizID string, score int) bool {
	if badge.MinScore != nil && score < *badge.MinScore {
		return false
	}
	if badge.QuizID != nil && *badge.QuizID != quizID {
		return false
	}
	return true
}

// OnQuizCompleted evaluates every active badge against the completed
// session and upserts the matching ones.
func (svc *BadgeService) OnQuizCompleted(userID, quizID string, score int) error {
	badges, err := svc.store.GetActiveBadges()
	if err != nil {
		return err
	}

	for i := range badges {
		badge := &badges[i]
		if !badgeMatches(badge, quizID, score) {
			continue
		}
		if err := svc.store.AwardBadge(userID, badge.ID); err != nil {
			return err
		}
		badgesAwardedTotal.Inc()
		log.WithFields(log.Fields{
			"user_id":  userID,
			"badge_id": badge.ID,
			"quiz_id":  quizID,
			"score":    score,
		}).Info("Badge awarded")
	}
	return nil
}
