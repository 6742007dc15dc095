package services

import (
	"math"
	"time"

	"github.com/djimmy2web/certifdiag_api/dto"
	"github.com/djimmy2web/certifdiag_api/model"
	"github.com/djimmy2web/certifdiag_api/shared"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
)

const defaultRegenRateHours = 4

// livesStore is the slice of the data layer the ledger needs.
type livesStore interface {
	GetOrCreateUserProgress(userID string) (*model.UserProgress, error)
	SaveRegeneration(progress *model.UserProgress) error
	ConsumeLife(userID string) (int, error)
}

// LivesService owns the regenerating lives pool. Regeneration is lazy: no
// background job runs, elapsed time is settled whenever the pool is read or
// consumed.
type LivesService struct {
	context.DefaultService

	store livesStore
	now   func() time.Time
}

const LIVES_SVC = "lives_svc"

func (svc LivesService) Id() string {
	return LIVES_SVC
}

func (svc *LivesService) Configure(ctx *context.Context) error {
	svc.store = ctx.Service(POSTGRES_SVC).(*PostgresService)
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *LivesService) Start() error {
	return nil
}

// applyRegeneration grants every whole regeneration interval elapsed since
// the anchor and advances the anchor by exactly the intervals granted, so
// partial progress toward the next life is never lost. The anchor does not
// move while the pool is full. Returns true when the record changed.
func applyRegeneration(p *model.UserProgress, now time.Time) bool {
	if p.Lives >= p.MaxLives {
		return false
	}

	rate := p.RegenRateHours
	if rate <= 0 {
		rate = defaultRegenRateHours
	}

	elapsed := now.Sub(p.LastRegeneration)
	if elapsed <= 0 {
		return false
	}

	intervals := int(elapsed.Hours()) / rate
	if intervals <= 0 {
		return false
	}

	p.Lives += intervals
	if p.Lives > p.MaxLives {
		p.Lives = p.MaxLives
	}
	p.LastRegeneration = p.LastRegeneration.Add(time.Duration(intervals*rate) * time.Hour)
	return true
}

// minutesUntilNextLife reports how long until the next life lands, rounded
// up. Zero when the pool is full.
func minutesUntilNextLife(p *model.UserProgress, now time.Time) int {
	if p.Lives >= p.MaxLives {
		return 0
	}

	rate := p.RegenRateHours
	if rate <= 0 {
		rate = defaultRegenRateHours
	}

	next := p.LastRegeneration.Add(time.Duration(rate) * time.Hour)
	minutes := int(math.Ceil(next.Sub(now).Minutes()))
	if minutes < 0 {
		minutes = 0
	}
	return minutes
}

func (svc *LivesService) toResponse(p *model.UserProgress, now time.Time) *dto.LivesResponse {
	rate := p.RegenRateHours
	if rate <= 0 {
		rate = defaultRegenRateHours
	}
	return &dto.LivesResponse{
		Current:          p.Lives,
		Max:              p.MaxLives,
		RegenerationRate: rate,
		TimeUntilNext:    minutesUntilNextLife(p, now),
		CanPlay:          p.Lives > 0,
	}
}

// refresh loads the user's resource record and settles any pending
// regeneration before returning it.
func (svc *LivesService) refresh(userID string) (*model.UserProgress, error) {
	progress, err := svc.store.GetOrCreateUserProgress(userID)
	if err != nil {
		return nil, err
	}

	before := progress.Lives
	if applyRegeneration(progress, svc.now()) {
		if err := svc.store.SaveRegeneration(progress); err != nil {
			return nil, err
		}
		livesRegeneratedTotal.Add(float64(progress.Lives - before))
	}
	return progress, nil
}

// GetLives returns the pool state after lazy regeneration.
func (svc *LivesService) GetLives(userID string) (*dto.LivesResponse, error) {
	progress, err := svc.refresh(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load lives")
	}
	return svc.toResponse(progress, svc.now()), nil
}

// ConsumeLife settles regeneration, then spends one life through a
// conditional decrement so concurrent spends cannot take the pool negative.
func (svc *LivesService) ConsumeLife(userID string) (*dto.LivesResponse, error) {
	progress, err := svc.refresh(userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load lives")
	}

	if progress.Lives <= 0 {
		return nil, shared.NewResourceExhaustedError(ErrOutOfLives, "No lives available")
	}

	lives, err := svc.store.ConsumeLife(userID)
	if err != nil {
		if err == ErrOutOfLives {
			// Another request drained the pool between the read and the
			// decrement.
			return nil, shared.NewResourceExhaustedError(err, "No lives available")
		}
		return nil, shared.NewInternalError(err, "Failed to consume life")
	}

	livesConsumedTotal.Inc()
	log.WithFields(log.Fields{
		"user_id": userID,
		"lives":   lives,
	}).Debug("Life consumed")

	progress.Lives = lives
	return svc.toResponse(progress, svc.now()), nil
}
