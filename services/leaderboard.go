package services

import (
	"github.com/djimmy2web/certifdiag_api/dto"
	"github.com/djimmy2web/certifdiag_api/shared"

	"github.com/alphabatem/common/context"
)

const defaultLeaderboardLimit = 50

// LeaderboardService ranks users by the cumulative XP total the engine
// maintains. The weekly division-ranking batch job reads the same column;
// this surface only serves the in-app view.
type LeaderboardService struct {
	context.DefaultService

	sqlSvc *PostgresService
}

const LEADERBOARD_SVC = "leaderboard_svc"

func (svc LeaderboardService) Id() string {
	return LEADERBOARD_SVC
}

func (svc *LeaderboardService) Configure(ctx *context.Context) error {
	svc.sqlSvc = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *LeaderboardService) Start() error {
	return nil
}

func (svc *LeaderboardService) GetLeaderboard(limit int) (*dto.LeaderboardResponse, error) {
	if limit <= 0 || limit > defaultLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}

	top, err := svc.sqlSvc.GetTopByXP(limit)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load leaderboard")
	}

	entries := make([]dto.LeaderboardEntryResponse, 0, len(top))
	for i, progress := range top {
		username := ""
		if user, err := svc.sqlSvc.GetUser(progress.UserID); err == nil {
			username = user.Username
		}
		entries = append(entries, dto.LeaderboardEntryResponse{
			UserID:   progress.UserID,
			Username: username,
			XP:       progress.XP,
			Rank:     i + 1,
		})
	}

	return &dto.LeaderboardResponse{
		Entries: entries,
		Total:   len(entries),
	}, nil
}
