package handlers

import (
	"context"

	"github.com/lac-hong-legacy/guessword_api/dto"
	"github.com/lac-hong-legacy/guessword_api/model"
)

type GameServiceInterface interface {
	StartGame(ctx context.Context, req dto.StartRequest) (*dto.StartResponse, error)
	Verify(ctx context.Context, guess string) (bool, error)
	EndGame(ctx context.Context) error
	Ask(ctx context.Context, question string) (*dto.AskResponse, error)
}

type LeaderboardServiceInterface interface {
	Top(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
}

type DistributionServiceInterface interface {
	StartDistribution(ctx context.Context) (*model.DistributionRecord, error)
	Last(ctx context.Context) (*model.DistributionRecord, error)
	History(ctx context.Context, page, perPage int) (*dto.DistributionHistoryResponse, error)
}

type StreamServiceInterface interface {
	Subscribe() (<-chan dto.StreamEvent, func())
}

type AuthServiceInterface interface {
	Login(req dto.OperatorLoginRequest) (*dto.OperatorLoginResponse, error)
}
