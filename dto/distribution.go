package dto

import (
	"time"

	"github.com/lac-hong-legacy/guessword_api/model"
)

type HistoryQuery struct {
	Page    int `query:"page" json:"page" validate:"min=1"`
	PerPage int `query:"per_page" json:"per_page" validate:"min=1"`
}

func (q HistoryQuery) Validate() error {
	return GetValidator().Struct(q)
}

type DistributionResponse struct {
	DistributedAt time.Time      `json:"distributed_at"`
	Winners       []model.Winner `json:"winners"`
}

type WinnersResponse struct {
	Winners []model.Winner `json:"winners"`
}

type DistributionHistoryResponse struct {
	Distributions []DistributionResponse `json:"distributions"`
	Total         int                    `json:"total"`
	Page          int                    `json:"page"`
	PerPage       int                    `json:"per_page"`
}

func NewDistributionResponse(rec model.DistributionRecord) DistributionResponse {
	winners := rec.Winners
	if winners == nil {
		winners = []model.Winner{}
	}
	return DistributionResponse{
		DistributedAt: rec.DistributedAt,
		Winners:       winners,
	}
}
