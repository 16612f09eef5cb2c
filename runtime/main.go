package main

import (
	"errors"
	"io/fs"

	"github.com/lac-hong-legacy/guessword_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// @title Guessword Station API
// @version 1.0
// @description Single-station word guessing game with an oracle, a leaderboard and prize distributions.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// the station may be configured from the environment alone
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatal().Err(err).Msg("Error loading .env file")
	}

	ctx, err := context.NewCtx(
		&services.MonitoringService{},
		&services.StoreService{},
		&services.RedisService{},
		&services.ArchiveService{},
		&services.EmailService{},
		&services.OracleService{},
		&services.StreamService{},
		&services.LeaderboardService{},
		&services.GameService{},
		&services.DistributionService{},
		&services.JWTService{},
		&services.AuthService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service stopped")
		return
	}
}
