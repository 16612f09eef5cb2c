package services

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"

	_ "github.com/lac-hong-legacy/guessword_api/docs"
	"github.com/lac-hong-legacy/guessword_api/middleware"
	"github.com/lac-hong-legacy/guessword_api/services/handlers"
	"github.com/lac-hong-legacy/guessword_api/shared"
)

type HttpService struct {
	context.DefaultService

	port        int
	frontendDir string
	app         *fiber.App
}

const HTTP_SVC = "http_svc"

// Router holds everything the HTTP surface talks to.
type Router struct {
	Game         handlers.GameServiceInterface
	Leaderboard  handlers.LeaderboardServiceInterface
	Distribution handlers.DistributionServiceInterface
	Stream       handlers.StreamServiceInterface
	Auth         handlers.AuthServiceInterface
	Operator     middleware.TokenVerifier
	Monitoring   *MonitoringService
	FrontendDir  string
}

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8080
	}

	svc.frontendDir = os.Getenv("FRONTEND_DIR")
	if svc.frontendDir == "" {
		svc.frontendDir = "frontend"
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	router := Router{
		Game:         svc.Service(GAME_SVC).(*GameService),
		Leaderboard:  svc.Service(LEADERBOARD_SVC).(*LeaderboardService),
		Distribution: svc.Service(DISTRIBUTION_SVC).(*DistributionService),
		Stream:       svc.Service(STREAM_SVC).(*StreamService),
		Auth:         svc.Service(AUTH_SVC).(*AuthService),
		Operator:     svc.Service(JWT_SVC).(*JWTService),
		FrontendDir:  svc.frontendDir,
	}
	if monitoring, ok := svc.Service(MONITORING_SVC).(*MonitoringService); ok {
		router.Monitoring = monitoring
	}

	svc.app = NewApp(router)
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// NewApp builds the Fiber application with every route of the station.
func NewApp(r Router) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      SERVICE_NAME,
		JSONEncoder:  shared.JSONAPI.Marshal,
		JSONDecoder:  shared.JSONAPI.Unmarshal,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	if r.Monitoring != nil {
		app.Use(MonitoringMiddleware(r.Monitoring))
	}

	gameHandler := handlers.NewGameHandler(r.Game)
	leaderboardHandler := handlers.NewLeaderboardHandler(r.Leaderboard)
	distributionHandler := handlers.NewDistributionHandler(r.Distribution)
	streamHandler := handlers.NewStreamHandler(r.Stream)
	operatorHandler := handlers.NewOperatorHandler(r.Auth)

	app.Get("/ping", ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	if r.FrontendDir != "" {
		pages := handlers.NewPageHandler(r.FrontendDir)
		app.Get("/", pages.Page("index.html"))
		app.Get("/game", pages.Page("game.html"))
		app.Get("/scores", pages.Page("leaderboard.html"))
		app.Get("/distribution", pages.Page("distribution.html"))
		app.Static("/static", r.FrontendDir)
	}

	app.Post("/start", middleware.RateLimit(middleware.GameStartLimit), gameHandler.Start)
	app.Post("/verify", gameHandler.Verify)
	app.Post("/end", gameHandler.End)
	app.Post("/stream", middleware.RateLimit(middleware.OracleLimit), gameHandler.Ask)
	app.Get("/stream", streamHandler.Subscribe)

	app.Get("/leaderboard", leaderboardHandler.GetLeaderboard)

	distribution := app.Group("/distribution")
	distribution.Get("/last", distributionHandler.GetLast)
	distribution.Get("/winners", distributionHandler.GetWinners)
	distribution.Get("/history", distributionHandler.GetHistory)
	distribution.Post("/start", middleware.RequireOperator(r.Operator), distributionHandler.StartDistribution)

	app.Post("/operator/login", middleware.RateLimit(middleware.OperatorLoginLimit), operatorHandler.Login)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})

	return app
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")
	return shared.ResponseJSON(c, fiber.StatusOK, "Success", "pong")
}
