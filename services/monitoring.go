package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lac-hong-legacy/guessword_api/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "guessword_api"
	DEFAULT_PROMETHEUS_PORT = 2112

	metricsNamespace = "guessword"
	sampleInterval   = 15 * time.Second
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "http",
		Name: "requests_total", Help: "Requests served, by route pattern",
	}, []string{"endpoint", "method", "status"})

	httpRequestsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Subsystem: "http",
		Name: "requests_in_flight", Help: "Requests currently being served",
	})

	httpRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "http",
		Name: "request_duration_seconds", Help: "Request latency, by route pattern",
		Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 5, 30},
	}, []string{"endpoint", "method"})
)

var (
	gamesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "game",
		Name: "sessions_total", Help: "Game sessions by lifecycle event",
	}, []string{"event"})

	activeSessionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Subsystem: "game",
		Name: "active_session", Help: "1 while a player holds the station",
	})

	oracleFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "oracle",
		Name: "failures_total", Help: "Questions answered with the fallback reply",
	})

	oracleLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: "oracle",
		Name: "latency_seconds", Help: "Oracle reply latency",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
	})

	streamSubscribersGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Subsystem: "stream",
		Name: "subscribers", Help: "Open SSE subscriptions",
	})

	distributionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "distribution",
		Name: "rounds_total", Help: "Recorded prize distributions",
	})

	receiptFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: "distribution",
		Name: "receipt_failures_total", Help: "Distributions recorded without their gift receipts",
	})
)

const (
	gameEventStarted   = "started"
	gameEventWon       = "won"
	gameEventAbandoned = "abandoned"
)

// stationProbe reports the live state sampled into gauges.
type stationProbe interface {
	ActiveSession() bool
	Subscribers() int
}

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry
	probe    stationProbe

	closed chan struct{}
	server *fiber.App
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	port, err := strconv.Atoi(os.Getenv("PROMETHEUS_PORT"))
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port
	return svc.DefaultService.Configure(ctx)
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpRequestsActive,
		httpRequestDurationSeconds,
		gamesTotal,
		activeSessionGauge,
		oracleFailuresTotal,
		oracleLatency,
		streamSubscribersGauge,
		distributionsTotal,
		receiptFailuresTotal,
	)
	for _, event := range []string{gameEventStarted, gameEventWon, gameEventAbandoned} {
		gamesTotal.WithLabelValues(event).Add(0)
	}
	return reg
}

func (svc *MonitoringService) Start() error {
	svc.closed = make(chan struct{}, 1)
	svc.register = newRegistry()
	if svc.probe == nil {
		svc.probe = &containerProbe{svc: svc}
	}

	go svc.sampleStation()

	svc.server = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	svc.server.Use(recover.New())
	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	// HttpService blocks the container, so this listener must not
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Int("port", svc.port).Msg("Metrics listener stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Metrics listener started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.closed != nil {
		svc.closed <- struct{}{}
	}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":         "healthy",
		"service":        SERVICE_NAME,
		"active_session": svc.probe != nil && svc.probe.ActiveSession(),
		"timestamp":      time.Now().Unix(),
	})
}

func (svc *MonitoringService) sampleStation() {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			svc.sample()
		case <-svc.closed:
			return
		}
	}
}

func (svc *MonitoringService) sample() {
	active := 0.0
	if svc.probe.ActiveSession() {
		active = 1
	}
	activeSessionGauge.Set(active)
	streamSubscribersGauge.Set(float64(svc.probe.Subscribers()))
}

// containerProbe resolves the game and stream services lazily since they
// start after monitoring.
type containerProbe struct {
	svc *MonitoringService
}

func (p *containerProbe) ActiveSession() bool {
	game, ok := p.svc.Service(GAME_SVC).(*GameService)
	if !ok {
		return false
	}
	_, active := game.Current()
	return active
}

func (p *containerProbe) Subscribers() int {
	stream, ok := p.svc.Service(STREAM_SVC).(*StreamService)
	if !ok {
		return 0
	}
	return stream.SubscriberCount()
}

// RecordRequest observes one served request under its route pattern.
func (svc *MonitoringService) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		httpRequestsActive.Inc()
		defer httpRequestsActive.Dec()

		err := c.Next()

		// route pattern, not the raw path, to keep label cardinality bounded
		status := c.Response().StatusCode()
		if appErr, ok := shared.GetAppError(err); ok {
			status = appErr.StatusCode
		} else if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		monitoringSvc.RecordRequest(c.Method(), c.Route().Path, status, time.Since(start))

		return err
	}
}
