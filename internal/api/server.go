// Package api serves the boost engine and panel storage to the browser
// extension over JSON.
package api

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xaenox/mgmt-boost/internal/models"
	"github.com/xaenox/mgmt-boost/internal/storage"
)

// Booster produces boost results for drafts.
type Booster interface {
	Boost(ctx context.Context, text string, channel models.ChannelInfo) models.BoostResult
}

// Advisor is the remote advisor as seen by the API: session state it can
// reset or re-key, and the scored rewrite.
type Advisor interface {
	SetAPIKey(key string)
	ClearContext()
	Rewrite(ctx context.Context, text string) (*models.Rewrite, error)
}

type Config struct {
	Addr        string
	Token       string
	OwnerID     int64
	CORSOrigins string
}

type Server struct {
	App *fiber.App
	cfg Config
}

// New wires routes and middleware. gatherer may be nil to disable /metrics.
func New(cfg Config, b Booster, adv Advisor, store storage.Storage, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return jsonError(c, code, message)
		},
	})

	app.Use(recover.New())
	app.Use(requestLogger(logger))

	if cfg.CORSOrigins != "" {
		// Extension origins (chrome-extension://...) are not http(s), so
		// they are matched here rather than through AllowOrigins.
		allowed := make(map[string]bool)
		for _, origin := range strings.Split(cfg.CORSOrigins, ",") {
			allowed[strings.TrimSpace(origin)] = true
		}
		app.Use(cors.New(cors.Config{
			AllowOriginsFunc: func(origin string) bool {
				return allowed[origin]
			},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
			MaxAge:       86400,
		}))
	}

	h := &handlers{
		booster: b,
		advisor: adv,
		store:   store,
		ownerID: cfg.OwnerID,
		logger:  logger,
	}

	app.Get("/healthz", func(c fiber.Ctx) error {
		return jsonSuccess(c, fiber.Map{"healthy": true})
	})
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api", requireToken(cfg.Token))

	api.Post("/boost", h.Boost)
	api.Post("/score", h.Score)
	api.Post("/rewrite", h.Rewrite)
	api.Delete("/context", h.ClearContext)

	api.Get("/prefs", h.GetPrefs)
	api.Put("/prefs", h.SavePrefs)

	api.Get("/diary", h.ListDiary)
	api.Get("/diary/:date", h.GetDiary)
	api.Put("/diary/:date", h.SaveDiary)

	api.Get("/calendar", h.ListEvents)
	api.Post("/calendar", h.CreateEvent)
	api.Delete("/calendar/:id", h.DeleteEvent)
	api.Get("/calendar/:id/note", h.GetNote)
	api.Put("/calendar/:id/note", h.SaveNote)

	return &Server{App: app, cfg: cfg}
}

func (s *Server) Start() error {
	return s.App.Listen(s.cfg.Addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}
