// Package sandbox is a self-contained development backend. It serves the
// same REST surface the hosted platform does, keeps its data in the
// configured storage backend and pushes realtime messages through NATS.
// Extra endpoints under /sandbox simulate the customer's phone so both QR
// flows can be exercised without a real device.
package sandbox

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/Loyalty-lt/sdk-go/config"
	"github.com/Loyalty-lt/sdk-go/pkg/model"
	"github.com/Loyalty-lt/sdk-go/pkg/storage"
)

// Publisher pushes a realtime message onto a channel. Satisfied by
// *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Server is the sandbox HTTP server.
type Server struct {
	cfg      *config.Config
	store    storage.Interface
	pub      Publisher
	sessions *sessionHub
	echo     *echo.Echo
}

// NewServer wires the sandbox. A nil publisher disables realtime pushes,
// leaving the polling endpoints as the only confirmation path.
func NewServer(cfg *config.Config, store storage.Interface, pub Publisher) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		pub:      pub,
		sessions: newSessionHub(5 * time.Minute),
		echo:     echo.New(),
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(requestLogger)

	s.registerRoutes()

	return s
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.BindHost, s.cfg.BindPort)
	log.Infof("sandbox: listening on %s", addr)
	return s.echo.Start(addr)
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/:locale/shop")

	api.POST("/auth/qr-login/generate", s.handleGenerateQRLogin)
	api.POST("/auth/qr-login/poll/:id", s.handlePollQRLogin)
	api.POST("/qr-card/generate", s.handleGenerateQRCard)
	api.GET("/qr-card/status/:id", s.handleQRCardStatus)
	api.POST("/realtime/token", s.handleMintToken)

	api.GET("/auth/validate", s.handleValidateCredentials)
	api.GET("/health", s.handleHealth)
	api.POST("/auth/send-app-link", s.handleSendAppLink)
	api.GET("/categories", s.handleFetchCategories)

	api.GET("/shops", s.handleFetchShops)
	api.GET("/shops/:id", s.handleGetShop)

	api.GET("/loyalty-cards", s.handleFetchCards)
	api.GET("/loyalty-cards/info", s.handleGetCardInfo)
	api.GET("/loyalty-cards/:id", s.handleGetCard)
	api.GET("/loyalty-cards/number/:number", s.handleGetCardByNumber)
	api.GET("/loyalty-cards/:id/balance", s.handleGetBalance)

	api.GET("/offers", s.handleFetchOffers)
	api.GET("/offers/:id", s.handleGetOffer)
	api.POST("/offers", s.handleCreateOffer)
	api.PUT("/offers/:id", s.handleUpdateOffer)
	api.DELETE("/offers/:id", s.handleDeleteOffer)

	api.POST("/points/award", s.handleAwardPoints)
	api.POST("/points/redeem", s.handleRedeemPoints)
	api.GET("/points/transactions", s.handleFetchTransactions)

	// Simulation of the customer's phone.
	sim := s.echo.Group("/sandbox")
	sim.POST("/qr-login/:id/scan", s.handleSimulateScan)
	sim.POST("/qr-login/:id/confirm", s.handleSimulateConfirm)
	sim.POST("/qr-login/:id/cancel", s.handleSimulateCancel)
	sim.POST("/qr-card/:id/identify", s.handleSimulateIdentify)
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		log.WithFields(log.Fields{
			"method":  c.Request().Method,
			"path":    c.Request().URL.Path,
			"status":  c.Response().Status,
			"elapsed": time.Since(start).String(),
		}).Debug("sandbox: request")
		return err
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    interface{}     `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
	Meta    *model.PageMeta `json:"meta,omitempty"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func respondPaged(c echo.Context, data interface{}, total int) error {
	meta := &model.PageMeta{
		CurrentPage: 1,
		PerPage:     total,
		Total:       total,
		LastPage:    1,
		From:        1,
		To:          total,
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: data, Meta: meta})
}

func fail(c echo.Context, status int, code, message string) error {
	return c.JSON(status, envelope{Success: false, Message: message, Code: code})
}

// failStorage maps storage errors onto envelope responses.
func failStorage(c echo.Context, err error) error {
	switch err {
	case storage.ErrNotFound:
		return fail(c, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case storage.ErrInsufficientFunds:
		return fail(c, http.StatusUnprocessableEntity, "INSUFFICIENT_POINTS", "points balance too low")
	default:
		log.Errorf("sandbox: storage error: %s", err)
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "storage failure")
	}
}
