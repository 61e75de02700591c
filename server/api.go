package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	"royalwager/application"
	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
)

const webhookBodyLimit = "2M"

// WagerOperations is the wager lifecycle surface the API drives
type WagerOperations interface {
	CreateWager(ctx context.Context, creatorID string, amount decimal.Decimal, escrowAddress *string) (*entities.Wager, error)
	GetWager(ctx context.Context, id int64) (*entities.Wager, error)
	ListWagers(ctx context.Context, filter interfaces.WagerFilter) ([]*entities.Wager, error)
	JoinWager(ctx context.Context, id int64, opponentID string) (*entities.Wager, error)
	VerifyWager(ctx context.Context, id int64) (*entities.VerificationResult, error)
	CancelWager(ctx context.Context, id int64, requesterID string) (*entities.Wager, error)
	DisputeWager(ctx context.Context, id int64, reason string) (*entities.Wager, error)
	ResolveDispute(ctx context.Context, id int64, winnerID string) (*entities.Wager, error)
	OperatorCancel(ctx context.Context, id int64, reason string) (*entities.Wager, error)
}

// SettlementOperations exposes transfer instructions and their recording
type SettlementOperations interface {
	Instructions(ctx context.Context, id int64) ([]entities.TransferInstruction, error)
	RecordPayout(ctx context.Context, id int64, sig entities.Signature) (*entities.Wager, error)
	RecordRefund(ctx context.Context, id int64, party entities.Party, sig entities.Signature) (*entities.Wager, error)
	PendingSettlements(ctx context.Context, limit int) ([]entities.TransferInstruction, error)
}

// ProfileOperations manages wallet to player tag mappings
type ProfileOperations interface {
	GetProfile(ctx context.Context, walletID string) (*entities.PlayerProfile, error)
	UpsertProfile(ctx context.Context, walletID string, rawTag string) (*entities.PlayerProfile, error)
	GetPlayerSummary(ctx context.Context, rawTag string) (*entities.PlayerSummary, error)
}

// DepositIngestor applies confirmed deposit notifications
type DepositIngestor interface {
	IngestBatch(ctx context.Context, notifications []application.DepositNotification) ([]application.IngestResult, error)
}

// HealthChecker is satisfied by the database pool
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// APIConfig carries the shared secrets guarding the webhook and operator routes
type APIConfig struct {
	WebhookAuthToken string
	AdminToken       string
}

// API holds the HTTP handlers
type API struct {
	wagers      WagerOperations
	settlements SettlementOperations
	profiles    ProfileOperations
	ingestor    DepositIngestor
	health      HealthChecker
	hub         *Hub
	cfg         APIConfig
}

// NewAPI creates the handler set. hub may be nil to disable the websocket feed.
func NewAPI(wagers WagerOperations, settlements SettlementOperations, profiles ProfileOperations, ingestor DepositIngestor, health HealthChecker, hub *Hub, cfg APIConfig) *API {
	return &API{
		wagers:      wagers,
		settlements: settlements,
		profiles:    profiles,
		ingestor:    ingestor,
		health:      health,
		hub:         hub,
		cfg:         cfg,
	}
}

// Register attaches every route to e
func (a *API) Register(e *echo.Echo) {
	e.GET("/health", a.Health)

	apiGroup := e.Group("/api")

	wagerGroup := apiGroup.Group("/wagers")
	wagerGroup.POST("", a.CreateWager)
	wagerGroup.GET("", a.ListWagers)
	wagerGroup.GET("/:id", a.GetWager)
	wagerGroup.POST("/:id/join", a.JoinWager)
	wagerGroup.POST("/:id/verify", a.VerifyWager)
	wagerGroup.POST("/:id/cancel", a.CancelWager)
	wagerGroup.GET("/:id/settlement", a.Settlement)

	apiGroup.GET("/profiles/:wallet", a.GetProfile)
	apiGroup.PUT("/profiles/:wallet", a.UpsertProfile)
	apiGroup.GET("/players/:tag", a.GetPlayer)

	webhookGroup := e.Group("/webhooks", middleware.BodyLimit(webhookBodyLimit))
	webhookGroup.POST("/deposits", a.IngestDeposits)

	if a.hub != nil {
		e.GET("/ws/wagers/:id", a.WagerFeed)
	}

	adminGroup := e.Group("/admin", a.requireAdmin)
	adminGroup.POST("/wagers/:id/dispute", a.DisputeWager)
	adminGroup.POST("/wagers/:id/resolve", a.ResolveDispute)
	adminGroup.POST("/wagers/:id/cancel", a.OperatorCancel)
	adminGroup.POST("/wagers/:id/payout", a.RecordPayout)
	adminGroup.POST("/wagers/:id/refund", a.RecordRefund)
	adminGroup.GET("/settlements/pending", a.PendingSettlements)
}

func (a *API) Health(c echo.Context) error {
	if err := a.health.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":   "unavailable",
			"database": "unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":   "ok",
		"database": "ok",
	})
}

func wagerID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid wager id")
	}
	return id, nil
}

func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return nil
}
