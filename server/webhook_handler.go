package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"royalwager/application"
)

type webhookResponse struct {
	Results []application.IngestResult `json:"results"`
}

// IngestDeposits accepts a batch of confirmed transactions from the chain indexer.
// Permanent per-item failures are reported in the body with 200 so the sender stops
// redelivering; a system failure returns 500 so the whole batch is retried.
func (a *API) IngestDeposits(c echo.Context) error {
	if a.cfg.WebhookAuthToken != "" {
		if !tokenMatches(c.Request().Header.Get(echo.HeaderAuthorization), a.cfg.WebhookAuthToken) {
			log.WithField("remoteIp", c.RealIP()).Warn("Rejected unauthenticated deposit webhook")
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid webhook credentials")
		}
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	notifications, err := application.ParseDepositWebhook(body)
	if err != nil {
		return err
	}

	results, err := a.ingestor.IngestBatch(c.Request().Context(), notifications)
	if err != nil {
		return err
	}
	if results == nil {
		results = []application.IngestResult{}
	}

	return c.JSON(http.StatusOK, webhookResponse{Results: results})
}
