package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"royalwager/domain/entities"
)

const bearerPrefix = "Bearer "

// requireAdmin rejects operator calls without the configured bearer token.
// An empty ADMIN_TOKEN disables the operator routes entirely.
func (a *API) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if a.cfg.AdminToken == "" || !ok || !tokenMatches(token, a.cfg.AdminToken) {
			log.WithFields(log.Fields{
				"path":     c.Path(),
				"remoteIp": c.RealIP(),
			}).Warn("Rejected operator request")
			return echo.NewHTTPError(http.StatusUnauthorized, "operator token required")
		}
		return next(c)
	}
}

func tokenMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func (a *API) DisputeWager(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}
	var req reasonRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	w, err := a.wagers.DisputeWager(c.Request().Context(), id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponse(w))
}

func (a *API) ResolveDispute(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}
	var req resolveDisputeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	w, err := a.wagers.ResolveDispute(c.Request().Context(), id, req.WinnerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponse(w))
}

func (a *API) OperatorCancel(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}
	var req reasonRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	w, err := a.wagers.OperatorCancel(c.Request().Context(), id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponse(w))
}

func (a *API) RecordPayout(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}
	var req payoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	w, err := a.settlements.RecordPayout(c.Request().Context(), id, req.Signature)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponse(w))
}

func (a *API) RecordRefund(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}
	var req refundRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	party, err := entities.ParseParty(req.Party)
	if err != nil {
		return err
	}

	w, err := a.settlements.RecordRefund(c.Request().Context(), id, party, req.Signature)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponse(w))
}

func (a *API) PendingSettlements(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	instructions, err := a.settlements.PendingSettlements(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, instructions)
}
