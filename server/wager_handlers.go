package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"

	"royalwager/domain/entities"
	"royalwager/domain/interfaces"
)

func (a *API) CreateWager(c echo.Context) error {
	var req createWagerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	w, err := a.wagers.CreateWager(c.Request().Context(), req.CreatorID, req.Amount, req.EscrowAddress)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toWagerResponse(w))
}

func (a *API) ListWagers(c echo.Context) error {
	filter := interfaces.WagerFilter{WalletID: c.QueryParam("wallet")}

	if raw := c.QueryParam("status"); raw != "" {
		status, err := entities.ParseWagerStatus(raw)
		if err != nil {
			return err
		}
		filter.Status = &status
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		filter.Limit = limit
	}

	wagers, err := a.wagers.ListWagers(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponses(wagers))
}

func (a *API) GetWager(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}

	w, err := a.wagers.GetWager(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponse(w))
}

func (a *API) JoinWager(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}
	var req joinWagerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	w, err := a.wagers.JoinWager(c.Request().Context(), id, req.OpponentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponse(w))
}

// VerifyWager runs one best-of-3 evaluation and returns the tally
func (a *API) VerifyWager(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}

	result, err := a.wagers.VerifyWager(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (a *API) CancelWager(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}
	var req cancelWagerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	w, err := a.wagers.CancelWager(c.Request().Context(), id, req.RequesterID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toWagerResponse(w))
}

// Settlement lists what escrow owes for a terminal wager
func (a *API) Settlement(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}

	instructions, err := a.settlements.Instructions(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settlementResponse{
		WagerID:      id,
		Instructions: instructions,
	})
}

func (a *API) GetProfile(c echo.Context) error {
	profile, err := a.profiles.GetProfile(c.Request().Context(), c.Param("wallet"))
	if err != nil {
		return err
	}
	if profile == nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

func (a *API) UpsertProfile(c echo.Context) error {
	var req upsertProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := a.profiles.UpsertProfile(c.Request().Context(), c.Param("wallet"), req.Tag)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// GetPlayer serves display-only player statistics
func (a *API) GetPlayer(c echo.Context) error {
	tag, err := url.PathUnescape(c.Param("tag"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid player tag")
	}

	summary, err := a.profiles.GetPlayerSummary(c.Request().Context(), tag)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// WagerFeed streams state changes for one wager over a websocket
func (a *API) WagerFeed(c echo.Context) error {
	id, err := wagerID(c)
	if err != nil {
		return err
	}

	w, err := a.wagers.GetWager(c.Request().Context(), id)
	if err != nil {
		return err
	}

	a.hub.ServeWager(c.Response(), c.Request(), id, toWagerResponse(w))
	return nil
}
