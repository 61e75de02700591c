package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"royalwager/domain/wagererr"
)

type errorDetail struct {
	Code    wagererr.Code `json:"code"`
	Kind    wagererr.Kind `json:"kind"`
	Message string        `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

var kindStatus = map[wagererr.Kind]int{
	wagererr.KindValidation:    http.StatusBadRequest,
	wagererr.KindNotFound:      http.StatusNotFound,
	wagererr.KindStateConflict: http.StatusConflict,
	wagererr.KindRateLimited:   http.StatusTooManyRequests,
	wagererr.KindUnauthorized:  http.StatusUnauthorized,
	wagererr.KindExternal:      http.StatusBadGateway,
	wagererr.KindInternal:      http.StatusInternalServerError,
}

// statusFor maps a domain error to its HTTP status
func statusFor(err error) int {
	// A wager with a missing profile cannot be verified until the party registers one
	if wagererr.HasCode(err, wagererr.CodeProfileMissing) {
		return http.StatusUnprocessableEntity
	}
	if status, ok := kindStatus[wagererr.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// toErrorBody renders err for a client. Untyped errors never leak their text.
func toErrorBody(err error) (int, errorBody) {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, errorBody{Error: errorDetail{
			Code:    httpCode(httpErr.Code),
			Kind:    httpKind(httpErr.Code),
			Message: fmt.Sprint(httpErr.Message),
		}}
	}

	var domainErr *wagererr.Error
	if errors.As(err, &domainErr) && domainErr.Kind() != wagererr.KindInternal {
		return statusFor(err), errorBody{Error: errorDetail{
			Code:    domainErr.Code,
			Kind:    domainErr.Kind(),
			Message: domainErr.Error(),
		}}
	}

	return http.StatusInternalServerError, errorBody{Error: errorDetail{
		Code:    wagererr.CodeInternal,
		Kind:    wagererr.KindInternal,
		Message: "internal error",
	}}
}

func httpCode(status int) wagererr.Code {
	switch status {
	case http.StatusNotFound:
		return wagererr.CodeNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return wagererr.CodeUnauthorized
	case http.StatusTooManyRequests:
		return wagererr.CodeRateLimited
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return wagererr.CodeInvalidPayload
	}
	if status >= http.StatusInternalServerError {
		return wagererr.CodeInternal
	}
	return wagererr.Code(strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_")))
}

func httpKind(status int) wagererr.Kind {
	switch status {
	case http.StatusNotFound:
		return wagererr.KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return wagererr.KindUnauthorized
	case http.StatusTooManyRequests:
		return wagererr.KindRateLimited
	}
	if status >= http.StatusInternalServerError {
		return wagererr.KindInternal
	}
	return wagererr.KindValidation
}

// errorHandler writes every handler error as {"error": {...}}
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, body := toErrorBody(err)
	fields := log.Fields{
		"method":    c.Request().Method,
		"path":      c.Path(),
		"status":    status,
		"code":      body.Error.Code,
		"requestId": c.Response().Header().Get(echo.HeaderXRequestID),
		"error":     err,
	}
	if status >= http.StatusInternalServerError {
		log.WithFields(fields).Error("Request failed")
	} else {
		log.WithFields(fields).Debug("Request rejected")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.WithError(err).Warn("Failed to write error response")
	}
}
