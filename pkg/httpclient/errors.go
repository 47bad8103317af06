package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const maxErrorBody = 1 << 20

// errorEnvelope is the {"error":{...}} body every storefront service writes
// through httputil.WriteError.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError turns a non-2xx response into an error and closes its
// body. Envelope errors become AppErrors with the downstream status, so a
// 404 from the catalog is still a 404 to our caller. 5xx answers and bodies
// that are not an envelope become plain errors carrying the status and body.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return downstreamError(resp.StatusCode, env.Error.Code, env.Error.Message, service)
}

func downstreamError(status int, code, message, service string) error {
	msg := service + ": " + message
	switch status {
	case http.StatusNotFound:
		return apperrors.NotFound(service, message)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case http.StatusConflict:
		return apperrors.Conflict(msg)
	case http.StatusGone:
		return apperrors.Gone(msg)
	case http.StatusServiceUnavailable:
		e := apperrors.ServiceUnavailable(msg, nil)
		if code != "" {
			e.Code = code
		}
		return e
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%s server error (%d/%s): %s", service, status, code, message)
	}
	return &apperrors.AppError{Code: code, Message: msg, Status: status}
}
