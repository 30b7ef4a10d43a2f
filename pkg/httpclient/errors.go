package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/flexfit/storefront/pkg/errors"
)

// RemoteError mirrors the error body returned by a PostgREST-style backend:
// {"code":"PGRST116","message":"...","details":"...","hint":null}.
type RemoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// ParseResponseError reads a non-2xx response and translates it into an
// AppError. The body is consumed and closed.
func ParseResponseError(resp *http.Response, remote string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", remote, resp.StatusCode, err)
	}

	message := string(body)
	var re RemoteError
	if json.Unmarshal(body, &re) == nil && re.Message != "" {
		message = re.Message
	}
	qualified := fmt.Sprintf("%s: %s", remote, message)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(remote, message)
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	case resp.StatusCode == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case resp.StatusCode == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(qualified)
	default:
		return fmt.Errorf("%s returned status %d: %s", remote, resp.StatusCode, message)
	}
}
