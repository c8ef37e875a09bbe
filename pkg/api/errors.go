package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bindicator/bindicator/pkg/whttp"
	"github.com/tidwall/gjson"
)

// ErrHouseRequired means the schedule service needs a more specific property
// before it can answer. It is recoverable by picking an address again.
var ErrHouseRequired = errors.New("HOUSE_REQUIRED")

// Error is a non-2xx response from one of the services.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	return target == ErrHouseRequired && e.Status == http.StatusPreconditionRequired
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func errorFromResponse(res *whttp.WHTTPRes) error {
	if res.StatusCode == http.StatusPreconditionRequired {
		return &Error{Status: res.StatusCode, Message: ErrHouseRequired.Error()}
	}

	msg := fmt.Sprintf("Request failed: %d", res.StatusCode)
	if gjson.ValidBytes(res.Body) {
		body := gjson.ParseBytes(res.Body)
		errText := strings.TrimSpace(body.Get("error").String())
		hint := strings.TrimSpace(body.Get("hint").String())
		switch {
		case errText != "" && hint != "":
			msg = errText + ". " + hint
		case errText != "":
			msg = errText
		}
	} else if res.HTTPTitle != "" {
		msg = res.HTTPTitle
	}
	return &Error{Status: res.StatusCode, Message: msg}
}
