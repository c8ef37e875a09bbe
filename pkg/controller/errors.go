package controller

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bindicator/bindicator/pkg/api"
	"github.com/bindicator/bindicator/pkg/postcode"
)

// FriendlyError turns err into the message shown to the user. Cancellation
// is not a failure and maps to "".
func FriendlyError(err error) string {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, postcode.ErrInvalid):
		return "Please enter a valid UK postcode."
	case errors.Is(err, ErrNoAddresses):
		return "No addresses found for that postcode."
	case errors.Is(err, api.ErrHouseRequired):
		return "More details are needed to identify this property. Please choose your address again."
	}

	switch api.StatusCode(err) {
	case http.StatusNotFound:
		return "Postcode not found. Please enter another address."
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return "Could not reach the council service. Please try again shortly."
	}

	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return "Something went wrong."
}
