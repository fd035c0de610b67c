package gservice

import (
	"errors"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Kind is the closed set of provider error categories. Google client errors
// come in several shapes (googleapi.Error, oauth2.RetrieveError, wrapped
// transport errors); Classify normalizes them once at the adapter boundary so
// downstream logic never inspects raw error fields.
type Kind int

const (
	// KindOther covers everything not otherwise classified.
	KindOther Kind = iota
	// KindUnauthorized is an HTTP 401: expired or revoked credentials.
	KindUnauthorized
	// KindNotFound is an HTTP 404 from the provider.
	KindNotFound
	// KindRateLimited is an HTTP 429 or a 403 quota rejection.
	KindRateLimited
)

// Classify maps any provider error into a Kind. nil maps to KindOther.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code)
	}

	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) && tokenErr.Response != nil {
		return classifyStatus(tokenErr.Response.StatusCode)
	}

	return KindOther
}

func classifyStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests, http.StatusForbidden:
		return KindRateLimited
	default:
		return KindOther
	}
}
