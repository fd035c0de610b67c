package gservice

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		expected Kind
	}{
		{name: "nil", err: nil, expected: KindOther},
		{name: "plain error", err: errors.New("boom"), expected: KindOther},
		{
			name:     "googleapi 401",
			err:      &googleapi.Error{Code: http.StatusUnauthorized},
			expected: KindUnauthorized,
		},
		{
			name:     "wrapped googleapi 401",
			err:      fmt.Errorf("messages.List failed: %w", &googleapi.Error{Code: http.StatusUnauthorized}),
			expected: KindUnauthorized,
		},
		{
			name:     "googleapi 404",
			err:      &googleapi.Error{Code: http.StatusNotFound},
			expected: KindNotFound,
		},
		{
			name:     "googleapi 429",
			err:      &googleapi.Error{Code: http.StatusTooManyRequests},
			expected: KindRateLimited,
		},
		{
			name:     "googleapi 403 quota",
			err:      &googleapi.Error{Code: http.StatusForbidden},
			expected: KindRateLimited,
		},
		{
			name:     "googleapi 500",
			err:      &googleapi.Error{Code: http.StatusInternalServerError},
			expected: KindOther,
		},
		{
			name: "oauth2 retrieve 401",
			err: &oauth2.RetrieveError{
				Response: &http.Response{StatusCode: http.StatusUnauthorized},
			},
			expected: KindUnauthorized,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(tc.err))
		})
	}
}
