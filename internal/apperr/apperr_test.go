package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("message text is required"), http.StatusBadRequest},
		{"not found", NotFound("chat not found"), http.StatusNotFound},
		{"relay with provider code", Relay(429, "quota exceeded"), 429},
		{"relay with bogus code", Relay(0, "transport failure"), http.StatusInternalServerError},
		{"store", Store("write failed", errors.New("nats: timeout")), http.StatusInternalServerError},
		{"internal", Internal("oops", nil), http.StatusInternalServerError},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", NotFound("chat not found")), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HTTPStatus(tc.err); got != tc.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	err := Store("write failed", errors.New("nats: timeout"))
	if got := Message(err); got != "write failed" {
		t.Errorf("Message() = %q, want the user-facing message without the cause", got)
	}
	if got := err.Error(); got != "write failed: nats: timeout" {
		t.Errorf("Error() = %q", got)
	}
	if got := Message(errors.New("plain")); got != "plain" {
		t.Errorf("Message(plain) = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(Validation("nope")); got != KindValidation {
		t.Errorf("KindOf(validation) = %v", got)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want KindInternal", got)
	}
	if !errors.Is(Store("write failed", errUnderlying), errUnderlying) {
		t.Error("wrapped cause not reachable via errors.Is")
	}
}

var errUnderlying = errors.New("underlying")
