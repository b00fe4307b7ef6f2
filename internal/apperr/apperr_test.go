package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindMatching(t *testing.T) {
	t.Parallel()

	base := Wrap(KindAuth, "oauth.Exchange", "token request rejected", errors.New("boom"))
	base.Status = http.StatusForbidden
	wrapped := fmt.Errorf("get access token: %w", base)

	if !errors.Is(wrapped, Auth) {
		t.Error("errors.Is(wrapped, Auth) = false, want true")
	}
	if errors.Is(wrapped, NotFound) {
		t.Error("errors.Is(wrapped, NotFound) = true, want false")
	}
	if got := KindOf(wrapped); got != KindAuth {
		t.Errorf("KindOf() = %v, want %v", got, KindAuth)
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want %v", got, KindInternal)
	}

	want := "oauth.Exchange: token request rejected (status 403): boom"
	if base.Error() != want {
		t.Errorf("Error() = %q, want %q", base.Error(), want)
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindNotFound, http.StatusNotFound},
		{KindConfiguration, http.StatusInternalServerError},
		{KindSigning, http.StatusInternalServerError},
		{KindAuth, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tc.kind); got != tc.want {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tc.kind, got, tc.want)
			}
		})
	}
}
