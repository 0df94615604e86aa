package auth

import (
	"testing"

	"github.com/bookme/auth-service/internal/domain"
)

func requireErrCode(t *testing.T, err error, code string) {
	t.Helper()
	switch {
	case err == nil:
		t.Fatalf("got nil error, want code %q", code)
	case !domain.Is(err, code):
		t.Fatalf("got %v, want code %q", err, code)
	}
}
