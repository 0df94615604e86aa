package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_MessageFormat(t *testing.T) {
	t.Parallel()

	e := New(KindAuth, "token_invalid", "invalid token")
	if e.Error() != "auth (token_invalid): invalid token" {
		t.Fatalf("unexpected format: %q", e.Error())
	}

	cause := errors.New("bad signature")
	we := Wrap(KindAuth, "token_invalid", "invalid token", cause)
	if we.Error() != "auth (token_invalid): invalid token: bad signature" {
		t.Fatalf("unexpected format: %q", we.Error())
	}
}

func TestError_UnwrapChain(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	e := ErrDBUnavailable(cause)

	if !errors.Is(e, cause) {
		t.Fatalf("expected errors.Is to find the cause")
	}

	// wrapping with fmt keeps the domain error findable
	wrapped := fmt.Errorf("query users: %w", e)
	if !Is(wrapped, "db_unavailable") {
		t.Fatalf("expected code match through wrapping")
	}
}

func TestIs(t *testing.T) {
	t.Parallel()

	if Is(nil, "anything") {
		t.Fatalf("nil must not match")
	}
	if Is(errors.New("plain"), "anything") {
		t.Fatalf("plain error must not match")
	}
	if !Is(ErrOtpExpired(), "otp_expired") {
		t.Fatalf("expected match")
	}
	if Is(ErrOtpExpired(), "otp_invalid") {
		t.Fatalf("wrong code must not match")
	}
}

func TestErrMissingField_Meta(t *testing.T) {
	t.Parallel()

	e := ErrMissingField("email")
	if e.Meta["field"] != "email" {
		t.Fatalf("expected field meta, got %v", e.Meta)
	}
	if e.Kind != KindValidation {
		t.Fatalf("expected validation kind, got %v", e.Kind)
	}
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  *Error
		kind ErrKind
	}{
		{ErrOtpExpired(), KindValidation},
		{ErrInvalidOtp(), KindValidation},
		{ErrInvalidCredentials(), KindAuth},
		{ErrTokenInvalid(), KindAuth},
		{ErrTokenExpired(), KindAuth},
		{ErrAccountDisabled(), KindForbidden},
		{ErrUserNotFound(), KindNotFound},
		{ErrEmailAlreadyExists(), KindConflict},
		{ErrUsernameAlreadyExists(), KindConflict},
		{ErrAlreadyVerified(), KindConflict},
		{ErrDBUnavailable(nil), KindInfrastructure},
		{ErrHashFailed(nil), KindInternal},
	}
	for _, tc := range cases {
		if tc.err.Kind != tc.kind {
			t.Fatalf("%s: expected kind %s, got %s", tc.err.Code, tc.kind, tc.err.Kind)
		}
	}
}
