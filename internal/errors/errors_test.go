package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindUnknown, "unknown"},
		{KindConfig, "configuration"},
		{KindRegistry, "registry"},
		{KindNotEligible, "not_eligible"},
		{KindValidation, "validation"},
		{KindAuth, "auth"},
		{KindTimeout, "timeout"},
		{KindCanceled, "canceled"},
		{KindInternal, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  &Error{Message: "something failed"},
			want: "something failed",
		},
		{
			name: "op and message",
			err:  &Error{Op: "client.ListVersions", Message: "request failed"},
			want: "client.ListVersions: request failed",
		},
		{
			name: "op, message and wrapped error",
			err:  &Error{Op: "client.PatchVersion", Message: "patch failed", Err: errors.New("boom")},
			want: "client.PatchVersion: patch failed: boom",
		},
		{
			name: "message and wrapped error",
			err:  &Error{Message: "patch failed", Err: errors.New("boom")},
			want: "patch failed: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := Registry("client.ListVersions", "request failed")

	if !errors.Is(err, &Error{Kind: KindRegistry}) {
		t.Error("expected sentinel match by kind")
	}
	if !errors.Is(err, &Error{Kind: KindRegistry, Op: "client.ListVersions"}) {
		t.Error("expected match by kind and op")
	}
	if errors.Is(err, &Error{Kind: KindConfig}) {
		t.Error("unexpected match for different kind")
	}
	if errors.Is(err, &Error{Kind: KindRegistry, Op: "client.PatchVersion"}) {
		t.Error("unexpected match for different op")
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := RegistryWrap(inner, "op", "msg")

	if !errors.Is(err, inner) {
		t.Error("expected wrapped error to match via errors.Is")
	}
	if err.Unwrap() != inner {
		t.Error("Unwrap() did not return inner error")
	}
}

func TestGetKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil-like plain error", errors.New("plain"), KindUnknown},
		{"config error", Config("op", "msg"), KindConfig},
		{"wrapped in fmt", fmt.Errorf("outer: %w", NotEligible("op", "msg")), KindNotEligible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetKind(tt.err); got != tt.want {
				t.Errorf("GetKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitOK},
		{"config error", Config("op", "missing base url"), ExitConfig},
		{"wrapped config error", fmt.Errorf("startup: %w", Config("op", "missing token")), ExitConfig},
		{"registry error", Registry("op", "server returned 500"), ExitFailure},
		{"not eligible", NotEligible("op", "target absent"), ExitFailure},
		{"plain error", errors.New("boom"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWithDetail(t *testing.T) {
	err := Registry("op", "msg").WithDetail("status", 502).WithDetail("app", "bookverse-web")

	if err.Details["status"] != 502 {
		t.Errorf("Details[status] = %v, want 502", err.Details["status"])
	}
	if err.Details["app"] != "bookverse-web" {
		t.Errorf("Details[app] = %v, want bookverse-web", err.Details["app"])
	}
}
