package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesChainAndCode(t *testing.T) {
	cause := errors.New("rpc: connection refused")
	err := Wrap(cause, CodeChain, "reading on-chain controller failed")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped error to match its cause via errors.Is")
	}
	if CodeOf(err) != CodeChain {
		t.Fatalf("expected code %s, got %s", CodeChain, CodeOf(err))
	}
	if !Is(err, CodeChain) {
		t.Fatalf("expected Is to report %s", CodeChain)
	}

	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected a *DomainError in the chain")
	}
	if de.Message != "reading on-chain controller failed" {
		t.Fatalf("unexpected message %q", de.Message)
	}
}

func TestWrapSurvivesFurtherWrapping(t *testing.T) {
	cause := errors.New("receipt missing")
	err := fmt.Errorf("accept: %w", Wrap(cause, CodeChain, "confirmation failed"))

	if CodeOf(err) != CodeChain {
		t.Fatalf("expected code to survive fmt.Errorf wrapping, got %s", CodeOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected the original cause to remain reachable")
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeInternal {
		t.Fatalf("expected %s for non-domain errors, got %s", CodeInternal, got)
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeInvalidState, http.StatusConflict},
		{CodeGuardianMismatch, http.StatusForbidden},
		{CodeBiometricMismatch, http.StatusUnprocessableEntity},
		{CodeChain, http.StatusBadGateway},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := ToHTTPStatus(tc.code); got != tc.want {
			t.Fatalf("code %s: expected status %d, got %d", tc.code, tc.want, got)
		}
	}
}
