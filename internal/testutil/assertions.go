package testutil

import (
	"errors"
	"math"
	"testing"

	apperrors "stratalpha/internal/errors"
)

// AssertAppError checks that err unwraps to an *AppError carrying wantCode.
func AssertAppError(t *testing.T, err error, wantCode string) {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected AppError with code %q, got nil", wantCode)
	case !errors.As(err, &appErr):
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	case appErr.Code != wantCode:
		t.Errorf("expected error code %q, got %q (message: %s)", wantCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test when err is non-nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertInDelta fails the test unless got is within delta of want.
// NaN values always fail; use math.IsNaN directly when NaN is the
// expected outcome.
func AssertInDelta(t *testing.T, want, got, delta float64) {
	t.Helper()

	if math.IsNaN(got) {
		t.Fatalf("expected %g, got NaN", want)
	}
	if math.Abs(want-got) > delta {
		t.Errorf("expected %g ± %g, got %g (diff %g)", want, delta, got, math.Abs(want-got))
	}
}
