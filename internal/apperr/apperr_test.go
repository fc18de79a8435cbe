package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapsKind(t *testing.T) {
	err := New(KindRateLimited, "too many requests")
	if HTTPStatus(err) != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", HTTPStatus(err))
	}
}

func TestHTTPStatusDefaultsToInternalForPlainError(t *testing.T) {
	if HTTPStatus(errors.New("boom")) != http.StatusInternalServerError {
		t.Fatalf("expected plain errors to default to 500")
	}
}

func TestSanitizedMessagePassesThroughAllowListed(t *testing.T) {
	err := New(KindValidation, "project_id is required")
	if SanitizedMessage(err) != "project_id is required" {
		t.Fatalf("expected validation message to pass through, got %q", SanitizedMessage(err))
	}
}

func TestSanitizedMessageHidesInternalDetail(t *testing.T) {
	err := Wrap(KindInternal, "query failed", errors.New("pq: connection refused at 10.0.0.5:5432"))
	msg := SanitizedMessage(err)
	if msg == err.Cause.Error() {
		t.Fatalf("expected internal error detail to be hidden, got %q", msg)
	}
	if msg != "an internal error occurred" {
		t.Fatalf("unexpected sanitized message: %q", msg)
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("expected plain error to classify as internal")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(KindConflict, "already claimed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find wrapped cause")
	}
}

func TestJSONRPCCodeDistinctPerKind(t *testing.T) {
	seen := make(map[int]Kind)
	for kind := range jsonRPCCode {
		err := New(kind, "x")
		code := JSONRPCCode(err)
		if other, ok := seen[code]; ok {
			t.Fatalf("kinds %q and %q share JSON-RPC code %d", kind, other, code)
		}
		seen[code] = kind
	}
}
