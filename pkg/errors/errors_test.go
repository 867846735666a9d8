package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestMetadataForKnownCodes(t *testing.T) {
	if meta := MetadataFor(CodeNotFound); meta.HTTPStatus != http.StatusNotFound {
		t.Fatalf("not found should map to 404, got %d", meta.HTTPStatus)
	}
	if meta := MetadataFor(CodeStateConflict); meta.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("state conflict should map to 422, got %d", meta.HTTPStatus)
	}
	if meta := MetadataFor(Code("BOGUS")); meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown code should map to 500, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row missing")
	err := Wrap(CodeNotFound, cause, "cart not found")

	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
	if typed := As(fmt.Errorf("outer: %w", err)); typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("As should find the typed error through wrapping, got %v", typed)
	}
}

func TestWrapNilCause(t *testing.T) {
	err := Wrap(CodeValidation, nil, "quantity must be positive")
	if err.Unwrap() != nil {
		t.Fatal("nil cause should not produce an unwrap target")
	}
	if err.Code() != CodeValidation {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"quantity": "must be at least 1"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["quantity"] != "must be at least 1" {
		t.Fatalf("details not preserved: %#v", err.Details())
	}
}

func TestDumpExtractsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "uq_cart_company_user_active",
		TableName:      "cart",
	}
	err := Wrap(CodeDependency, fmt.Errorf("insert cart: %w", pgErr), "insert failed")

	dump := Dump(err)
	if dump.PGCode != "23505" {
		t.Fatalf("expected sqlstate 23505, got %q", dump.PGCode)
	}
	if dump.PGConstraint != "uq_cart_company_user_active" {
		t.Fatalf("expected constraint name, got %q", dump.PGConstraint)
	}
	if dump.Code != CodeDependency {
		t.Fatalf("expected typed code in dump, got %q", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected unwrap chain, got %v", dump.Chain)
	}
}
