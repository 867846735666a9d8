package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/selliohq/cart-backend/pkg/errors"
	"github.com/selliohq/cart-backend/pkg/pagination"
)

// Int64URLParam parses a positive int64 route parameter.
func Int64URLParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a positive integer", name))
	}
	return value, nil
}

// Int64Query parses a required positive int64 query value.
func Int64Query(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", name))
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a positive integer", name))
	}
	return value, nil
}

// OptionalInt64Query parses an optional positive int64 query value,
// returning zero when the parameter is absent.
func OptionalInt64Query(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a positive integer", name))
	}
	return value, nil
}

// OptionalIntQuery parses an optional non-negative int query value.
func OptionalIntQuery(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return value, nil
}

// PaginationQuery reads limit/offset query values into normalized params.
func PaginationQuery(r *http.Request) (pagination.Params, error) {
	limit, err := OptionalIntQuery(r, "limit")
	if err != nil {
		return pagination.Params{}, err
	}
	offset, err := OptionalIntQuery(r, "offset")
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Limit: limit, Offset: offset}.Normalize(), nil
}
