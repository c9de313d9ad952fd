package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
)

// ParseQueryInt reads an optional bounded integer query parameter.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "query parameter must be numeric", nil)
	}
	if value < min || value > max {
		return 0, queryError(key, "query parameter out of range", map[string]any{"min": min, "max": max})
	}
	return value, nil
}

// ParseQueryBool reads an optional boolean flag such as in_stock=true. A bare
// key (?in_stock) counts as true.
func ParseQueryBool(r *http.Request, key string) (bool, error) {
	values, present := r.URL.Query()[key]
	if !present {
		return false, nil
	}
	raw := strings.TrimSpace(values[0])
	if raw == "" {
		return true, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, queryError(key, "query parameter must be true or false", nil)
	}
	return value, nil
}

// ParseQueryEnum reads an optional enum value through parse. An absent key
// returns the zero value and false.
func ParseQueryEnum[T ~string](r *http.Request, key string, parse func(string) (T, error)) (T, bool, error) {
	var zero T
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return zero, false, nil
	}
	value, err := parse(raw)
	if err != nil {
		return zero, false, queryError(key, "invalid "+key, nil)
	}
	return value, true, nil
}

func queryError(key, msg string, extra map[string]any) *pkgerrors.Error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}
