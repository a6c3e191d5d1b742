package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gte returns a ParamValidator that checks if the argument is greater than or equal to the value captured in the closure.
func gte(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue >= closedValue
	})
}

// between returns a ParamValidator that checks min <= argument <= max.
func between(minValue, maxValue int64) ParamValidator {
	return func(argValue int64) bool {
		return gte(minValue)(argValue) && argValue <= maxValue
	}
}

// ParseValidateGte reads an optional query parameter that must be >= value, falling back to def.
func ParseValidateGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, value int64, def int32) (int32, bool) {
	return parseValidate(r, w, logger, key, def, gte(value))
}

// ParseValidateBetween reads an optional query parameter that must be within [minValue, maxValue], falling back to def.
func ParseValidateBetween(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, minValue, maxValue int64, def int32) (int32, bool) {
	return parseValidate(r, w, logger, key, def, between(minValue, maxValue))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int32, pValidator ParamValidator) (int32, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondFail(w, logger, KindValidation, fmt.Sprintf("Invalid %s number: %s", key, value), nil)
		return 0, false
	}
	return int32(intValue), true
}
