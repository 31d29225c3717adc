package utils

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// NumericToFloat64 reads a numeric(10,2) money column for a JSON response.
// Null and unparseable values read as zero.
func NumericToFloat64(value pgtype.Numeric) float64 {
	if !value.Valid {
		return 0
	}
	if f, err := value.Float64Value(); err == nil {
		return f.Float64
	}
	raw, err := value.MarshalJSON()
	if err != nil {
		return 0
	}
	out, err := strconv.ParseFloat(strings.Trim(string(raw), `"`), 64)
	if err != nil {
		return 0
	}
	return out
}
