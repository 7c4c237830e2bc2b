package repository

import (
	"fmt"
	"strconv"
	"time"

	"github.com/deppfellow/obsrecords/internal/database"
)

// Decoders for database.Row values. pgx and modernc sqlite report the same
// column with different Go types, so each accepts every shape seen from
// either driver.

func rowString(r database.Row, col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func rowInt64(r database.Row, col string) (int64, error) {
	switch v := r[col].(type) {
	case int64:
		return v, nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}

func rowTime(r database.Row, col string) (time.Time, error) {
	switch v := r[col].(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTime(v)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("column %s: unexpected type %T", col, v)
	}
}
