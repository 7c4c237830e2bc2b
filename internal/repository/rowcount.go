package repository

import (
	"fmt"
	"strconv"
)

// RowCount is the affected-row count of a write: either a valid count or an
// anomaly carrying whatever the driver reported instead.
type RowCount struct {
	n       int64
	raw     any
	anomaly bool
}

// Rows is a valid, non-negative affected-row count.
func Rows(n int64) RowCount {
	return RowCount{n: n}
}

// Anomaly is a count the driver could not report as a non-negative integer.
func Anomaly(raw any) RowCount {
	return RowCount{raw: raw, anomaly: true}
}

// Value returns the count and whether it is valid.
func (c RowCount) Value() (int64, bool) {
	if c.anomaly {
		return 0, false
	}
	return c.n, true
}

func (c RowCount) IsAnomaly() bool {
	return c.anomaly
}

// Raw is what the driver reported for an anomaly.
func (c RowCount) Raw() any {
	return c.raw
}

// Int renders the count for messages, with -1 standing for an anomaly.
func (c RowCount) Int() int64 {
	if c.anomaly {
		return -1
	}
	return c.n
}

func (c RowCount) String() string {
	if c.anomaly {
		return fmt.Sprintf("-1 (anomaly: %v)", c.raw)
	}
	return strconv.FormatInt(c.n, 10)
}
