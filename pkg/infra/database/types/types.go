package types

import (
	"database/sql/driver"
	"fmt"

	"github.com/lib/pq"
)

// StringList maps a Go string slice onto a postgres TEXT[] column.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return pq.Array([]string{}).Value()
	}
	return pq.Array([]string(s)).Value()
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	var out []string
	if err := pq.Array(&out).Scan(value); err != nil {
		return fmt.Errorf("failed to scan string list: %w", err)
	}
	*s = out
	return nil
}
