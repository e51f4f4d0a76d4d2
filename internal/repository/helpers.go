package repository

import (
	"database/sql"
	"strings"
	"time"
)

// isDuplicateKey reports a MySQL 1062 duplicate-entry error.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}

// isFKViolation reports a MySQL 1451/1452 foreign-key error.
func isFKViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "1451") || strings.Contains(err.Error(), "1452")
}

// dateLayout is the format used for DATE column parameters.  Passing dates
// as strings avoids driver timezone shifts on DATE columns.
const dateLayout = "2006-01-02"

func nullID(id *uint64) any {
	if id == nil {
		return nil
	}
	return *id
}

func nullDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}

// requireRow maps a zero-row UPDATE or DELETE to ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',', ' ')
		}
		b = append(b, '?')
	}
	return string(b)
}

func idArgs(ids []uint64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
