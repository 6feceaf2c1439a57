package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned by single-record lookups that match nothing.
	ErrNotFound = errors.New("offer not found")
	// ErrStoreUnavailable means the store could not be reached.
	ErrStoreUnavailable = errors.New("offer store unavailable")
	// ErrTableMissing means a referenced table does not exist.
	ErrTableMissing = errors.New("offer store table missing")
	// ErrAccessDenied means the store rejected the credentials.
	ErrAccessDenied = errors.New("offer store access denied")
)

// MySQL server error numbers.
const (
	mysqlDBAccessDenied  = 1044
	mysqlAccessDenied    = 1045
	mysqlNoSuchTable     = 1146
	mysqlConnectionError = 2002
	mysqlConnHostError   = 2003
)

// Classify wraps driver errors with one of the store sentinels so the HTTP
// layer can choose a status with errors.Is. Unrecognized errors are returned
// unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrTableMissing) ||
		errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrNotFound) {
		return err
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlAccessDenied, mysqlDBAccessDenied:
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		case mysqlNoSuchTable:
			return fmt.Errorf("%w: %v", ErrTableMissing, err)
		case mysqlConnectionError, mysqlConnHostError:
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrCantOpen:
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		case sqlite3.ErrAuth, sqlite3.ErrPerm:
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
		if strings.Contains(liteErr.Error(), "no such table") {
			return fmt.Errorf("%w: %v", ErrTableMissing, err)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if strings.Contains(err.Error(), "no such table") {
		return fmt.Errorf("%w: %v", ErrTableMissing, err)
	}

	return err
}
