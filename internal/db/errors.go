package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for registry operations. Check with errors.Is().
var (
	// ErrAlreadyExists indicates a repository record with the same path
	// already exists. Submissions racing on the same path hit the unique
	// path index and surface this.
	ErrAlreadyExists = errors.New("repository already exists")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository not found")
)

// wrapQueryError inspects a SurrealDB error and wraps it with the appropriate
// sentinel error if it's a known query error type. Returns the original error
// otherwise.
func wrapQueryError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		msg := queryErr.Message
		if strings.Contains(msg, "already contains") || strings.Contains(msg, "already exists") {
			return fmt.Errorf("%w: %s", ErrAlreadyExists, msg)
		}
	}

	return err
}
