// internal/repository/sqlstore/errors.go
package sqlstore

import (
	"fmt"

	"money-tracker/internal/util"
)

// storageError tags a driver failure as util.ErrStorageUnavailable while keeping the cause.
func storageError(op string, err error) error {
	return fmt.Errorf("failed to %s: %w: %w", op, util.ErrStorageUnavailable, err)
}
