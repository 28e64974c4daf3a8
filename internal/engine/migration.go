package engine

import (
	"context"
	"fmt"
)

// Migrate copies every record from src into dst and returns the number of records copied.
// This works for:
// - File -> SQL (the "Upgrade")
// - SQL -> File (the "Backup/Offline")
func Migrate(ctx context.Context, src RecordStore, dst RecordStore) (int, error) {
	users, err := src.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list users: %w", err)
	}

	copied := 0
	for _, userID := range users {
		apis, err := src.ListAPIs(ctx, userID)
		if err != nil {
			return copied, fmt.Errorf("failed to list apis for user %s: %w", userID, err)
		}

		for _, apiName := range apis {
			rec, err := src.Get(ctx, userID, apiName)
			if err != nil {
				return copied, fmt.Errorf("failed to read api %s of user %s: %w", apiName, userID, err)
			}
			if err := dst.Save(ctx, apiName, rec); err != nil {
				return copied, fmt.Errorf("failed to write api %s of user %s: %w", apiName, userID, err)
			}
			copied++
		}
	}

	return copied, nil
}
