package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidPatch = errors.New("invalid patch")

// Patch is a partial ad as sent by a client: only the keys present are applied.
type Patch map[string]json.RawMessage

// protectedKeys are owned by the store and never taken from a patch.
var protectedKeys = map[string]struct{}{
	"id":        {},
	"userId":    {},
	"createdAt": {},
	"updatedAt": {},
}

// ApplyPatch merges the patch keys onto a copy of ad and returns the copy.
// A JSON null clears the field. Keys belonging to another category are
// dropped unless the patch also switches type to that category.
func ApplyPatch(ad *Ad, patch Patch) (*Ad, error) {
	current, err := json.Marshal(ad)
	if err != nil {
		return nil, fmt.Errorf("failed to encode ad: %w", err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(current, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode ad fields: %w", err)
	}

	for key, value := range patch {
		if _, ok := protectedKeys[key]; ok {
			continue
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			delete(fields, key)
			continue
		}
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patched ad: %w", err)
	}

	var patched Ad
	if err := json.Unmarshal(merged, &patched); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	patched.ID = ad.ID
	patched.UserID = ad.UserID
	patched.CreatedAt = ad.CreatedAt
	patched.UpdatedAt = ad.UpdatedAt

	return &patched, nil
}
