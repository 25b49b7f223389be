// Package common defines shared sentinel errors used across the spacekeeper
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrorPermissionDenied = errors.New("insufficient permissions")
)
