package model

import "github.com/google/uuid"

// NewID generates an opaque identifier unique within a run, prefixed for
// readability in logs and evidence trails (e.g. "blk_...", "tbl_...").
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
