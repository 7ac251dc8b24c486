package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/storage"
)

// CorrectionKind is the closed set of correction actions. The raw action
// string "delete"/"blacklist"/"restore" maps to the reserved kinds; any other
// string is a valid identity and maps to Reassign.
type CorrectionKind int

const (
	CorrectionDelete CorrectionKind = iota
	CorrectionBlacklist
	CorrectionRestore
	CorrectionReassign
)

// Correction is a resolved correction action. Identity is set only for
// Reassign.
type Correction struct {
	Kind     CorrectionKind
	Identity string
}

// ParseCorrection resolves the raw action string before it reaches the
// ledger.
func ParseCorrection(action string) Correction {
	switch action {
	case "delete":
		return Correction{Kind: CorrectionDelete}
	case "blacklist":
		return Correction{Kind: CorrectionBlacklist}
	case "restore":
		return Correction{Kind: CorrectionRestore}
	default:
		return Correction{Kind: CorrectionReassign, Identity: action}
	}
}

// ApplyCorrection executes one correction against the ledger. A missing
// target surfaces as a named, user-visible failure; it never cascades into
// other pending corrections.
func ApplyCorrection(ctx context.Context, events storage.EventRepository, blacklist storage.BlacklistRepository, key string, c Correction) error {
	var err error
	switch c.Kind {
	case CorrectionDelete:
		err = events.DeleteEvent(ctx, key)
	case CorrectionBlacklist:
		err = blacklist.BlacklistEvent(ctx, key)
	case CorrectionRestore:
		_, err = blacklist.RestoreFromBlacklist(ctx, key)
	case CorrectionReassign:
		err = events.UpdateEventIdentity(ctx, key, c.Identity)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return internal.NewAppError(404, fmt.Sprintf("could not find record %q to correct", key))
	}
	return err
}
