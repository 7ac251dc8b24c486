package ingest

import (
	"fmt"
	"strings"

	"github.com/dafioram/litter-tracker/internal"
)

const (
	// minValidWeight is the floor below which a reading is motion noise,
	// not an animal on the scale.
	minValidWeight = 0.5

	motionMarker        = "cat detected"
	weightRecordMarker  = "weight recorded"
	reasonMachineOp     = "Machine Operation"
	reasonMotionNoScale = "Motion detected (No weight)"
)

// systemKeywords flag machine/maintenance activity regardless of weight.
var systemKeywords = []string{"clean", "cycle", "reset", "power", "bonnet", "ready", "full"}

// Classification is the outcome for one row. Unknown/Error/System are
// first-class results, not errors; Reason is the human-readable note kept for
// later review (empty means no review needed).
type Classification struct {
	Identity string
	Reason   string
}

// Classify assigns a row to a profile or to a reserved identity. It is a pure
// function of its inputs: same row, same profiles, same tolerance, same
// answer. Ties on weight distance keep the first profile in list order.
func Classify(row Row, profiles []internal.Profile, tolerance float64) Classification {
	activity := strings.ToLower(row.Activity)

	for _, k := range systemKeywords {
		if strings.Contains(activity, k) {
			return Classification{Identity: internal.IdentitySystem, Reason: reasonMachineOp}
		}
	}

	if strings.Contains(activity, motionMarker) && row.Weight < minValidWeight {
		return Classification{Identity: internal.IdentityUnknown, Reason: reasonMotionNoScale}
	}
	if row.Weight < minValidWeight {
		return Classification{
			Identity: internal.IdentityError,
			Reason:   fmt.Sprintf("Weight too low (%.1f lbs)", row.Weight),
		}
	}

	best := internal.IdentityUnknown
	closest := 99.9
	for _, p := range profiles {
		diff := row.Weight - p.TargetWeight
		if diff < 0 {
			diff = -diff
		}
		if diff < closest {
			closest = diff
			best = p.Name
		}
	}

	if closest <= tolerance {
		return Classification{Identity: best}
	}
	return Classification{
		Identity: internal.IdentityUnknown,
		Reason:   fmt.Sprintf("No match within %.1flbs (Closest: %s @ %.1f diff)", tolerance, best, closest),
	}
}
