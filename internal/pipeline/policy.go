// Package pipeline turns raw adapter candidates into the final bounded,
// prioritized annotation set.  It owns gating, the generic-content filter,
// per-category caps, and candidate-to-annotation conversion.
package pipeline

import (
	"github.com/annolens/annolens/pkg/errors"
)

// GatingPolicy selects how aggressively AI-likeness findings are surfaced.
type GatingPolicy string

const (
	// PolicySmart surfaces an AI warning only above a high likelihood score
	// and pattern highlights only above a very high one.
	PolicySmart GatingPolicy = "smart"
	// PolicyPermissive surfaces an AI warning at a much lower score.  It is
	// kept for users who prefer recall over precision.
	PolicyPermissive GatingPolicy = "permissive"
)

// Likelihood-score thresholds per policy.
const (
	smartWarningScore    = 70
	smartHighlightScore  = 85
	permissiveWarnsAbove = 40
)

// ParsePolicy validates a policy name from config or an API request.
func ParsePolicy(s string) (GatingPolicy, error) {
	switch GatingPolicy(s) {
	case PolicySmart:
		return PolicySmart, nil
	case PolicyPermissive:
		return PolicyPermissive, nil
	default:
		return "", errors.New(errors.ErrCodePipelinePolicy, "unknown gating policy: "+s)
	}
}

// surfaceWarning reports whether an AI warning with the given score passes
// the policy's threshold.
func (p GatingPolicy) surfaceWarning(score int) bool {
	switch p {
	case PolicyPermissive:
		return score > permissiveWarnsAbove
	default:
		return score > smartWarningScore
	}
}

// surfaceHighlights reports whether pattern highlights are surfaced at all
// for the given score.  Permissive mode shows them alongside any surfaced
// warning; smart mode requires the higher threshold.
func (p GatingPolicy) surfaceHighlights(score int) bool {
	switch p {
	case PolicyPermissive:
		return score > permissiveWarnsAbove
	default:
		return score > smartHighlightScore
	}
}
