package autoplay

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/okian/drivemind/internal/domain/model"
)

// Policy decides which option the bot picks.
type Policy string

// Policies.
const (
	PolicySafe         Policy = "safe"
	PolicyRisky        Policy = "risky"
	PolicyRandom       Policy = "random"
	PolicyNeutralFirst Policy = "neutral-first"
)

// Policies lists every known policy in display order.
func Policies() []Policy {
	return []Policy{PolicySafe, PolicyRisky, PolicyRandom, PolicyNeutralFirst}
}

// ParsePolicy maps a name to its Policy, ignoring case and surrounding space.
func ParsePolicy(name string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Policies() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrUnknownPolicy)
}

// Choose returns the option index the policy picks. Preferred categories are
// tried in order; when none match the first option is used. rnd is only read
// by PolicyRandom.
func (p Policy) Choose(options []model.DecisionOption, rnd *rand.Rand) int {
	if len(options) == 0 {
		return 0
	}
	switch p {
	case PolicyRandom:
		return rnd.IntN(len(options))
	case PolicyRisky:
		return firstOf(options, model.CategoryRisky, model.CategoryNeutral)
	case PolicyNeutralFirst:
		return firstOf(options, model.CategoryNeutral, model.CategorySafe)
	default:
		return firstOf(options, model.CategorySafe, model.CategoryNeutral)
	}
}

func firstOf(options []model.DecisionOption, prefs ...model.Category) int {
	for _, c := range prefs {
		for i, o := range options {
			if o.Category == c {
				return i
			}
		}
	}
	return 0
}
