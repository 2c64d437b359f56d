// Package compliance decides, per person observation, whether required
// safety equipment is present, and turns confirmed decisions into
// deduplicated compliance events.
package compliance

import "fmt"

// ViolationType is the closed set of compliance outcomes for one
// observation. Decision logic is decoupled from presentation: String
// returns the stable wire form used in the event log, Label the
// human-readable display text.
type ViolationType int

const (
	Compliant ViolationType = iota
	NoHelmet
	NoVest
	NoHelmetNoVest
)

// ViolationFromFlags derives the violation type from post-correction
// equipment presence.
func ViolationFromFlags(hasHelmet, hasVest bool) ViolationType {
	switch {
	case hasHelmet && hasVest:
		return Compliant
	case !hasHelmet && hasVest:
		return NoHelmet
	case hasHelmet && !hasVest:
		return NoVest
	default:
		return NoHelmetNoVest
	}
}

// IsViolation reports whether the outcome is anything other than Compliant.
func (v ViolationType) IsViolation() bool {
	return v != Compliant
}

// String returns the stable form persisted in the event log.
func (v ViolationType) String() string {
	switch v {
	case Compliant:
		return "compliant"
	case NoHelmet:
		return "no_helmet"
	case NoVest:
		return "no_vest"
	case NoHelmetNoVest:
		return "no_helmet_no_vest"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

// Label returns display text for annotations and reports.
func (v ViolationType) Label() string {
	switch v {
	case Compliant:
		return "COMPLIANT"
	case NoHelmet:
		return "NO HELMET"
	case NoVest:
		return "NO VEST"
	case NoHelmetNoVest:
		return "NO HELMET & NO VEST"
	default:
		return "UNKNOWN"
	}
}

// ParseViolationType converts the stable wire form back to the enum.
func ParseViolationType(s string) (ViolationType, error) {
	switch s {
	case "compliant":
		return Compliant, nil
	case "no_helmet":
		return NoHelmet, nil
	case "no_vest":
		return NoVest, nil
	case "no_helmet_no_vest":
		return NoHelmetNoVest, nil
	default:
		return Compliant, fmt.Errorf("unknown violation type %q", s)
	}
}
