package types

// ------------------------
// Alarm tiers
// ------------------------

type AlarmTier uint8

const (
	TierSafe AlarmTier = iota
	TierWarning
	TierDanger
)

func (t AlarmTier) String() string {
	switch t {
	case TierSafe:
		return "safe"
	case TierWarning:
		return "warning"
	case TierDanger:
		return "danger"
	default:
		return "unknown"
	}
}

// ParseAlarmTier maps the String form back to a tier.
func ParseAlarmTier(s string) (AlarmTier, bool) {
	switch s {
	case "safe":
		return TierSafe, true
	case "warning":
		return TierWarning, true
	case "danger":
		return TierDanger, true
	default:
		return TierSafe, false
	}
}

// ------------------------
// Actuator state
// ------------------------

// ActuatorState is derived from the current readings only; it carries no
// memory of earlier cycles.
type ActuatorState struct {
	Tier   AlarmTier `json:"tier"`
	PumpOn bool      `json:"pump_on"`
}
