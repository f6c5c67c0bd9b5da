// Package units provides shared constants and conversion for report units.
package units

// Length unit constants. The pipeline computes in metres; reports may request
// centimetres or inches.
const (
	M  = "m"
	CM = "cm"
	IN = "in"
)

// Speed unit constants. The pipeline computes in m/s.
const (
	MPS  = "mps"
	KMPH = "kmph"
)

// ValidLengthUnits contains all valid length unit values
var ValidLengthUnits = []string{M, CM, IN}

// ValidSpeedUnits contains all valid speed unit values
var ValidSpeedUnits = []string{MPS, KMPH}

// IsValidLength checks if the given unit is in the list of valid length units
func IsValidLength(unit string) bool {
	for _, validUnit := range ValidLengthUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// IsValidSpeed checks if the given unit is in the list of valid speed units
func IsValidSpeed(unit string) bool {
	for _, validUnit := range ValidSpeedUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidLengthUnitsString returns a comma-separated string of valid length
// units for error messages
func GetValidLengthUnitsString() string {
	return "m, cm, in"
}

// ConvertLength converts a length from metres to the target units
func ConvertLength(lengthM float64, targetUnits string) float64 {
	switch targetUnits {
	case CM:
		return lengthM * 100
	case IN:
		return lengthM * 39.3700787402
	case M:
		return lengthM
	default:
		return lengthM
	}
}

// ConvertSpeed converts a speed from metres per second to the target units
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case KMPH:
		return speedMPS * 3.6
	case MPS:
		return speedMPS
	default:
		return speedMPS
	}
}
