package config

import (
	"fmt"
	"time"
)

// ValidatePositiveDuration reports an error unless d is strictly
// positive.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %s", d)
	}
	return nil
}

// ValidateDurationRange reports an error unless min <= d <= max.
func ValidateDurationRange(d, min, max time.Duration) error {
	if d < min || d > max {
		return fmt.Errorf("duration %s out of range [%s, %s]", d, min, max)
	}
	return nil
}
