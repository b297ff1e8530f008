package plugin

import (
	"fmt"
	"strings"
)

// ValidateDryWet rejects mixes outside [0,100]. Values are never clamped.
func ValidateDryWet(v int) error {
	if v < 0 || v > 100 {
		return fmt.Errorf("%w: %d", ErrDryWetOutOfRange, v)
	}
	return nil
}

// ValidateInstance checks every field of an instance.
func ValidateInstance(inst Instance) error {
	if err := CheckPlugin(inst.PluginID); err != nil {
		return err
	}
	if err := CheckProgram(inst.ProgramID); err != nil {
		return err
	}
	return ValidateDryWet(inst.DryWet)
}

// ValidateName rejects blank catalog names.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidInput
	}
	return nil
}
