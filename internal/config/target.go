package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidBuildTarget is returned when a build-target identifier is not of the form <device>_<variant>.
var ErrInvalidBuildTarget = errors.New("invalid build target")

// BuildTarget identifies the device/variant combination being built.
type BuildTarget struct {
	// Product is the raw identifier, e.g. "a3xelte_lineage".
	Product string `validate:"required"`
	Device  string `validate:"required"`
	Variant string `validate:"required"`
}

// ParseBuildTarget splits a build-target identifier on its first underscore.
// Everything after the first underscore belongs to the variant, so "a3xelte_lineage_debug"
// yields device "a3xelte" and variant "lineage_debug".
func ParseBuildTarget(s string) (BuildTarget, error) {
	device, variant, found := strings.Cut(s, "_")
	if !found {
		return BuildTarget{}, fmt.Errorf("%w %q: expected <device>_<variant>", ErrInvalidBuildTarget, s)
	}

	if device == "" {
		return BuildTarget{}, fmt.Errorf("%w %q: device is empty", ErrInvalidBuildTarget, s)
	}

	if variant == "" {
		return BuildTarget{}, fmt.Errorf("%w %q: variant is empty", ErrInvalidBuildTarget, s)
	}

	return BuildTarget{Product: s, Device: device, Variant: variant}, nil
}

func (t BuildTarget) String() string {
	return t.Product
}

// Map returns the target fields keyed by lower-case name, as exposed to step conditions.
func (t BuildTarget) Map() map[string]string {
	return map[string]string{
		"product": t.Product,
		"device":  t.Device,
		"variant": t.Variant,
	}
}
