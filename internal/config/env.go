// Package config holds the build environment the packaging tools run in.
//
// The environment is read once at startup (TOP, OUT, TARGET_PRODUCT) and passed
// explicitly to the components that need it.
package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

const (
	EnvTop           = "TOP"
	EnvOut           = "OUT"
	EnvTargetProduct = "TARGET_PRODUCT"
)

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// Environment is the build environment of one packaging invocation.
type Environment struct {
	// TopDir is the root of the source tree.
	TopDir string `validate:"required"`
	// OutDir is the product output directory.
	OutDir string      `validate:"required"`
	Target BuildTarget `validate:"required"`
}

// NewEnvironment builds and validates an Environment from raw values.
// All problems are reported together.
func NewEnvironment(top, out, target string) (Environment, error) {
	var errs error

	if top == "" {
		errs = errors.Join(errs, fmt.Errorf("%s is not set", EnvTop))
	}
	if out == "" {
		errs = errors.Join(errs, fmt.Errorf("%s is not set", EnvOut))
	}

	var bt BuildTarget
	if target == "" {
		errs = errors.Join(errs, fmt.Errorf("%s is not set", EnvTargetProduct))
	} else {
		parsed, err := ParseBuildTarget(target)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", EnvTargetProduct, err))
		}
		bt = parsed
	}

	if errs != nil {
		return Environment{}, errs
	}

	env := Environment{
		TopDir: filepath.Clean(top),
		OutDir: filepath.Clean(out),
		Target: bt,
	}

	if err := defaultValidator.Struct(env); err != nil {
		return Environment{}, fmt.Errorf("failed to validate environment: %w", err)
	}

	return env, nil
}

// FromLookup reads the environment through lookup, typically os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Environment, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}
	return NewEnvironment(get(EnvTop), get(EnvOut), get(EnvTargetProduct))
}

// Variables returns the environment as template variables.
func (e Environment) Variables() map[string]string {
	return map[string]string{
		EnvTop:           e.TopDir,
		EnvOut:           e.OutDir,
		EnvTargetProduct: e.Target.Product,
		"TARGET_DEVICE":  e.Target.Device,
		"TARGET_VARIANT": e.Target.Variant,
	}
}

// DefaultOverridesDir is where a device keeps its OTA override files unless a job says otherwise.
func (e Environment) DefaultOverridesDir() string {
	return filepath.Join(e.TopDir, "device", e.Target.Device, "overrides")
}
