package steps

import (
	"context"
	"fmt"

	"github.com/exynos7580/releasetools/internal/engine"
	"github.com/exynos7580/releasetools/internal/ota"
)

const (
	WelcomeMessageStepKind = "welcome_message"
	UIPrintStepKind        = "ui_print"
)

func NewWelcomeMessageStep(name string) engine.Step {
	return engine.StepFunction(name, WelcomeMessageStepKind, func(_ context.Context, info *ota.Info) error {
		return ota.InjectWelcomeMessage(info.Script)
	})
}

// NewUIPrintStep appends one ui_print instruction per line, in order.
func NewUIPrintStep(name string, lines []string) (engine.Step, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("at least one line is required")
	}

	instructions := make([]string, 0, len(lines))
	for _, line := range lines {
		instruction := ota.UIPrint(line)
		if err := checkSingleLine(instruction); err != nil {
			return nil, err
		}
		instructions = append(instructions, instruction)
	}

	return engine.StepFunction(name, UIPrintStepKind, func(_ context.Context, info *ota.Info) error {
		for _, instruction := range instructions {
			if err := info.Script.AppendExtra(instruction); err != nil {
				return err
			}
		}
		return nil
	}), nil
}

// checkSingleLine rejects lines a script buffer would refuse, so bad jobs fail before anything is written.
func checkSingleLine(instruction string) error {
	return ota.NewScript().AppendExtra(instruction)
}
