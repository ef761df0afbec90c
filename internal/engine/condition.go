package engine

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// ConditionInput is what a step condition can see: the build target
// (product, device, variant) and the job variables.
type ConditionInput struct {
	Target map[string]string
	Vars   map[string]string
}

func (in ConditionInput) activation() map[string]any {
	target := in.Target
	if target == nil {
		target = map[string]string{}
	}
	vars := in.Vars
	if vars == nil {
		vars = map[string]string{}
	}
	return map[string]any{
		"target": target,
		"vars":   vars,
	}
}

var conditionEnv = sync.OnceValues(func() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("target", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("vars", cel.MapType(cel.StringType, cel.StringType)),
	)
})

// Condition is a compiled CEL expression deciding whether a step runs,
// e.g. `target.device == "a3xelte" && target.variant.startsWith("lineage")`.
type Condition struct {
	expr    string
	program cel.Program
}

func NewCondition(expr string) (*Condition, error) {
	env, err := conditionEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create condition environment: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("failed to compile condition %q: %w", expr, iss.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build condition %q: %w", expr, err)
	}

	return &Condition{expr: expr, program: program}, nil
}

func (c *Condition) String() string {
	return c.expr
}

// Eval runs the condition. A result that is not a boolean is an error.
func (c *Condition) Eval(in ConditionInput) (bool, error) {
	out, _, err := c.program.Eval(in.activation())
	if err != nil {
		return false, fmt.Errorf("failed to evaluate condition %q: %w", c.expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("condition %q evaluated to %T, expected bool", c.expr, out.Value())
	}

	return result, nil
}
