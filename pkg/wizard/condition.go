package wizard

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/ormasoftchile/guildwiz/pkg/schema"
)

// condition is a compiled show-when rule of one step.
type condition struct {
	key     string
	allowed []string
	program *vm.Program
}

var conditionEnv = map[string]any{
	"values":  []string{},
	"allowed": []string{},
}

func compileCondition(c *schema.Condition) (*condition, error) {
	var code string
	switch c.Match {
	case schema.MatchIn:
		code = "any(values, # in allowed)"
	case schema.MatchNotIn:
		code = "none(values, # in allowed)"
	default:
		return nil, fmt.Errorf("unknown match mode %q", c.Match)
	}
	program, err := expr.Compile(code, expr.Env(conditionEnv), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile condition on %q: %w", c.Key, err)
	}
	return &condition{key: c.Key, allowed: c.Values, program: program}, nil
}

// show reports whether the step is shown for the given answer values.
func (c *condition) show(values []string) (bool, error) {
	if values == nil {
		values = []string{}
	}
	out, err := expr.Run(c.program, map[string]any{
		"values":  values,
		"allowed": c.allowed,
	})
	if err != nil {
		return false, fmt.Errorf("eval condition on %q: %w", c.key, err)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("condition on %q did not return bool (got %T)", c.key, out)
	}
	return result, nil
}

func compileConditions(steps []schema.Step) (map[string]*condition, error) {
	out := make(map[string]*condition)
	for i := range steps {
		if steps[i].Condition == nil {
			continue
		}
		c, err := compileCondition(steps[i].Condition)
		if err != nil {
			return nil, fmt.Errorf("step %q: %w", steps[i].Key, err)
		}
		out[steps[i].Key] = c
	}
	return out, nil
}
