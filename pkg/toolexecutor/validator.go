package toolexecutor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"github.com/sahilm/fuzzy"
)

// Validator turns model-proposed candidates into an ExecutionPlan.
// A plan is either entirely valid or rejected with exactly one error.
type Validator struct {
	registry *Registry
}

// NewValidator creates a validator bound to a registry
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate checks every candidate in order and stops at the first error
func (v *Validator) Validate(candidates []CandidateCall) (ExecutionPlan, error) {
	plan := make(ExecutionPlan, 0, len(candidates))

	for i, candidate := range candidates {
		call, err := v.ValidateCall(i+1, candidate)
		if err != nil {
			log.Warn().
				Int("step", i+1).
				Str("tool", candidate.Name).
				Err(err).
				Msg("Plan rejected")
			return nil, err
		}
		plan = append(plan, call)
	}

	return plan, nil
}

// ValidateCall validates a single candidate; step is its 1-based plan position
func (v *Validator) ValidateCall(step int, candidate CandidateCall) (ToolCall, error) {
	spec, _, err := v.registry.Resolve(candidate.Name)
	if err != nil {
		return ToolCall{}, &ValidationError{Step: step, Tool: candidate.Name, Kind: ErrUnknownTool, Detail: v.suggest(candidate.Name)}
	}

	args := make(Args, len(spec.Parameters))

	for _, param := range spec.Parameters {
		raw, present := candidate.Arguments[param.Name]
		if present && raw == nil {
			present = false
		}

		if !present {
			switch {
			case param.Required:
				return ToolCall{}, &ValidationError{
					Step: step, Tool: spec.Name, Param: param.Name, Kind: ErrMissingArgument,
				}
			case param.Default != nil:
				value, err := coerce(param, param.Default)
				if err != nil {
					return ToolCall{}, &ValidationError{
						Step: step, Tool: spec.Name, Param: param.Name, Kind: ErrInvalidArgument,
						Detail: "bad default: " + err.Error(),
					}
				}
				args[param.Name] = value
			}
			continue
		}

		value, err := coerce(param, raw)
		if err != nil {
			return ToolCall{}, &ValidationError{
				Step: step, Tool: spec.Name, Param: param.Name, Kind: ErrInvalidArgument, Detail: err.Error(),
			}
		}
		args[param.Name] = value
	}

	if unexpected := unexpectedKeys(spec, candidate.Arguments); len(unexpected) > 0 {
		return ToolCall{}, &ValidationError{
			Step: step, Tool: spec.Name, Param: unexpected[0], Kind: ErrUnexpectedArgument,
		}
	}

	if err := validateAgainstSchema(v.registry.compiledSchema(spec.Name), args); err != nil {
		return ToolCall{}, &ValidationError{
			Step: step, Tool: spec.Name, Kind: ErrInvalidArgument, Detail: err.Error(),
		}
	}

	return ToolCall{ID: candidate.ID, Name: spec.Name, Args: args}, nil
}

func unexpectedKeys(spec ToolSpec, arguments map[string]interface{}) []string {
	var keys []string
	for key := range arguments {
		if _, ok := spec.Parameter(key); !ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// IsValidationError reports whether err rejected a plan before execution
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// Describe renders a call for logs and confirmation prompts
func (c ToolCall) Describe() string {
	keys := make([]string, 0, len(c.Args))
	for k := range c.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := c.Name + "("
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%q", k, fmt.Sprint(c.Args[k]))
	}
	return out + ")"
}

// suggest names the closest registered tool, if any
func (v *Validator) suggest(name string) string {
	specs := v.registry.ListAll()
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}

	matches := fuzzy.Find(name, names)
	if len(matches) == 0 {
		return ""
	}
	return fmt.Sprintf("did you mean %s?", matches[0].Str)
}
