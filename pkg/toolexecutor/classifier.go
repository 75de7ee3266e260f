package toolexecutor

// DestructiveRule decides from a call's arguments whether it needs confirmation
type DestructiveRule func(args Args) bool

// Classifier decides which calls require user confirmation before running.
// Tools in the static set are always destructive; rules refine the rest by
// argument.
type Classifier struct {
	always map[string]bool
	rules  map[string]DestructiveRule
}

// NewClassifier creates a classifier whose named tools are always destructive
func NewClassifier(always ...string) *Classifier {
	c := &Classifier{
		always: make(map[string]bool, len(always)),
		rules:  make(map[string]DestructiveRule),
	}
	for _, name := range always {
		c.always[name] = true
	}
	return c
}

// WithRule adds an argument-sensitive rule for a tool
func (c *Classifier) WithRule(tool string, rule DestructiveRule) *Classifier {
	c.rules[tool] = rule
	return c
}

// IsDestructive reports whether the call needs confirmation
func (c *Classifier) IsDestructive(call ToolCall) bool {
	if c == nil {
		return false
	}
	if c.always[call.Name] {
		return true
	}
	if rule, ok := c.rules[call.Name]; ok {
		return rule(call.Args)
	}
	return false
}

// ArgEquals is a rule that matches when an argument equals value
func ArgEquals(name string, value interface{}) DestructiveRule {
	return func(args Args) bool {
		return args[name] == value
	}
}

// AnyOf matches when at least one of rules matches
func AnyOf(rules ...DestructiveRule) DestructiveRule {
	return func(args Args) bool {
		for _, rule := range rules {
			if rule(args) {
				return true
			}
		}
		return false
	}
}
