package toolexecutor

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

type registeredTool struct {
	spec      ToolSpec
	handler   Handler
	schemaMap map[string]interface{}
	schema    *gojsonschema.Schema
}

// Registry maps tool names to their specs and handlers.
// It is populated at startup from static tables and sealed before use.
type Registry struct {
	tools  map[string]*registeredTool
	order  []string
	sealed bool
	mu     sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*registeredTool),
	}
}

// Register adds a tool. It fails with ErrDuplicateTool if the name is taken.
func (r *Registry) Register(spec ToolSpec, handler Handler) error {
	if err := validateToolSpec(spec, handler); err != nil {
		return fmt.Errorf("invalid tool definition: %w", err)
	}

	schemaMap, schema, err := generateJSONSchema(spec)
	if err != nil {
		return fmt.Errorf("failed to generate schema for %s: %w", spec.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrRegistrySealed, spec.Name)
	}
	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, spec.Name)
	}

	r.tools[spec.Name] = &registeredTool{
		spec:      spec.clone(),
		handler:   handler,
		schemaMap: schemaMap,
		schema:    schema,
	}
	r.order = append(r.order, spec.Name)

	log.Debug().Str("tool", spec.Name).Msg("Tool registered")

	return nil
}

// RegisterTools registers a static table of tools, skipping those the policy denies
func (r *Registry) RegisterTools(tools []Tool, policy *ToolPolicy) error {
	for _, tool := range tools {
		if !policy.IsToolAllowed(tool.Spec.Name) {
			log.Debug().Str("tool", tool.Spec.Name).Msg("Tool disabled by policy")
			continue
		}
		if err := r.Register(tool.Spec, tool.Handler); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", tool.Spec.Name, err)
		}
	}
	return nil
}

// Seal makes the registry read-only
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Resolve returns the spec and handler for a tool name
func (r *Registry) Resolve(name string) (ToolSpec, Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return ToolSpec{}, nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.spec.clone(), tool.handler, nil
}

// ListAll returns every registered spec in registration order
func (r *Registry) ListAll() []ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].spec.clone())
	}
	return specs
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Schema returns the JSON Schema of a tool's arguments, as sent to providers
func (r *Registry) Schema(name string) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return tool.schemaMap, nil
}

func (r *Registry) compiledSchema(name string) *gojsonschema.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if tool, ok := r.tools[name]; ok {
		return tool.schema
	}
	return nil
}

// validateToolSpec validates a tool definition
func validateToolSpec(spec ToolSpec, handler Handler) error {
	if spec.Name == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if spec.Description == "" {
		return fmt.Errorf("tool description cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("tool handler cannot be nil")
	}

	seen := make(map[string]bool, len(spec.Parameters))
	for _, param := range spec.Parameters {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty")
		}
		if seen[param.Name] {
			return fmt.Errorf("duplicate parameter %s", param.Name)
		}
		seen[param.Name] = true

		if !param.Type.IsValid() {
			return fmt.Errorf("invalid parameter type %s for %s", param.Type, param.Name)
		}
		if param.Description == "" {
			return fmt.Errorf("parameter description cannot be empty for %s", param.Name)
		}
		if param.Required && param.Default != nil {
			return fmt.Errorf("required parameter %s cannot have a default", param.Name)
		}
		if !param.Required && param.Default == nil && param.Type != TypeOptionalString {
			return fmt.Errorf("optional parameter %s needs a default", param.Name)
		}
		if param.Default != nil {
			if _, err := coerce(param, param.Default); err != nil {
				return fmt.Errorf("default for %s: %w", param.Name, err)
			}
		}
	}

	return nil
}
