// Package toolexecutor resolves, validates and executes typed tool calls.
//
// Invariants:
// - Tool names are unique and the registry is sealed before use.
// - A plan is either fully valid or rejected with one ValidationError; no partial plan runs.
// - Steps run strictly in plan order, one at a time.
// - Destructive steps are confirmed immediately before they run; a decline halts the run.
// - Recoverable failures continue the plan, blocking failures skip the next step, fatal failures halt.
//
// Usage:
//
//	reg := toolexecutor.NewRegistry()
//	_ = reg.Register(toolexecutor.ToolSpec{
//		Name:        "echo",
//		Description: "Echo input",
//		Parameters:  []toolexecutor.ToolParameter{{Name: "text", Type: toolexecutor.TypeString, Description: "text", Required: true}},
//	}, func(ctx context.Context, wc *toolexecutor.WorkContext, args toolexecutor.Args) (toolexecutor.Output, error) {
//		return toolexecutor.Output{Summary: args.String("text")}, nil
//	})
//	reg.Seal()
//
//	plan, err := toolexecutor.NewValidator(reg).Validate(candidates)
//	engine, _ := toolexecutor.NewEngine(toolexecutor.EngineConfig{Registry: reg})
//	report, err := engine.Execute(ctx, runID, plan, wc)
package toolexecutor
