// Package agent turns natural-language instructions into validated tool plans
// and drives them through the execution engine.
//
// Invariants:
// - The model never executes anything; it only proposes candidate calls.
// - A proposal is interpreted in a fixed order: clarification, decline, tool calls, text.
// - A model timeout is reported as an unsupported instruction and never retried.
// - Every run ends in exactly one Outcome with a process exit code.
//
// Usage:
//
//	provider, _ := (&agent.ProviderFactory{}).NewProvider(ctx, agent.ProviderConfig{
//		Name:   agent.ProviderGroq,
//		APIKey: key,
//	})
//	planner, _ := agent.NewModelPlanner(provider, agent.PlannerConfig{Domain: gittools.Domain})
//	runner, _ := agent.NewRunner(agent.Config{Agent: "git", Planner: planner, Registry: reg, Engine: engine})
//	outcome, _ := runner.Run(ctx, agent.RunParams{Instruction: "commit everything", WorkContext: wc})
//	os.Exit(outcome.ExitCode)
package agent
