package cli

import (
	"github.com/harun/toolpilot/internal/config"
	"github.com/harun/toolpilot/pkg/filetools"
	"github.com/harun/toolpilot/pkg/gittools"
	"github.com/harun/toolpilot/pkg/toolexecutor"
)

// agentDef describes one tool library exposed as a command
type agentDef struct {
	name       string
	short      string
	domain     string
	example    string
	register   func(a *app, reg *toolexecutor.Registry, policy *toolexecutor.ToolPolicy) error
	classifier func() *toolexecutor.Classifier
	policy     func(cfg *config.Config) config.ToolPolicyConfig
}

var agents = []agentDef{
	{
		name:    gittools.Agent,
		short:   "Run a Git instruction in the current repository",
		domain:  gittools.Domain,
		example: `  toolpilot git "stage everything and commit with message 'wip'"`,
		register: func(a *app, reg *toolexecutor.Registry, policy *toolexecutor.ToolPolicy) error {
			return gittools.Register(reg, a.gitRunner, policy)
		},
		classifier: gittools.Classifier,
		policy:     func(cfg *config.Config) config.ToolPolicyConfig { return cfg.Tools.Git },
	},
	{
		name:    filetools.Agent,
		short:   "Run a filesystem instruction in the current directory",
		domain:  filetools.Domain,
		example: `  toolpilot file "find files larger than 5 MB under ./data"`,
		register: func(a *app, reg *toolexecutor.Registry, policy *toolexecutor.ToolPolicy) error {
			return filetools.Register(reg, a.fs, policy)
		},
		classifier: filetools.Classifier,
		policy:     func(cfg *config.Config) config.ToolPolicyConfig { return cfg.Tools.File },
	},
}

// buildRegistry registers and seals the agent's tools
func (a *app) buildRegistry(def agentDef, cfg *config.Config) (*toolexecutor.Registry, error) {
	p := def.policy(cfg)
	reg := toolexecutor.NewRegistry()
	if err := def.register(a, reg, &toolexecutor.ToolPolicy{Allow: p.Allow, Deny: p.Deny}); err != nil {
		return nil, err
	}
	reg.Seal()
	return reg, nil
}
