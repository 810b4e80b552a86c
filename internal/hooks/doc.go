// Package hooks implements the learning plugin's lifecycle hooks.
//
// Two hooks exist. OnLoad runs when the plugin is loaded for a learner and
// greets them, reports progress, and awards any pending badges. OnSkillInvoke
// runs each time a skill is opened and records usage, updates progress,
// suggests related skills, and handles completion.
//
// Hooks own no state. Every read and write goes through a Context supplied
// by the host, and every host error is turned into a failed Result rather
// than returned:
//
//	mgr := hooks.NewManager(hooks.DefaultConfig(), logger)
//	res := mgr.Execute(ctx, hooks.HookOnSkillInvoke, session)
//	if !res.Success {
//		// res.Error holds the host's error message
//	}
package hooks
