// Package mcp exposes the learning hooks as MCP tools.
//
// The server uses the MCP SDK (github.com/modelcontextprotocol/go-sdk/mcp)
// over stdio so an agent host can fire on-load and on-skill-invoke without
// the HTTP API. Tools:
//
//   - learning_on_load: run the on-load hook for a learner
//   - learning_on_skill_invoke: run the on-skill-invoke hook for a skill
//   - learning_progress: read a learner's progress summary
//   - learning_skills: list the plugin's skills
package mcp
