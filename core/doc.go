// Package core provides the foundational domain types shared by the stepchain
// packages. It defines:
//
//   - Messages and the append-only Conversation used to build prompts
//   - Steps (one structured unit of reasoning parsed from a model reply)
//   - AgentSpec (static per-stage configuration: name + role prompt)
//   - ModelLimiter (per-invocation budget of model calls)
//
// The package keeps implementation concerns (model providers, parsing,
// compilation, orchestration) out of scope so that every other package can
// depend on it without cycles.
package core
