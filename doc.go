// Package orchestrator implements a multi-agent orchestration core: an
// agent runtime, a token budgeter, a permission checker, a declarative
// agent-definition loader, a planner/executor/aggregator pipeline, an
// asynchronous sub-agent layer, and an append-only audit log.
//
// # Overview
//
// The core does not talk to any LLM provider, terminal, or network
// transport directly. It is driven through narrow interfaces (see package
// llmclient) so it can be embedded into a CLI, a server, or a test harness
// without pulling in any of those concerns.
//
// # Packages
//
//   - agentdef    declarative agent definitions loaded from YAML
//   - budget      per-agent and global token budget tracking
//   - permission  pure functions over tool permission grants
//   - runtime     single-agent turn execution against an llmclient.Client
//   - workflow    goal decomposition, step assignment, parallel execution,
//     result aggregation
//   - asyncagent  background sub-agents, their inbox, and the
//     keyword-driven auto-dispatcher
//   - audit       append-only, rotating, redacting event log
//   - supervisor  the façade that wires the above into CoordinateGoal
//
// # Status
//
// This module implements the orchestration core only; it ships no LLM
// provider integrations, no CLI, and no persistence beyond the audit log's
// own file backend.
package orchestrator
