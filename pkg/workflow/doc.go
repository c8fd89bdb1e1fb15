// Package workflow implements the rule-graph evaluator at the heart of
// the filter. A workflow is a small directed graph of nodes (trigger,
// filter, action) joined by optionally-conditioned connections. A
// message record enters at the trigger node and is threaded through the
// graph depth-first; filter nodes stamp a pass/fail verdict on the
// record, action nodes assign the final disposition.
//
// The evaluator is deliberately forgiving: unknown node types, unknown
// operators, dangling connection targets, and malformed condition
// values all degrade to safe defaults instead of failing the run. A
// message is only ever withheld by an explicit reject or quarantine
// action reached through normal graph evaluation.
package workflow
