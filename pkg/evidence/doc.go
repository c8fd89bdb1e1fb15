// Package evidence defines the audit-trail record written for every
// filtered message and the storage contract used to persist it. Each
// record captures the message identity, the disposition the workflow
// assigned, its payload, and the individual filter verdicts that led
// there, so an operator can answer "why was this message rejected"
// after the fact.
package evidence
