// Mailflow is a workflow-based content filter for mail transfer agents.
//
// It reads a message, evaluates a declarative node/connection workflow
// against its attributes, and emits a disposition: accept, reject,
// quarantine, forward, tag, or header modification.
//
// Usage:
//
//	# Filter one message from stdin (MTA content_filter entry point)
//	mailflow filter < message.eml
//
//	# Run the long-lived HTTP check service
//	mailflow serve
//
//	# Check a workflow document for structural problems
//	mailflow validate --workflow /etc/mailflow/workflow.json
//
//	# Show recent dispositions from the evidence database
//	mailflow evidence --limit 50
//
// The filter fails open: any internal fault delivers the original
// message unchanged rather than losing mail.
package main

func main() {
	Execute()
}
