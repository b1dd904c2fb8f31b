// Package listener provides ready-made workflow event listeners:
//
//   - Guard blocks transitions whose guard expression evaluates to false.
//     Expressions use github.com/expr-lang/expr and see the marking, the
//     transition, the workflow name and the subject.
//   - AuditTrail logs every leave, transition and enter through zap.
//   - Publisher is a Dispatcher decorator that forwards lifecycle events to
//     an AMQP topic exchange, using the event name as routing key.
package listener

// identifiable matches subjects that expose a stable identifier.
type identifiable interface {
	SubjectID() string
}
