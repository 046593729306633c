// Package alerting delivers operator notifications for execution events.
package alerting

import (
	"context"
	"fmt"
)

// Severity represents the alert severity level.
type Severity int

const (
	// SeverityInfo is for informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning is for warning messages.
	SeverityWarning
	// SeverityHigh is for high priority alerts.
	SeverityHigh
	// SeverityCritical is for critical alerts requiring immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Emoji returns an emoji for the severity level.
func (s Severity) Emoji() string {
	switch s {
	case SeverityInfo:
		return "ℹ️"
	case SeverityWarning:
		return "⚠️"
	case SeverityHigh:
		return "🔴"
	case SeverityCritical:
		return "🚨"
	default:
		return "❓"
	}
}

// Alerter defines the interface for sending alerts.
type Alerter interface {
	// Alert sends an alert with the given severity and message.
	Alert(ctx context.Context, severity Severity, message string, fields ...any) error
	// Name returns the name of the alerter.
	Name() string
}

// FormatFields converts variadic key-value fields to a formatted string.
func FormatFields(fields ...any) string {
	if len(fields) == 0 {
		return ""
	}

	result := ""
	for i := 0; i < len(fields)-1; i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		value := fields[i+1]
		if result != "" {
			result += "\n"
		}
		result += fmt.Sprintf("• %s: %v", key, value)
	}
	return result
}

// AlertEvent represents a pre-defined alert event type.
type AlertEvent string

const (
	// EventIndeterminateFill is sent when an entry order was accepted but
	// its fill price could not be resolved. Funds are at risk with an
	// unknown price and the position needs manual inspection.
	EventIndeterminateFill AlertEvent = "indeterminate_fill"
	// EventPartialBracket is sent when only one protective leg was placed,
	// leaving the position unprotected on one side.
	EventPartialBracket AlertEvent = "partial_bracket"
	// EventCancelFailed is sent when a stale protective order could not be
	// cancelled.
	EventCancelFailed AlertEvent = "cancel_failed"
	// EventOrderRejected is sent when the venue rejects an order.
	EventOrderRejected AlertEvent = "order_rejected"
	// EventPositionOpened is sent when a bracketed position is opened.
	EventPositionOpened AlertEvent = "position_opened"
	// EventPositionClosed is sent when a position is flattened.
	EventPositionClosed AlertEvent = "position_closed"
	// EventSignalReceived is sent for notify-only signal passthrough.
	EventSignalReceived AlertEvent = "signal_received"
	// EventConnectionLost is sent when venue connectivity is lost.
	EventConnectionLost AlertEvent = "connection_lost"
	// EventConnectionRestored is sent when venue connectivity is restored.
	EventConnectionRestored AlertEvent = "connection_restored"
	// EventEngineStarted is sent when the engine starts.
	EventEngineStarted AlertEvent = "engine_started"
	// EventEngineStopped is sent when the engine stops.
	EventEngineStopped AlertEvent = "engine_stopped"
)

// EventSeverity returns the default severity for an event.
func EventSeverity(event AlertEvent) Severity {
	switch event {
	case EventIndeterminateFill:
		return SeverityCritical
	case EventPartialBracket:
		return SeverityHigh
	case EventCancelFailed, EventOrderRejected, EventConnectionLost:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}
