package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields contains structured fields automatically added to all logs within
// a context. Handlers and the creation workflow enrich the context once and
// every slog call below picks the fields up.
type LogFields struct {
	InstitutionID *int64  // Institution the operation targets
	ClassroomID   *int64  // Classroom within the institution, if any
	RemoteUserID  *string // User ID assigned by the external user service
	Component     string  // Component name, e.g. "institution.workflow"
}

// WithLogFields enriches context with structured log fields. Multiple calls
// merge fields, with newer non-nil/non-empty values taking precedence.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)
	merged := mergeFields(existing, fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields retrieves log fields from context.
// Returns empty LogFields if none are set.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.InstitutionID != nil {
		result.InstitutionID = next.InstitutionID
	}
	if next.ClassroomID != nil {
		result.ClassroomID = next.ClassroomID
	}
	if next.RemoteUserID != nil {
		result.RemoteUserID = next.RemoteUserID
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr is a helper to create a pointer from a value, for setting LogFields
// inline: logger.WithLogFields(ctx, logger.LogFields{InstitutionID: logger.Ptr(id)})
func Ptr[T any](v T) *T {
	return &v
}
