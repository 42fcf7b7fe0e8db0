package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldCompany    = "company"
	FieldSessionID  = "session_id"
	FieldExpenseID  = "expense_id"
	FieldHours      = "hours"
	FieldAmount     = "amount"
	FieldRange      = "range"
)

// Standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentStorage = "storage"
	ComponentReport  = "report"
	ComponentAuth    = "auth"
)
