package log

// Common field names for structured logging
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldClientIP       = "client_ip"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldSuccess        = "success"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldConversationID = "conversation_id"
	FieldMessageID      = "message_id"
	FieldUserID         = "user_id"
	FieldVerb           = "verb"
	FieldLine           = "line"
	FieldLineCount      = "line_count"
	FieldAmount         = "amount"
	FieldCategory       = "category"
	FieldEntryID        = "entry_id"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentRouter      = "router"
	ComponentInterpreter = "interpreter"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentSheets      = "sheets"
	ComponentCache       = "cache"
	ComponentBackend     = "backend"
	ComponentRecurring   = "recurring"
	ComponentCLI         = "cli"
)

// Operations defines standard operation names
const (
	OpExecute  = "execute"
	OpSend     = "send"
	OpConsume  = "consume"
	OpPublish  = "publish"
	OpAppend   = "append"
	OpMigrate  = "migrate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithMessage adds the identifiers of an inbound chat message.
func (f LogFields) WithMessage(messageID, conversationID string) LogFields {
	f[FieldMessageID] = messageID
	f[FieldConversationID] = conversationID
	return f
}

// WithCommand adds the verb and line number of a command inside a message.
func (f LogFields) WithCommand(verb string, line int) LogFields {
	f[FieldVerb] = verb
	f[FieldLine] = line
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
