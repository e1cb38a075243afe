package logkey

// Keys for structured log attributes so every layer logs them the same way.
const (
	TraceID = "TRACE ID"
	Error   = "ERROR"
	UserID  = "USER ID"
	OrderID = "ORDER ID"
)
