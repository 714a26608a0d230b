package logkey

// Shared slog attribute keys so log lines stay greppable across packages.
const (
	TraceID   = "Trace ID"
	ERROR     = "Error"
	ProductID = "ProductID"
	OrderID   = "OrderID"
	UserID    = "UserID"
	SessionID = "SessionID"
	Token     = "Token"
)
