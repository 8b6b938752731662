package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldRecordID      = "record_id"
	FieldDate          = "date"
	FieldTotalCents    = "total_cents"
	FieldCustomerCount = "customer_count"
	FieldServiceType   = "service_type"
	FieldTherapistID   = "therapist_id"
	FieldRangeStart    = "range_start"
	FieldRangeEnd      = "range_end"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentRecord    = "record"
	ComponentTherapist = "therapist"
	ComponentStats     = "stats"
	ComponentExport    = "export"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
)
