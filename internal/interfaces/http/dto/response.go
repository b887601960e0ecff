package dto

// Response represents a standard API response
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return NewErrorResponseWithRequestID(code, message, "")
}

// NewErrorResponseWithRequestID creates an error response carrying the request ID
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	}
}

// ---------------------------------------------------------------------------
// Store sync gateway
// ---------------------------------------------------------------------------

// SyncStoreRequest is the optional JSON body of the sync gateway
type SyncStoreRequest struct {
	IntegrationID string `json:"integration_id"`
}

// SyncStoreResponse is the gateway answer for a single integration sync
type SyncStoreResponse struct {
	SyncedOrders int `json:"synced_orders"`
	SyncedDays   int `json:"synced_days"`
}

// BatchSyncItem is one integration in a batch answer. Either the counts or
// Error is set.
type BatchSyncItem struct {
	ID           string `json:"id"`
	SyncedOrders *int   `json:"synced_orders,omitempty"`
	SyncedDays   *int   `json:"synced_days,omitempty"`
	Error        string `json:"error,omitempty"`
}

// BatchSyncResponse is the gateway answer for a batch sync
type BatchSyncResponse struct {
	Synced []BatchSyncItem `json:"synced"`
}

// GatewayError is the flat error body of the sync gateway
type GatewayError struct {
	Error string `json:"error"`
}
