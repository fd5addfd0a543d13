package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Market-data and detection error codes
const (
	// Venue feed errors
	CodeVenueConnectionFailed Code = "VENUE_CONNECTION_FAILED"
	CodeVenueAPIError         Code = "VENUE_API_ERROR"
	CodeVenueRateLimited      Code = "VENUE_RATE_LIMITED"
	CodeVenueDegraded         Code = "VENUE_DEGRADED"
	CodeTickerFetchFailed     Code = "TICKER_FETCH_FAILED"
	CodeInvalidTicker         Code = "INVALID_TICKER"

	// WebSocket errors
	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketReconnecting    Code = "WEBSOCKET_RECONNECTING"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	// FX rate errors
	CodeFXRateUnavailable Code = "FX_RATE_UNAVAILABLE"
	CodeFXRateStale       Code = "FX_RATE_STALE"

	// Detection errors
	CodeStaleTick              Code = "STALE_TICK"
	CodePriceCalculationFailed Code = "PRICE_CALCULATION_FAILED"
	CodeInsufficientLiquidity  Code = "INSUFFICIENT_LIQUIDITY"
	CodeUnknownPair            Code = "UNKNOWN_PAIR"
	CodeUnknownVenue           Code = "UNKNOWN_VENUE"
	CodeMissingFeeSchedule     Code = "MISSING_FEE_SCHEDULE"

	// Persistence errors
	CodeStoreWriteFailed Code = "STORE_WRITE_FAILED"
	CodeStoreQueueFull   Code = "STORE_QUEUE_FULL"
	CodeStoreUnavailable Code = "STORE_UNAVAILABLE"
	CodeCacheWriteFailed Code = "CACHE_WRITE_FAILED"

	// Alerting errors
	CodeDeliveryFailed   Code = "DELIVERY_FAILED"
	CodeThrottleSuppress Code = "THROTTLE_SUPPRESSED"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
