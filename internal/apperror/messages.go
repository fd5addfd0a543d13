package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal error",
	CodeUnknownError:  "An unknown error occurred",

	CodeVenueConnectionFailed: "Failed to connect to venue API",
	CodeVenueAPIError:         "Venue API error",
	CodeVenueRateLimited:      "Venue rate limit exceeded",
	CodeVenueDegraded:         "Venue marked degraded after repeated failures",
	CodeTickerFetchFailed:     "Failed to fetch ticker",
	CodeInvalidTicker:         "Invalid ticker data",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketReconnecting:    "WebSocket reconnecting",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeFXRateUnavailable: "FX rate unavailable from all sources",
	CodeFXRateStale:       "FX rate exceeded staleness tolerance",

	CodeStaleTick:              "Tick outside the freshness window",
	CodePriceCalculationFailed: "Price calculation failed",
	CodeInsufficientLiquidity:  "Insufficient liquidity for position size",
	CodeUnknownPair:            "Currency pair not configured",
	CodeUnknownVenue:           "Venue not configured",
	CodeMissingFeeSchedule:     "Venue has no fee schedule configured",

	CodeStoreWriteFailed: "Persistence write failed",
	CodeStoreQueueFull:   "Persistence buffer full, writes dropped",
	CodeStoreUnavailable: "Persistence store unavailable",
	CodeCacheWriteFailed: "Cache write failed",

	CodeDeliveryFailed:   "Alert delivery failed",
	CodeThrottleSuppress: "Alert suppressed by throttle",

	CodeCircuitOpen: "Circuit breaker is open",
}
