package errors

import (
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/grpc/codes"
)

// ============================================================================
// Service Registration for External Modules
// ============================================================================

// serviceRegistry tracks registered service codes to prevent conflicts.
var (
	serviceRegistry = make(map[int]string) // service code -> service name
	serviceMu       sync.RWMutex
)

// RegisterService registers a service code with a name.
// This should be called once during service initialization.
// Panics if the service code is already registered by another service.
//
// Example:
//
//	func init() {
//	    errors.RegisterService(21, "docqa")
//	}
func RegisterService(code int, name string) {
	serviceMu.Lock()
	defer serviceMu.Unlock()

	if existing, ok := serviceRegistry[code]; ok {
		if existing != name {
			panic(fmt.Sprintf("service code %d already registered by '%s', cannot register for '%s'", code, existing, name))
		}
		return // Already registered with same name, ignore
	}
	serviceRegistry[code] = name
}

// GetServiceName returns the registered name for a service code.
func GetServiceName(code int) (string, bool) {
	serviceMu.RLock()
	defer serviceMu.RUnlock()
	name, ok := serviceRegistry[code]
	return name, ok
}

// GetAllServices returns all registered services.
func GetAllServices() map[int]string {
	serviceMu.RLock()
	defer serviceMu.RUnlock()

	result := make(map[int]string, len(serviceRegistry))
	for k, v := range serviceRegistry {
		result[k] = v
	}
	return result
}

// ============================================================================
// Core Error Creation Functions
// ============================================================================

// validateCodeParams validates service, category, and sequence parameters.
func validateCodeParams(service, category, sequence int) {
	if service < 0 || service > 99 {
		panic(fmt.Sprintf("errors: service code must be 0-99, got %d", service))
	}
	if category < 0 || category > 99 {
		panic(fmt.Sprintf("errors: category code must be 0-99, got %d", category))
	}
	if sequence < 0 || sequence > 999 {
		panic(fmt.Sprintf("errors: sequence must be 0-999, got %d", sequence))
	}
}

// NewError creates and registers a new Errno with the given parameters.
// This is the most flexible function for custom error definitions.
// Panics if registration fails or if messageEN is empty.
//
// Example:
//
//	var ErrCustom = errors.NewError(21, errors.CategoryRequest, 1,
//	    http.StatusBadRequest, codes.InvalidArgument,
//	    "Custom error", "自定义错误")
func NewError(service, category, sequence int, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	validateCodeParams(service, category, sequence)
	if messageEN == "" {
		panic("errors: english message is required")
	}

	return Register(&Errno{
		Code:      MakeCode(service, category, sequence),
		HTTP:      httpStatus,
		GRPCCode:  grpcCode,
		MessageEN: messageEN,
		MessageZH: messageZH,
	})
}

// ============================================================================
// Category-Specific Error Creation Functions (Recommended API)
// ============================================================================

// NewRequestErr creates and registers a request/validation error (HTTP 400).
func NewRequestErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryRequest, sequence, http.StatusBadRequest, codes.InvalidArgument, en, zh)
}

// NewNotFoundErr creates and registers a not found error (HTTP 404).
func NewNotFoundErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryResource, sequence, http.StatusNotFound, codes.NotFound, en, zh)
}

// NewConflictErr creates and registers a conflict error (HTTP 409).
func NewConflictErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryConflict, sequence, http.StatusConflict, codes.AlreadyExists, en, zh)
}

// NewInternalErr creates and registers an internal error (HTTP 500).
func NewInternalErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryInternal, sequence, http.StatusInternalServerError, codes.Internal, en, zh)
}

// NewNetworkErr creates and registers a network error (HTTP 503).
func NewNetworkErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryNetwork, sequence, http.StatusServiceUnavailable, codes.Unavailable, en, zh)
}

// NewTimeoutErr creates and registers a timeout error (HTTP 504).
func NewTimeoutErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryTimeout, sequence, http.StatusGatewayTimeout, codes.DeadlineExceeded, en, zh)
}

// NewConfigErr creates and registers a configuration error (HTTP 500).
func NewConfigErr(service, sequence int, en, zh string) *Errno {
	return NewError(service, CategoryConfig, sequence, http.StatusInternalServerError, codes.Internal, en, zh)
}
