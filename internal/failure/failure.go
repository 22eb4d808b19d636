package failure

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the sync pipeline.
type Kind string

const (
	KindAuth              Kind = "auth"
	KindNavigationTimeout Kind = "navigation_timeout"
	KindExtractionGap     Kind = "extraction_gap"
	KindDuplicateSkip     Kind = "duplicate_skip"
	KindStorage           Kind = "storage"
	KindRequest           Kind = "request"
)

// Failure is a wrapper for error messages and codes using standard HTTP response codes.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

var ForbiddenError = &Failure{Kind: KindRequest, Code: http.StatusForbidden, Message: "You don't have the required permissions"}
var SyncInProgress = &Failure{Kind: KindRequest, Code: http.StatusConflict, Message: "a sync run is already in progress"}

func (e *Failure) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}

	return e.Message
}

func (e *Failure) Unwrap() error {
	return e.Err
}

// AuthError reports that an authenticated session could not be established.
func AuthError(msg string, err error) error {
	return &Failure{Kind: KindAuth, Code: http.StatusBadGateway, Message: msg, Err: err}
}

// NavigationTimeout reports that a required page element never appeared.
func NavigationTimeout(msg string, err error) error {
	return &Failure{Kind: KindNavigationTimeout, Code: http.StatusGatewayTimeout, Message: msg, Err: err}
}

// ExtractionGap reports a field that could not be determined.
func ExtractionGap(field string) error {
	return &Failure{Kind: KindExtractionGap, Code: http.StatusUnprocessableEntity, Message: "could not extract " + field}
}

func DuplicateSkip(msg string) error {
	return &Failure{Kind: KindDuplicateSkip, Code: http.StatusConflict, Message: msg}
}

// StorageError reports an insert or query rejected by the datastore.
func StorageError(msg string, err error) error {
	return &Failure{Kind: KindStorage, Code: http.StatusInternalServerError, Message: msg, Err: err}
}

// BadRequest returns a new Failure with code for bad requests.
func BadRequest(err error) error {
	if err != nil {
		return &Failure{Kind: KindRequest, Code: http.StatusBadRequest, Message: err.Error()}
	}

	return nil
}

func BadRequestFromString(msg string) error {
	return &Failure{Kind: KindRequest, Code: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) error {
	return &Failure{Kind: KindRequest, Code: http.StatusUnauthorized, Message: msg}
}

// InternalError returns a new Failure with code for internal error and message derived from an error interface.
func InternalError(err error) error {
	if err != nil {
		return &Failure{Kind: KindRequest, Code: http.StatusInternalServerError, Message: err.Error()}
	}

	return nil
}

func NotFound(entityName string) error {
	return &Failure{Kind: KindRequest, Code: http.StatusNotFound, Message: entityName + " not found"}
}

func Conflict(message string) error {
	return &Failure{Kind: KindRequest, Code: http.StatusConflict, Message: message}
}

// GetCode returns the error code of an error interface.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// GetKind returns the failure kind, or an empty kind for foreign errors.
func GetKind(err error) Kind {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Kind
	}

	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && GetKind(err) == kind
}
