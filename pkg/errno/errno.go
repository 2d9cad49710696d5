package errno

import "errors"

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// Decode tries to convert an error to Errno.
// Typed errors from the arcula packages unwrap to one of the catalogued
// values below, so the lookup walks the wrap chain.
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var typed Errno
	if errors.As(err, &typed) {
		return typed.Code, err.Error()
	}
	var ptr *Errno
	if errors.As(err, &ptr) && ptr != nil {
		return ptr.Code, err.Error()
	}
	return InternalServerError.Code, err.Error()
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal error"}
	ErrInvalidConfig    = Errno{Code: 10002, Message: "Invalid configuration"}
	ErrInvalidSeed      = Errno{Code: 10003, Message: "Invalid seed"}
)

// Hierarchy / derivation errors (20000+)
var (
	ErrMissingSecret       = Errno{Code: 20101, Message: "Hardened derivation requires secret material"}
	ErrPathNotFound        = Errno{Code: 20102, Message: "Path not found"}
	ErrKeyNotYetGenerated  = Errno{Code: 20103, Message: "Key material not generated yet"}
	ErrDuplicateEdge       = Errno{Code: 20104, Message: "Duplicate edge"}
	ErrAlreadyKeyed        = Errno{Code: 20105, Message: "Node already keyed"}
	ErrInvalidPath         = Errno{Code: 20106, Message: "Invalid derivation path"}
	ErrCertificateRejected = Errno{Code: 20201, Message: "Certificate verification failed"}
)
