package errors

// Shorthand constructors for the common codes.

func Internal(message string) *Error {
	return New(CommonInternal, message, nil)
}

func NotFound(message string) *Error {
	return New(CommonNotFound, message, nil)
}

func Validation(message string) *Error {
	return New(CommonValidation, message, nil)
}

func InvalidInput(message string) *Error {
	return New(CommonInvalidInput, message, nil)
}

// IsCoded reports whether err is one of our coded errors.
func IsCoded(err error) bool {
	_, ok := err.(*Error)
	return ok
}

// HasCode reports whether err is a coded error carrying the given code.
func HasCode(err error, code Code) bool {
	coded, ok := err.(*Error)
	return ok && coded.Code.Equals(code)
}

// CodeOf returns the code of err, or CommonInternal for foreign errors.
func CodeOf(err error) Code {
	if coded, ok := err.(*Error); ok {
		return coded.Code
	}
	return CommonInternal
}
