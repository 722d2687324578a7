package smartsuite

import "github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/pkg/errors"

// Upstream-specific error codes
var (
	ErrPayloadShape      = errors.MustNewCode("upstream.payload_shape")
	ErrRequestFailed     = errors.MustNewCode("upstream.request_failed")
	ErrUnexpectedStatus  = errors.MustNewCode("upstream.unexpected_status")
	ErrRateLimited       = errors.MustNewCode("upstream.rate_limited")
	ErrMissingCredential = errors.MustNewCode("upstream.missing_credential")
)
