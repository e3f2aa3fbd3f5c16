package errors

// Kind is the classified category of a failed request.
type Kind int

const (
	// KindUnknown covers failures with a status outside the error ranges.
	KindUnknown Kind = iota
	// KindNetwork indicates the request produced no response (refused, DNS, timeout).
	KindNetwork
	// KindAuthentication indicates the backend answered 401.
	KindAuthentication
	// KindAuthorization indicates the backend answered 403.
	KindAuthorization
	// KindValidation indicates any other 4xx, or a client-side rejection.
	KindValidation
	// KindServer indicates a 5xx answer.
	KindServer
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name so it reads well in logs and JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
