package provider

import "fmt"

// ErrorKind classifies a provider failure, driving
// the retry envelope's retry/no-retry decision.
type ErrorKind int

const (
	// KindUnknown is any unclassified exception: permanent, logged with detail.
	KindUnknown ErrorKind = iota
	// KindTimeout is a transient HTTP client or provider timeout.
	KindTimeout
	// KindRateLimit is HTTP 429 or a provider-specific rate-limit signal; transient.
	KindRateLimit
	// KindServerError is HTTP 5xx; transient.
	KindServerError
	// KindClientError is HTTP 4xx other than 429; permanent.
	KindClientError
	// KindContentMalformed is a parser failure inside the provider; permanent.
	KindContentMalformed
	// KindNotImplemented means the provider opts out of this phase; treated
	// as empty success, never reaches the retry loop's failure path.
	KindNotImplemented
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimit:
		return "rate_limit"
	case KindServerError:
		return "server_error"
	case KindClientError:
		return "client_error"
	case KindContentMalformed:
		return "content_malformed"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Transient reports whether this error kind should be retried by the
// envelope: Timeout, RateLimit and ServerError are transient; everything
// else (including NotImplemented, which never reaches the retry loop) is
// treated as permanent.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindTimeout, KindRateLimit, KindServerError:
		return true
	default:
		return false
	}
}

// ProviderError is the classified error type every provider method should
// return on failure; the retry envelope type-asserts for it and falls back
// to KindUnknown for anything else.
type ProviderError struct {
	Kind     ErrorKind
	Provider string
	Method   string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s.%s: %s: %v", e.Provider, e.Method, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ErrNotImplemented constructs the sentinel error a provider returns from a
// phase method it does not support; the retry envelope treats it as an
// empty success rather than a failure.
func ErrNotImplemented(providerName, method string) *ProviderError {
	return &ProviderError{Kind: KindNotImplemented, Provider: providerName, Method: method, Err: fmt.Errorf("not implemented")}
}

// NewError wraps err with a classification, for providers translating an
// HTTP status code or transport failure into the taxonomy.
func NewError(kind ErrorKind, providerName, method string, err error) *ProviderError {
	return &ProviderError{Kind: kind, Provider: providerName, Method: method, Err: err}
}

// ClassifyHTTPStatus maps an HTTP status code onto an ErrorKind.
func ClassifyHTTPStatus(status int) ErrorKind {
	switch {
	case status == 429:
		return KindRateLimit
	case status >= 500:
		return KindServerError
	case status >= 400:
		return KindClientError
	default:
		return KindUnknown
	}
}
