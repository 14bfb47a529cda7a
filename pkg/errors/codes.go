package errors

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes shared by every layer.
const (
	ErrCodeOK              ErrorCode = "OK"
	ErrCodeUnknown         ErrorCode = "COMMON_000"
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeNotFound        ErrorCode = "COMMON_002"
	ErrCodeValidation      ErrorCode = "COMMON_003"
	ErrCodeTimeout         ErrorCode = "COMMON_004"
	ErrCodeSerialization   ErrorCode = "COMMON_005"
	ErrCodeDatabaseError   ErrorCode = "COMMON_006"
	ErrCodeCacheError      ErrorCode = "COMMON_007"
	ErrCodeExternalService ErrorCode = "COMMON_008"
)

// Pattern rule-set error codes.
const (
	// ErrCodePatternInvalid marks a rule whose regular expression failed to
	// compile. Always fatal at load time, never deferred to first use.
	ErrCodePatternInvalid ErrorCode = "PATTERN_001"

	// ErrCodePatternFileUnreadable marks a rule file that could not be opened
	// or parsed as YAML.
	ErrCodePatternFileUnreadable ErrorCode = "PATTERN_002"

	// ErrCodePatternEmptyRuleSet marks a rule file that parsed but produced
	// zero rules.
	ErrCodePatternEmptyRuleSet ErrorCode = "PATTERN_003"
)

// Metadata fetch error codes.
const (
	// ErrCodeFetchFailed marks a repository metadata fetch that failed on
	// every configured endpoint.
	ErrCodeFetchFailed ErrorCode = "FETCH_001"

	// ErrCodeAccessionUnsupported marks an accession whose source repository
	// has no fetchable endpoint (e.g. MSV, PASS).
	ErrCodeAccessionUnsupported ErrorCode = "FETCH_002"
)
