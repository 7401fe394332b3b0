package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Kind groups error codes by where the failure happened.
type Kind string

const (
	KindResource Kind = "resource"
	KindProtocol Kind = "protocol"
	KindConfig   Kind = "config"
)

// Resource errors: failures at the OS/process boundary.
const (
	// ErrCodePipe indicates a pipe could not be allocated.
	ErrCodePipe ErrorCode = "PIPE_FAILED"
	// ErrCodeSpawn indicates the filter process could not be started.
	ErrCodeSpawn ErrorCode = "SPAWN_FAILED"
	// ErrCodeExec indicates the filter command failed to run to completion.
	ErrCodeExec ErrorCode = "EXEC_FAILED"
	// ErrCodeClose indicates a pipe endpoint could not be closed.
	ErrCodeClose ErrorCode = "CLOSE_FAILED"
	// ErrCodeRead indicates reading the filter's stdout failed.
	ErrCodeRead ErrorCode = "READ_FAILED"
	// ErrCodeWrite indicates serializing into the filter's stdin failed.
	ErrCodeWrite ErrorCode = "WRITE_FAILED"
	// ErrCodeWait indicates the filter process could not be reaped.
	ErrCodeWait ErrorCode = "WAIT_FAILED"
	// ErrCodeJoin indicates the writer goroutine could not be joined.
	ErrCodeJoin ErrorCode = "JOIN_FAILED"
	// ErrCodeStore indicates a tile store read or write failed.
	ErrCodeStore ErrorCode = "STORE_FAILED"
)

// Protocol errors: malformed filter output.
const (
	ErrCodeSyntax              ErrorCode = "SYNTAX_ERROR"
	ErrCodeMissingGeometry     ErrorCode = "MISSING_GEOMETRY"
	ErrCodeInvalidProperties   ErrorCode = "INVALID_PROPERTIES"
	ErrCodeNullGeometry        ErrorCode = "NULL_GEOMETRY"
	ErrCodeInvalidGeometryType ErrorCode = "INVALID_GEOMETRY_TYPE"
	ErrCodeInvalidCoordinates  ErrorCode = "INVALID_COORDINATES"
	ErrCodeUnsupportedGeometry ErrorCode = "UNSUPPORTED_GEOMETRY"
	ErrCodeInvalidTile         ErrorCode = "INVALID_TILE"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "CONFIG_INVALID"
)

var codeKinds = map[ErrorCode]Kind{
	ErrCodePipe:                KindResource,
	ErrCodeSpawn:               KindResource,
	ErrCodeExec:                KindResource,
	ErrCodeClose:               KindResource,
	ErrCodeRead:                KindResource,
	ErrCodeWrite:               KindResource,
	ErrCodeWait:                KindResource,
	ErrCodeJoin:                KindResource,
	ErrCodeStore:               KindResource,
	ErrCodeSyntax:              KindProtocol,
	ErrCodeMissingGeometry:     KindProtocol,
	ErrCodeInvalidProperties:   KindProtocol,
	ErrCodeNullGeometry:        KindProtocol,
	ErrCodeInvalidGeometryType: KindProtocol,
	ErrCodeInvalidCoordinates:  KindProtocol,
	ErrCodeUnsupportedGeometry: KindProtocol,
	ErrCodeInvalidTile:         KindProtocol,
	ErrCodeInvalidConfig:       KindConfig,
}

// KindOf returns the kind of the code. Unknown codes are treated as resource errors.
func KindOf(code ErrorCode) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return KindResource
}

// opCodes maps the operation names reported by resource errors to their code.
var opCodes = map[string]ErrorCode{
	"pipe":  ErrCodePipe,
	"spawn": ErrCodeSpawn,
	"exec":  ErrCodeExec,
	"close": ErrCodeClose,
	"read":  ErrCodeRead,
	"write": ErrCodeWrite,
	"wait":  ErrCodeWait,
	"join":  ErrCodeJoin,
	"store": ErrCodeStore,
}
