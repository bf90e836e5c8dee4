package exitcode

import (
	"os"
	"strings"

	"github.com/PerezAngel/iep-bedrock-studio/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// AuthError indicates an authentication or authorization failure
	AuthError = 3

	// WorkflowError indicates a rejected workflow operation
	WorkflowError = 4

	// NetworkError indicates a network connectivity issue
	NetworkError = 5

	// ConfigError indicates invalid or unreadable configuration
	ConfigError = 6

	// Interrupted indicates the run was cancelled by a signal
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Structured errors
// are classified by their code; anything else falls back to message
// heuristics for usage and network failures.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var serr *errors.StudioError
	if errors.As(err, &serr) {
		switch serr.Code {
		case errors.ErrCodeAuthRequired, errors.ErrCodeAuthForbidden,
			errors.ErrCodeAuthUnknown, errors.ErrCodeAuthNoSession:
			return AuthError
		case errors.ErrCodeStatusChangeFailed, errors.ErrCodeContentIDMissing,
			errors.ErrCodeActionUnknown, errors.ErrCodeOperationInFlight,
			errors.ErrCodeImageStyleUnknown:
			return WorkflowError
		case errors.ErrCodeLoadFailed, errors.ErrCodeGenerateFailed,
			errors.ErrCodeBoardRefreshFailed, errors.ErrCodeImageGenerateFailed:
			return NetworkError
		case errors.ErrCodeConfigInvalid, errors.ErrCodeConfigNotFound:
			return ConfigError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "forbidden") {
		return AuthError
	}
	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "unreachable") {
		return NetworkError
	}
	if strings.Contains(errMsg, "unknown command") || strings.Contains(errMsg, "unknown flag") ||
		strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case AuthError:
		return "Authentication error"
	case WorkflowError:
		return "Workflow operation rejected"
	case NetworkError:
		return "Network error"
	case ConfigError:
		return "Configuration error"
	case Interrupted:
		return "Cancelled by signal"
	default:
		return "Unknown error"
	}
}
