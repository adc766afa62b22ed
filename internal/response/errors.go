package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrCandidateAccessOnly ErrCode = "CANDIDATE_ACCESS_ONLY"
	ErrAdminAccessOnly     ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation           ErrCode = "VALIDATION_ERROR"
	ErrInvalidID            ErrCode = "INVALID_ID"
	ErrInvalidPayload       ErrCode = "INVALID_PAYLOAD"
	ErrConfirmationMismatch ErrCode = "CONFIRMATION_MISMATCH"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Exam-specific ─────────────────────────────────────────────────
	ErrNoIdentity           ErrCode = "IDENTITY_REQUIRED"
	ErrExamIncomplete       ErrCode = "EXAM_INCOMPLETE"
	ErrInvalidAction        ErrCode = "INVALID_ACTION"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"
	ErrExamExpired          ErrCode = "EXAM_EXPIRED"
	ErrSessionAttached      ErrCode = "SESSION_ATTACHED"
	ErrSlotFull             ErrCode = "SLOT_FULL"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrDataUnavailable   ErrCode = "DATA_UNAVAILABLE"
	ErrPersistenceFailed ErrCode = "PERSISTENCE_FAILED"
	ErrInternal          ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "This email is not registered as an administrator."
	case ErrTokenRequired:
		return "Authentication token is required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrTokenExpired:
		return "Authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrCandidateAccessOnly:
		return "This resource is restricted to exam candidates."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrConfirmationMismatch:
		return "The confirmation email does not match your account."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Exam-specific ─────────────────────────────────────────────────
	case ErrNoIdentity:
		return "Please enter your details before starting the exam."
	case ErrExamIncomplete:
		return "Please answer every question before submitting."
	case ErrInvalidAction:
		return "This action is not allowed right now."
	case ErrConfirmationRequired:
		return "Leaving now will discard your answers. Please confirm."
	case ErrExamExpired:
		return "Time is up. Your answers are being submitted."
	case ErrSessionAttached:
		return "This exam is already open in another window."
	case ErrSlotFull:
		return "This answer already holds two fragments."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrDataUnavailable:
		return "Failed to fetch questions or answers. Please try again."
	case ErrPersistenceFailed:
		return "Your exam could not be saved. Please try again."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
