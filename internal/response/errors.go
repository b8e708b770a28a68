package response

import "fmt"

// ErrCode is a typed error code enum for consistent API error identification.
// Check-in rejections share one taxonomy with the client engine so a caller
// sees the same code whether the rejection happened locally or server-side.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrTeacherAccessOnly ErrCode = "TEACHER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Check-in ──────────────────────────────────────────────────────
	ErrAlreadyCheckedIn    ErrCode = "ALREADY_CHECKED_IN"
	ErrNotToday            ErrCode = "NOT_TODAY"
	ErrSessionClosed       ErrCode = "SESSION_CLOSED"
	ErrTooEarly            ErrCode = "TOO_EARLY"
	ErrTooLate             ErrCode = "TOO_LATE"
	ErrOutOfRange          ErrCode = "OUT_OF_RANGE"
	ErrLocationUnavailable ErrCode = "LOCATION_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email/NISN atau kata sandi salah."
	case ErrSessionActive:
		return "Anda sudah login di perangkat lain."
	case ErrSessionInvalidated:
		return "Sesi Anda telah berakhir. Silakan login kembali."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrStudentAccessOnly:
		return "Sumber daya ini terbatas untuk siswa."
	case ErrTeacherAccessOnly:
		return "Sumber daya ini terbatas untuk guru."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrConflict:
		return "Sumber daya sudah ada."
	case ErrDependencyExists:
		return "Data tidak dapat dihapus karena masih digunakan oleh data lain."

	// ─── Check-in ──────────────────────────────────────────────────────
	case ErrAlreadyCheckedIn:
		return "Anda sudah melakukan presensi untuk sesi ini."
	case ErrNotToday:
		return "Sesi ini tidak dijadwalkan untuk hari ini."
	case ErrSessionClosed:
		return "Sesi presensi sedang ditutup oleh guru."
	case ErrTooEarly:
		return "Sesi presensi belum dimulai."
	case ErrTooLate:
		return "Waktu presensi untuk sesi ini telah berakhir."
	case ErrOutOfRange:
		return "Anda berada di luar jangkauan lokasi kelas."
	case ErrLocationUnavailable:
		return "Lokasi perangkat tidak dapat ditemukan. Periksa GPS Anda."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}

// OutOfRangeMessage builds the actionable OUT_OF_RANGE message carrying the
// measured distance and the allowed radius, so the user knows by how much
// they missed.
func OutOfRangeMessage(distanceMeters, radiusMeters float64) string {
	return fmt.Sprintf(
		"Anda berada %.0f m dari lokasi kelas (maksimum %.0f m).",
		distanceMeters, radiusMeters,
	)
}
