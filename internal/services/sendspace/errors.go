package sendspace

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration     = errors.New("sendspace: invalid client configuration")
	ErrEmptyResponse     = errors.New("sendspace: empty response")
	ErrMalformedResponse = errors.New("sendspace: malformed response")
	ErrProtocol          = errors.New("sendspace: protocol error")
	ErrParamMissing      = errors.New("sendspace: parameter missing from response")

	ErrAuthentication = errors.New("sendspace: unable to login, verify credentials")
	ErrNotLoggedIn    = errors.New("sendspace: not logged in")
	ErrSessionInvalid = errors.New("sendspace: session invalid")
	// ErrLogoutFailed is warning class: the session is dropped locally either way.
	ErrLogoutFailed = errors.New("sendspace: could not log out (probably ignorable)")

	ErrInvalidArgument = errors.New("sendspace: invalid argument")
	ErrFileAccess      = errors.New("sendspace: file could not be opened")
	ErrFileTooLarge    = errors.New("sendspace: file exceeds max file size")
	ErrUploadFailed    = errors.New("sendspace: could not upload file")
	ErrFileIDMissing   = errors.New("sendspace: could not upload file, file ID not found")
)

// ErrorCode is a numeric error code returned by the API inside the error entry.
type ErrorCode int

const (
	ErrorNoMethod ErrorCode = iota + 1
	ErrorUnknownMethod
	ErrorSessionKeyMissing
	ErrorParameterMissing
	ErrorBadAPIVersion
	ErrorSessionBad
	ErrorSessionNotAuth
	ErrorAuthenticationFailure
	ErrorFileNotFound
	ErrorFolderNotFound
	ErrorPermissionDenied
	ErrorDownloadTempError
	ErrorUploadTempError
	ErrorFolderNotEmpty
	ErrorSystemMaintenance
	ErrorInvalidParameter
	ErrorHTTPSForbidden
	ErrorUnknownAPIKey
	ErrorProExpired
	ErrorProDiskspaceLimit
	ErrorParameterBadValue
	ErrorBadPassword
	ErrorBandwidthLimit
	ErrorInvalidEmail
	ErrorOutdatedVersion
	ErrorInvalidFileURL
	ErrorRegistrationError
	ErrorContactExists
	ErrorContactNotExists
	ErrorTooManySessions
	ErrorBadTargetFolder
	ErrorContactsLimit
	ErrorFolderIsPrivate
)

var errorCodeNames = map[ErrorCode]string{
	ErrorNoMethod:              "NO_METHOD",
	ErrorUnknownMethod:         "UNKNOWN_METHOD",
	ErrorSessionKeyMissing:     "SESSION_KEY_MISSING",
	ErrorParameterMissing:      "PARAMETER_MISSING",
	ErrorBadAPIVersion:         "BAD_API_VERSION",
	ErrorSessionBad:            "SESSION_BAD",
	ErrorSessionNotAuth:        "SESSION_NOT_AUTH",
	ErrorAuthenticationFailure: "AUTHENTICATION_FAILURE",
	ErrorFileNotFound:          "FILE_NOT_FOUND",
	ErrorFolderNotFound:        "FOLDER_NOT_FOUND",
	ErrorPermissionDenied:      "PERMISSION_DENIED",
	ErrorDownloadTempError:     "DOWNLOAD_TEMP_ERROR",
	ErrorUploadTempError:       "UPLOAD_TEMP_ERROR",
	ErrorFolderNotEmpty:        "FOLDER_NOT_EMPTY",
	ErrorSystemMaintenance:     "SYSTEM_MAINTENANCE",
	ErrorInvalidParameter:      "INVALID_PARAMETER",
	ErrorHTTPSForbidden:        "HTTPS_FORBIDDEN",
	ErrorUnknownAPIKey:         "UNKNOWN_API_KEY",
	ErrorProExpired:            "PRO_EXPIRED",
	ErrorProDiskspaceLimit:     "PRO_DISKSPACE_LIMIT",
	ErrorParameterBadValue:     "PARAMETER_BAD_VALUE",
	ErrorBadPassword:           "BAD_PASSWORD",
	ErrorBandwidthLimit:        "BANDWIDTH_LIMIT",
	ErrorInvalidEmail:          "INVALID_EMAIL",
	ErrorOutdatedVersion:       "OUTDATED_VERSION",
	ErrorInvalidFileURL:        "INVALID_FILE_URL",
	ErrorRegistrationError:     "REGISTRATION_ERROR",
	ErrorContactExists:         "CONTACT_EXISTS",
	ErrorContactNotExists:      "CONTACT_NOT_EXISTS",
	ErrorTooManySessions:       "TOO_MANY_SESSIONS",
	ErrorBadTargetFolder:       "BAD_TARGET_FOLDER",
	ErrorContactsLimit:         "CONTACTS_LIMIT",
	ErrorFolderIsPrivate:       "FOLDER_IS_PRIVATE",
}

// String returns the API name of the code, e.g. "FILE_NOT_FOUND".
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Known reports whether c is one of the documented API error codes.
func (c ErrorCode) Known() bool {
	_, ok := errorCodeNames[c]
	return ok
}

// APIError is returned when the API answers with a status other than "ok".
type APIError struct {
	Method string
	Status string
	// Code is zero when the error entry carries no numeric code.
	Code ErrorCode
	Text string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: status not %q, error %d (%s): %s", e.Method, statusOK, int(e.Code), e.Code, e.Text)
	}
	return fmt.Sprintf("%s: status not %q, error: %s", e.Method, statusOK, e.Text)
}

func (e *APIError) Unwrap() error {
	return ErrProtocol
}

// IsErrorCode reports whether err carries an APIError with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
