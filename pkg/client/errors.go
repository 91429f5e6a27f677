package client

import (
	"fmt"

	"github.com/patchgo/patchgo/pkg/version"
)

// Kind identifies a category of client-side error, mirroring the taxonomy
// that every public operation surfaces rather than swallows.
type Kind string

const (
	KindInvalidURL                   Kind = "invalid_url"
	KindHTTPRequestFailed            Kind = "http_request_failed"
	KindHTTPError                    Kind = "http_error"
	KindUnexpectedContentType        Kind = "unexpected_content_type"
	KindMissingData                  Kind = "missing_data"
	KindTooMuchData                  Kind = "too_much_data"
	KindMissingSignature             Kind = "missing_signature"
	KindInvalidSignature             Kind = "invalid_signature"
	KindFailedSignatureVerification  Kind = "failed_signature_verification"
	KindInvalidBody                  Kind = "invalid_body"
	KindInvalidPayload               Kind = "invalid_payload"
	KindFailedHashVerification       Kind = "failed_hash_verification"
	KindUnableToCreateTempDir        Kind = "unable_to_create_temp_dir"
	KindDownload                     Kind = "download"
	KindWriteToDownload              Kind = "write_to_download"
	KindUnableToRenameCurrentExe     Kind = "unable_to_rename_current_exe"
	KindMoveNewExe                   Kind = "move_new_exe"
	KindGetFileMetadata              Kind = "get_file_metadata"
	KindSetFilePermissions           Kind = "set_file_permissions"
	KindUnableToObtainCurrentExePath Kind = "unable_to_obtain_current_exe_path"
)

// Error is the concrete error type every client operation returns on
// failure. It always carries its Kind plus, where relevant, the offending
// URL, path, HTTP status, or version.
type Error struct {
	Kind    Kind
	URL     string
	Path    string
	Status  int
	Version version.Version
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPError:
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.URL, e.Status)
	case KindFailedHashVerification:
		return fmt.Sprintf("%s: version %s", e.Kind, e.Version)
	case KindInvalidURL, KindHTTPRequestFailed, KindUnexpectedContentType:
		if e.URL != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		if e.Path != "" {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func errURL(kind Kind, url string, err error) *Error {
	return &Error{Kind: kind, URL: url, Err: err}
}

func errPath(kind Kind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

func errVersion(kind Kind, v version.Version) *Error {
	return &Error{Kind: kind, Version: v}
}

func errHTTPStatus(url string, status int) *Error {
	return &Error{Kind: KindHTTPError, URL: url, Status: status}
}

func errSimple(kind Kind) *Error {
	return &Error{Kind: kind}
}
