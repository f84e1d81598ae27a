package scanner

import (
	"errors"
	"io/fs"
	"syscall"
)

// Kind classifies a FolderError.
type Kind int

const (
	PathNotFound Kind = iota + 1
	NotADirectory
	PermissionDenied
	SnapshotRootUnwritable
	SnapshotWriteFailed
)

func (k Kind) String() string {
	switch k {
	case PathNotFound:
		return "PathNotFound"
	case NotADirectory:
		return "NotADirectory"
	case PermissionDenied:
		return "PermissionDenied"
	case SnapshotRootUnwritable:
		return "SnapshotRootUnwritable"
	case SnapshotWriteFailed:
		return "SnapshotWriteFailed"
	default:
		return "Unknown"
	}
}

// User-facing messages. They are returned verbatim by the HTTP API.
const (
	msgPathNotFound         = "해당 경로가 존재하지 않습니다."
	msgNotADirectory        = "디렉터리 경로를 선택해주세요."
	msgDirectoryPermission  = "디렉터리에 접근 권한이 없습니다."
	msgEntryNotFound        = "스냅샷 대상 파일을 찾을 수 없습니다."
	msgEntryPermission      = "파일에 접근 권한이 없습니다."
	msgSnapshotRootCreation = "스냅샷 디렉터리를 생성할 수 없습니다."
	msgSnapshotWrite        = "스냅샷 파일을 저장할 수 없습니다."
)

// FolderError is the single error type returned by the inspector and the
// snapshotter. Error returns the localized message only; the underlying
// filesystem error stays reachable through Unwrap for logging.
type FolderError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *FolderError) Error() string {
	return e.Message
}

func (e *FolderError) Unwrap() error {
	return e.Err
}

func newFolderError(kind Kind, message string, err error) *FolderError {
	return &FolderError{Kind: kind, Message: message, Err: err}
}

// IsKind reports whether err is a FolderError of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *FolderError
	return errors.As(err, &fe) && fe.Kind == kind
}

// directoryError translates an error raised while resolving or listing a directory.
func directoryError(err error) *FolderError {
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return newFolderError(PathNotFound, msgPathNotFound, err)
	default:
		return newFolderError(PermissionDenied, msgDirectoryPermission, err)
	}
}

// entryError translates an error raised while stating a snapshot entry.
func entryError(err error) *FolderError {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newFolderError(PathNotFound, msgEntryNotFound, err)
	default:
		return newFolderError(PermissionDenied, msgEntryPermission, err)
	}
}
