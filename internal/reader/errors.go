package reader

import (
	"errors"
	"fmt"
)

// Kind classifies the failures the reader turns into announcements.
type Kind int

const (
	KindUnknown Kind = iota
	FeatureUnavailable
	PermissionDenied
	EngineError
)

func (k Kind) String() string {
	switch k {
	case FeatureUnavailable:
		return "feature unavailable"
	case PermissionDenied:
		return "permission denied"
	case EngineError:
		return "engine error"
	default:
		return "unknown"
	}
}

var (
	ErrSpeechUnavailable      = errors.New("speech synthesis is not available")
	ErrRecognitionUnavailable = errors.New("speech recognition is not available")
	ErrEmptyText              = errors.New("nothing to read")
	ErrNoDocument             = errors.New("no document loaded")
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}
