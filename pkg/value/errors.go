package value

import "fmt"

// MaxDepth bounds the nesting of converted values.
const MaxDepth = 256

// SerializationError is returned when a value cannot be represented in the
// value model or in its target encoding.
type SerializationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SerializationError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Path == "" {
		return fmt.Sprintf("cannot serialize value: %s", msg)
	}
	return fmt.Sprintf("cannot serialize value at %s: %s", e.Path, msg)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// ChildPath and IndexPath build the dotted paths reported in errors.
func ChildPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func IndexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}
