package gpu

import "fmt"

// ResourceError reports a failed GPU object construction.
type ResourceError struct {
	Kind string // "mesh", "texture", "shadow target", ...
	Name string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("creating %s %q: %v", e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("creating %s: %v", e.Kind, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}
