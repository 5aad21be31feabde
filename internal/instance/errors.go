package instance

import "fmt"

// NotFoundError means no instance carries the requested Name tag.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("instance %q is not found", e.Name)
}

// AmbiguousNameError means the Name tag is not unique.
type AmbiguousNameError struct {
	Name    string
	Matches int
}

func (e *AmbiguousNameError) Error() string {
	return fmt.Sprintf("instance %q must be unique, found %d matches", e.Name, e.Matches)
}

// ConsistencyError means the inventory returned an instance whose Name tag
// does not equal the requested name.
type ConsistencyError struct {
	Requested string
	Found     string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("found=%q and requested=%q must be equal", e.Found, e.Requested)
}

// WaiterError means the instance never reached the running state.
type WaiterError struct {
	ID  string
	Err error
}

func (e *WaiterError) Error() string {
	return fmt.Sprintf("instance id=%s did not reach running state: %v", e.ID, e.Err)
}

func (e *WaiterError) Unwrap() error { return e.Err }
