package store

import "fmt"

// Policy selects what Save does when an uploaded name collides with an
// existing file.
type Policy int

const (
	// Fail rejects the colliding item; the route layer additionally
	// aborts the rest of the batch.
	Fail Policy = iota
	// Skip leaves the existing file alone and drops the item.
	Skip
	// Keep stores the item under a numeric-suffixed free name.
	Keep
	// Overwrite replaces the existing file's bytes.
	Overwrite
)

// ErrInvalidPolicy reports an unrecognized duplicate-file-behavior
// value.
var ErrInvalidPolicy = fmt.Errorf("invalid duplicate-file-behavior")

// ParsePolicy maps the duplicate-file-behavior form value to a Policy.
// An empty value defaults to Fail, matching the raw-PUT endpoint's
// conservative semantics. Anything else unrecognized is an error
// rather than a silent default.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "fail":
		return Fail, nil
	case "skip":
		return Skip, nil
	case "keep":
		return Keep, nil
	case "overwrite":
		return Overwrite, nil
	}
	return Fail, fmt.Errorf("%w: %q", ErrInvalidPolicy, s)
}

func (p Policy) String() string {
	switch p {
	case Skip:
		return "skip"
	case Keep:
		return "keep"
	case Overwrite:
		return "overwrite"
	}
	return "fail"
}
