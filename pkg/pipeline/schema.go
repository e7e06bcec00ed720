package pipeline

import (
	"github.com/pkg/errors"

	"github.com/MarinaBorodkina/SPARK/pkg/frame"
)

// Require checks that f has the named column and, when types are given,
// that it is one of them. Stages call it before reading their inputs.
func Require(f *frame.Frame, name string, types ...frame.Type) (frame.Type, error) {
	t, err := f.TypeOf(name)
	if err != nil {
		return "", err
	}
	if len(types) == 0 {
		return t, nil
	}
	for _, want := range types {
		if t == want {
			return t, nil
		}
	}
	return "", errors.Errorf("pipeline: column %q is %s, want one of %v", name, t, types)
}

// RequireAbsent fails when an output column would overwrite an input.
func RequireAbsent(f *frame.Frame, name string) error {
	if f.Has(name) {
		return errors.Errorf("pipeline: output column %q already exists", name)
	}
	return nil
}
