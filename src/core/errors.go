package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// A ValidationError describes one way in which some user-supplied text is malformed.
// They are always collected together so the user sees every problem at once.
type ValidationError struct {
	Message string
}

func (err *ValidationError) Error() string {
	return err.Message
}

// collect appends a new ValidationError to errs, if it's non-nil.
func collect(errs **multierror.Error, msg string) {
	if errs != nil {
		*errs = multierror.Append(*errs, &ValidationError{Message: msg})
	}
}

// validationErrorFormat formats a set of validation errors as actionable text, one per line.
func validationErrorFormat(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = "  * " + strings.ReplaceAll(err.Error(), "\n", "\n    ")
	}
	return fmt.Sprintf("%d validation errors:\n%s", len(errs), strings.Join(msgs, "\n"))
}

// ValidationErrors returns all the ValidationErrors contained within the given error.
func ValidationErrors(err error) []*ValidationError {
	var ret []*ValidationError
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			ret = append(ret, ValidationErrors(e)...)
		}
		return ret
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		ret = append(ret, verr)
	}
	return ret
}

// A MissingReferenceError is recorded when something refers to a target key that has
// no entry in the current target map. They are never fatal; the referrer is skipped.
type MissingReferenceError struct {
	Key      TargetKey
	Referrer string
}

func (err *MissingReferenceError) Error() string {
	if err.Referrer == "" {
		return fmt.Sprintf("target %s is not in the target map", err.Key)
	}
	return fmt.Sprintf("target %s (referenced by %s) is not in the target map", err.Key, err.Referrer)
}
