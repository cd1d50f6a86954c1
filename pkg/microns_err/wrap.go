// pkg/microns_err/wrap.go

package microns_err

import (
	cerr "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
)

func WrapValidationError(err error) error {
	return cerr.WithHint(cerr.WithStack(err), "validation failed")
}

// JoinValidation aggregates field errors into one error; nil when errs is empty.
func JoinValidation(errs ...*ValidationError) error {
	var result *multierror.Error
	for _, e := range errs {
		if e != nil {
			result = multierror.Append(result, e)
		}
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(es []error) string {
		if len(es) == 1 {
			return es[0].Error()
		}
		msg := es[0].Error()
		for _, e := range es[1:] {
			msg += "; " + e.Error()
		}
		return msg
	}
	return result
}
