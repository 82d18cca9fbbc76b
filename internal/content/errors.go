package content

import "errors"

// Error kinds shared by every layer. Callers wrap them with fmt.Errorf("%w")
// and test with errors.Is.
var (
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("duplicate")
	ErrCoercion      = errors.New("coercion failed")
	ErrFieldNotFound = errors.New("field not found")
	ErrStore         = errors.New("store error")
)

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrValidation, "ValidationError"},
	{ErrNotFound, "NotFoundError"},
	{ErrDuplicate, "DuplicateError"},
	{ErrCoercion, "CoercionError"},
	{ErrFieldNotFound, "FieldNotFound"},
	{ErrStore, "StoreError"},
}

// ErrorKind names the kind of err for API results. Unclassified errors are
// reported as StoreError since they can only originate from the driver.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "StoreError"
}
