package page

import "errors"

var (
	// ErrBadData is returned for entries with an inconsistent length field.
	ErrBadData = errors.New("page: entry length is invalid")
	// ErrOverflow is returned when a record plus its index slot does not
	// fit into the page's remaining free space.
	ErrOverflow = errors.New("page: not enough free space")
	// ErrBadArg is delivered through the cursor for ill-formed queries.
	ErrBadArg = errors.New("page: invalid search query")
)
