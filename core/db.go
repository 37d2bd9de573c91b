package core

// DBOrdering expresses a single ORDER BY term. Field is an exposed field
// name; repositories map it to a column and discard anything they do not
// recognize.
type DBOrdering struct {
	Field     string
	Ascending bool
}
