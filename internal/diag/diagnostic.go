package diag

// Note adds context to a diagnostic.
type Note struct {
	Subject string
	Msg     string
}

// Diagnostic is one finding. Subject names what it is about: a catalog
// entry, a function, or a parameter path such as "make.q".
type Diagnostic struct {
	Severity Severity
	Code     Code
	Subject  string
	Message  string
	Notes    []Note
}
