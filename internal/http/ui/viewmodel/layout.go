package viewmodel

// User represents the authenticated user context exposed to templates.
type User struct {
	Username string
	Email    string
	Role     string
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CSRFToken       string
	IsAuthenticated bool
	// AdminContext selects the admin navigation shell. It is carried in the
	// page data rather than recomputed from the session so both shells render
	// the same nav for the same page.
	AdminContext   bool
	CanManageUsers bool
	User           *User
}

// LayoutProvider exposes layout metadata for renderer utilities.
type LayoutProvider interface {
	LayoutData() *Layout
}
