package activity

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	ProjectPath string
	Limit       int
	Offset      int
}
