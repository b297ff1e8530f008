package activity

// ListActivityOptions provides filtering options for listing activity.
type ListActivityOptions struct {
	TrackID      *int
	ActivityType *ActivityType
	Limit        int
	Offset       int
}
