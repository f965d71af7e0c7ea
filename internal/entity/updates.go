package entity

// ArtifactUpdates carries the optional fields of a status-update call. Fields
// left nil are not touched by the merge; status and the updated timestamp are
// always overwritten by the store.
type ArtifactUpdates struct {
	OutputURI     *string
	FirstFrameURI *string
	Error         *string
}

// IsEmpty reports whether no optional field is set.
func (u ArtifactUpdates) IsEmpty() bool {
	return u.OutputURI == nil && u.FirstFrameURI == nil && u.Error == nil
}

// WithOutput returns updates carrying an output locator.
func WithOutput(uri string) ArtifactUpdates {
	return ArtifactUpdates{OutputURI: &uri}
}

// WithError returns updates carrying a failure message.
func WithError(message string) ArtifactUpdates {
	return ArtifactUpdates{Error: &message}
}
