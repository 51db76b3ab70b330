package models

// Envelope is the result of a managed records retrieval for one page.
type Envelope struct {
	IDs                []int64           `json:"ids"`
	Open               []AugmentedRecord `json:"open"`
	ClosedPrimaryCount int               `json:"closedPrimaryCount"`
	PreviousPage       *int              `json:"previousPage"`
	NextPage           *int              `json:"nextPage"`
}

// EmptyEnvelope returns an envelope with no records and no adjacent pages.
// Slices are non-nil so they encode as [] rather than null.
func EmptyEnvelope() *Envelope {
	return &Envelope{
		IDs:  []int64{},
		Open: []AugmentedRecord{},
	}
}
