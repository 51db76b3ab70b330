package records

// PageSize is the number of records on one page.
const PageSize = 10

// Window is the slice of the store fetched for one page: the page itself
// plus a sentinel record on each side where one can exist.
type Window struct {
	Offset int
	Limit  int
	// Lead is the number of leading sentinel records (0 on the first page).
	Lead int
}

// ComputeWindow returns the fetch window for a 1-based page. The trailing
// sentinel is always requested; the leading one only past the first page,
// where it is the last record of the previous page.
func ComputeWindow(page, pageSize int) Window {
	if page <= 1 {
		return Window{Offset: 0, Limit: pageSize + 1, Lead: 0}
	}
	return Window{
		Offset: (page-1)*pageSize - 1,
		Limit:  pageSize + 2,
		Lead:   1,
	}
}
