package records

import "github.com/HerbHall/managedrecords/pkg/models"

// ColorSet is an immutable set of color names.
type ColorSet map[string]struct{}

// NewColorSet builds a ColorSet from names.
func NewColorSet(names ...string) ColorSet {
	s := make(ColorSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether color is in the set.
func (s ColorSet) Contains(color string) bool {
	_, ok := s[color]
	return ok
}

// PrimaryColors returns the colors that mark a record as primary.
func PrimaryColors() ColorSet {
	return NewColorSet("red", "blue", "yellow")
}

// Transform maps a fetched window into the result envelope for page.
// raw is the store response for w, in store order.
func Transform(page int, w Window, raw []models.Record, pageSize int, primary ColorSet) *models.Envelope {
	env := models.EmptyEnvelope()

	if len(raw) == w.Limit {
		next := page + 1
		env.NextPage = &next
	}
	if page > 1 && len(raw) > 0 {
		prev := page - 1
		env.PreviousPage = &prev
	}

	start := min(w.Lead, len(raw))
	end := min(start+pageSize, len(raw))
	windowed := raw[start:end]

	env.IDs = make([]int64, 0, len(windowed))
	for _, r := range windowed {
		env.IDs = append(env.IDs, r.ID)

		isPrimary := primary.Contains(r.Color)
		switch r.Disposition {
		case models.DispositionOpen:
			env.Open = append(env.Open, augment(r, isPrimary))
		case models.DispositionClosed:
			if isPrimary {
				env.ClosedPrimaryCount++
			}
		}
	}

	return env
}

func augment(r models.Record, isPrimary bool) models.AugmentedRecord {
	flag := "false"
	if isPrimary {
		flag = "true"
	}
	return models.AugmentedRecord{Record: r, IsPrimary: flag}
}
