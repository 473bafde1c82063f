package core

import "strings"

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrderings parses a comma separated list of fields, each optionally prefixed by "-" for descending order.
// e.g. "name,-created_at"
func ParseOrderings(s string) []DBOrdering {
	var ords []DBOrdering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ords = append(ords, DBOrdering{Field: field, Ascending: !descending})
	}
	return ords
}

// AllowedOrderings drops the orderings on fields that are not in allowed.
func AllowedOrderings(ords []DBOrdering, allowed ...string) []DBOrdering {
	res := make([]DBOrdering, 0, len(ords))
	for _, ord := range ords {
		for _, fld := range allowed {
			if ord.Field == fld {
				res = append(res, ord)
				break
			}
		}
	}
	return res
}
