package engine

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"catalog-admin/internal/metadata"
)

// Op is the filter operator produced by query translation.
type Op int

const (
	OpEquals Op = iota
	OpContains
	OpBetween
)

// Condition is one translated filter. Exactly one of Column or Relation is
// set: a scalar condition on the entity itself, or a contains-match routed
// through a relation's display key.
type Condition struct {
	Column   *metadata.Column
	Relation *metadata.Relation
	Op       Op
	Value    any
	Hi       any // upper bound for OpBetween
}

// FilterSpec is the ordered set of conditions for one request; conditions
// combine with AND.
type FilterSpec struct {
	Conditions []Condition
}

// SortSpec is the single sort key for a request: either a scalar column or a
// nested key reached through a 1:1 / 1:N relation.
type SortSpec struct {
	Column   *metadata.Column
	Relation *metadata.Relation
	Desc     bool
}

// Page is the requested list window.
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// BuildFilter scans every indexed filterField_i / filterValue_i pair; the
// index only disambiguates repeats, so gaps are fine. A pair counts only when
// both field and value are present, and values that fail to parse for the
// column's type are dropped silently; BuildFilter never fails.
func BuildFilter(entity *metadata.Entity, params map[string]string) FilterSpec {
	var spec FilterSpec
	for _, i := range filterIndexes(params) {
		field := params["filterField_"+strconv.Itoa(i)]
		value := params["filterValue_"+strconv.Itoa(i)]
		if field == "" || value == "" {
			continue
		}
		if cond, ok := buildCondition(entity, field, value); ok {
			spec.Conditions = append(spec.Conditions, cond)
		}
	}
	return spec
}

// filterIndexes collects the index of every filterField_* key, sorted so
// condition order is deterministic.
func filterIndexes(params map[string]string) []int {
	var idxs []int
	for key := range params {
		suffix, ok := strings.CutPrefix(key, "filterField_")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			continue
		}
		idxs = append(idxs, n)
	}
	sort.Ints(idxs)
	return idxs
}

func buildCondition(entity *metadata.Entity, field, value string) (Condition, bool) {
	// Relation names take precedence: the condition becomes a
	// case-insensitive contains on the related display key.
	if rel := entity.Relation(field); rel != nil {
		return Condition{Relation: rel, Op: OpContains, Value: value}, true
	}

	col := entity.Column(field)
	if col == nil {
		return Condition{}, false
	}

	switch col.Type {
	case metadata.Int:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Condition{}, false
		}
		return Condition{Column: col, Op: OpEquals, Value: n}, true
	case metadata.Float:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return Condition{}, false
		}
		return Condition{Column: col, Op: OpEquals, Value: f}, true
	case metadata.Boolean:
		return Condition{Column: col, Op: OpEquals, Value: strings.ToLower(value) == "true"}, true
	case metadata.DateTime:
		startRaw, endRaw, ok := strings.Cut(value, ",")
		if !ok {
			return Condition{}, false
		}
		start, err1 := ParseTime(strings.TrimSpace(startRaw))
		end, err2 := ParseTime(strings.TrimSpace(endRaw))
		if err1 != nil || err2 != nil {
			return Condition{}, false
		}
		return Condition{Column: col, Op: OpBetween, Value: start, Hi: end}, true
	case metadata.String, metadata.UUID, metadata.File:
		return Condition{Column: col, Op: OpContains, Value: value}, true
	}
	return Condition{}, false
}

// BuildSort resolves sortField / sortOrder. A dotted sortField
// ("relatedentity.displayKey") resolves through a 1:1 or 1:N relation whose
// related entity name matches case-insensitively and whose display key
// matches; anything unresolvable falls back to the primary key ascending.
func BuildSort(entity *metadata.Entity, params map[string]string) SortSpec {
	desc := true
	switch params["sortOrder"] {
	case "ascend", "asc":
		desc = false
	}

	if field := params["sortField"]; field != "" {
		if relName, key, dotted := strings.Cut(field, "."); dotted {
			for i := range entity.Relations {
				rel := &entity.Relations[i]
				if rel.SortableThrough() && strings.EqualFold(rel.Entity, relName) && rel.DisplayKey == key {
					return SortSpec{Relation: rel, Desc: desc}
				}
			}
		} else if col := entity.Column(field); col != nil {
			return SortSpec{Column: col, Desc: desc}
		}
	}

	if pk := entity.PrimaryKey(); pk != nil {
		return SortSpec{Column: pk}
	}
	return SortSpec{Column: &metadata.Column{Name: "id", DBName: "id"}}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime accepts the ISO shapes date pickers send.
func ParseTime(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
