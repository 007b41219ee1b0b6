package metadata

// Cardinality is the closed set of relation kinds.
type Cardinality int

const (
	OneToOne Cardinality = iota
	OneToMany
	ManyToMany
)

func (c Cardinality) String() string {
	switch c {
	case OneToOne:
		return "1:1"
	case OneToMany:
		return "1:N"
	case ManyToMany:
		return "N:N"
	}
	return "unknown"
}

// Relation describes a named relation column of an entity.
//
// For OneToOne and OneToMany the row linkage is a foreign key: FKColumn names
// the DB column holding it, and FKOnSelf says whether that column lives on the
// owning entity (belongs-to) or on the related entity (has-one / has-many).
// ManyToMany goes through JoinTable instead.
type Relation struct {
	Name            string // wire name ("categories", "stock", "parent", ...)
	Entity          string // related entity name
	DisplayKey      string // wire name of the related column used for filtering and nested sort
	Cardinality     Cardinality
	SelfReferential bool

	FKColumn string
	FKOnSelf bool

	JoinTable      string
	JoinSelfKey    string // join column referencing the owning entity
	JoinRelatedKey string // join column referencing the related entity

	// Writable relations accept a list of related primary keys in write
	// payloads: connect-only on create, replace-set on update.
	Writable bool
}

// SortableThrough reports whether a dotted sortField may resolve through this
// relation. N:N is not sortable-through.
func (r *Relation) SortableThrough() bool {
	return r.Cardinality == OneToOne || r.Cardinality == OneToMany
}
