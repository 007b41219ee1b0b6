package metadata

// Check is a validation rule evaluated against the merged record before a
// write. Expr is an expr-lang expression over {"record": map[string]any};
// a false result rejects the write with Message.
type Check struct {
	Name    string
	Expr    string
	Message string
}

// Entity is the static schema descriptor for one catalog entity. Descriptors
// are built once at startup and never mutated afterwards.
type Entity struct {
	Name      string // singular route name: "category", "product", ...
	Table     string
	Columns   []Column
	Relations []Relation
	Checks    []Check
}

// PrimaryKey returns the primary key column, or nil if none is declared.
func (e *Entity) PrimaryKey() *Column {
	for i := range e.Columns {
		if e.Columns[i].PrimaryKey {
			return &e.Columns[i]
		}
	}
	return nil
}

// Column returns the column with the given wire name, or nil.
func (e *Entity) Column(name string) *Column {
	for i := range e.Columns {
		if e.Columns[i].Name == name {
			return &e.Columns[i]
		}
	}
	return nil
}

// Relation returns the relation with the given wire name, or nil.
func (e *Entity) Relation(name string) *Relation {
	for i := range e.Relations {
		if e.Relations[i].Name == name {
			return &e.Relations[i]
		}
	}
	return nil
}

// WritableColumns returns the columns a client may set: everything except
// generated primary keys and auto-stamped timestamps.
func (e *Entity) WritableColumns() []Column {
	var cols []Column
	for _, c := range e.Columns {
		if c.PrimaryKey || c.IsAuto() {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// ReadColumns returns the columns included in responses (Sensitive excluded).
func (e *Entity) ReadColumns() []Column {
	var cols []Column
	for _, c := range e.Columns {
		if c.Sensitive {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

// FileColumns returns the columns of type File.
func (e *Entity) FileColumns() []Column {
	var cols []Column
	for _, c := range e.Columns {
		if c.Type == File {
			cols = append(cols, c)
		}
	}
	return cols
}

// HasFileColumns reports whether deleting a record requires file cleanup.
func (e *Entity) HasFileColumns() bool {
	return len(e.FileColumns()) > 0
}
