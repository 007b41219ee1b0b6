package metadata

// ColumnType is the closed set of scalar column types. Query translation
// switches on it exhaustively; there is no string-typed fallback.
type ColumnType int

const (
	Int ColumnType = iota
	Float
	Boolean
	String
	DateTime
	UUID
	File
)

func (t ColumnType) String() string {
	switch t {
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Boolean:
		return "Boolean"
	case String:
		return "String"
	case DateTime:
		return "DateTime"
	case UUID:
		return "UUID"
	case File:
		return "File"
	}
	return "unknown"
}

// AutoStamp marks timestamp columns the engine maintains itself.
type AutoStamp int

const (
	AutoNone AutoStamp = iota
	AutoCreate
	AutoUpdate
)

// Column describes one scalar column of an entity. Name is the wire name
// (JSON key, filter/sort field); DBName is the SQL identifier.
type Column struct {
	Name       string
	DBName     string
	Type       ColumnType
	PrimaryKey bool
	Nullable   bool
	Unique     bool
	Sensitive  bool // excluded from every response (password hashes)
	Auto       AutoStamp
}

// IsAuto reports whether the engine stamps this column on write.
func (c Column) IsAuto() bool {
	return c.Auto == AutoCreate || c.Auto == AutoUpdate
}
