package export

// NamespaceMeta is the top-level meta.json of a directory export
type NamespaceMeta struct {
	Version int      `json:"version"`
	Tables  []string `json:"tables,omitempty"`
	Figures []string `json:"figures,omitempty"`
}

// TableMeta is <table>/meta.json
type TableMeta struct {
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	Tick     uint64       `json:"tick"`
	RowCount int          `json:"row_count"`
	Columns  []ColumnMeta `json:"columns"`
}

type ColumnMeta struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	NotNull bool   `json:"not_null,omitempty"`
}
