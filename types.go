package sfmcp

// QueryInput is the input for the ReadQuery, WriteQuery, and CreateTable tools.
type QueryInput struct {
	SQL string `json:"sql"`
}

// QueryOutput is the output of the query tools. All errors (Snowflake errors,
// policy rejections, Go errors) are placed in Error. The error message is
// evaluated against error_prompts and matching prompt messages are appended.
type QueryOutput struct {
	Columns      []string                 `json:"columns"`
	Rows         []map[string]interface{} `json:"rows"`
	RowsAffected int64                    `json:"rows_affected"`
	DataID       string                   `json:"data_id,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

// ListDatabasesInput is the input for the ListDatabases tool.
type ListDatabasesInput struct{}

// DatabaseEntry represents a single database in the ListDatabases output.
type DatabaseEntry struct {
	Name string `json:"name"`
}

// ListDatabasesOutput is the output of the ListDatabases tool.
type ListDatabasesOutput struct {
	Databases []DatabaseEntry `json:"databases"`
	DataID    string          `json:"data_id,omitempty"`
}

// ListSchemasInput is the input for the ListSchemas tool.
type ListSchemasInput struct {
	Database string `json:"database"`
}

// SchemaEntry represents a single schema in the ListSchemas output.
type SchemaEntry struct {
	Name string `json:"name"`
}

// ListSchemasOutput is the output of the ListSchemas tool.
type ListSchemasOutput struct {
	Database string        `json:"database"`
	Schemas  []SchemaEntry `json:"schemas"`
	DataID   string        `json:"data_id,omitempty"`
}

// ListTablesInput is the input for the ListTables tool.
type ListTablesInput struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
}

// TableEntry represents a single table or view in the ListTables output.
type TableEntry struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Name     string `json:"name"`
	Comment  string `json:"comment,omitempty"`
}

// ListTablesOutput is the output of the ListTables tool.
type ListTablesOutput struct {
	Database string       `json:"database"`
	Schema   string       `json:"schema"`
	Tables   []TableEntry `json:"tables"`
	DataID   string       `json:"data_id,omitempty"`
}

// DescribeTableInput is the input for the DescribeTable tool. Table must be
// fully qualified as database.schema.table.
type DescribeTableInput struct {
	Table string `json:"table"`
}

// ColumnInfo describes a single column.
type ColumnInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
	Default  string `json:"default,omitempty"`
	Comment  string `json:"comment,omitempty"`
}

// DescribeTableOutput is the output of the DescribeTable tool.
type DescribeTableOutput struct {
	Database string       `json:"database"`
	Schema   string       `json:"schema"`
	Table    string       `json:"table"`
	Columns  []ColumnInfo `json:"columns"`
	DataID   string       `json:"data_id,omitempty"`
}

// DataDictionaryInput is the input for the DataDictionary tool.
type DataDictionaryInput struct {
	Database string `json:"database"`
}

// DictionaryColumn is one column in a data dictionary table entry.
type DictionaryColumn struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

// DictionaryConstraint is one constraint in a data dictionary table entry.
type DictionaryConstraint struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

// DictionaryTable aggregates one table's metadata, columns, and constraints.
type DictionaryTable struct {
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Owner       string                 `json:"owner,omitempty"`
	Comment     string                 `json:"comment,omitempty"`
	Columns     []DictionaryColumn     `json:"columns"`
	Constraints []DictionaryConstraint `json:"constraints,omitempty"`
}

// DictionarySchema groups dictionary tables by schema.
type DictionarySchema struct {
	Name   string            `json:"name"`
	Tables []DictionaryTable `json:"tables"`
}

// DataDictionaryOutput is the output of the DataDictionary tool: the full
// structure of one database.
type DataDictionaryOutput struct {
	Database string             `json:"database"`
	Schemas  []DictionarySchema `json:"schemas"`
	DataID   string             `json:"data_id,omitempty"`
}

// AppendInsightInput is the input for the AppendInsight tool.
type AppendInsightInput struct {
	Insight string `json:"insight"`
}
