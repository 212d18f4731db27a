package sfmcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"
)

// RegisterMCPTools registers the query, catalog, and insight tools plus the
// memo://insights resource on the given MCP server.
func RegisterMCPTools(mcpServer *server.MCPServer, sfMcp *SnowflakeMcp) {
	// ReadQuery tool
	readQueryTool := mcp.NewTool("read_query",
		mcp.WithDescription("Execute a read-only SQL query against the Snowflake database. Statements that cannot be verified as read-only are rejected."),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SQL query to execute"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(readQueryTool, sfMcp.loggedToolHandler("read_query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		output := sfMcp.ReadQuery(ctx, QueryInput{SQL: sql})
		if output.Error != "" {
			return mcp.NewToolResultError(output.Error), nil
		}
		return dataResult(output, output.DataID), nil
	}))

	// WriteQuery tool
	writeQueryTool := mcp.NewTool("write_query",
		mcp.WithDescription("Execute a mutating SQL statement (INSERT, UPDATE, DELETE, ...) against the Snowflake database. Requires the server to be write-enabled."),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The SQL statement to execute"),
		),
	)

	mcpServer.AddTool(writeQueryTool, sfMcp.loggedToolHandler("write_query", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		output := sfMcp.WriteQuery(ctx, QueryInput{SQL: sql})
		if output.Error != "" {
			return mcp.NewToolResultError(output.Error), nil
		}
		return dataResult(output, output.DataID), nil
	}))

	// CreateTable tool
	createTableTool := mcp.NewTool("create_table",
		mcp.WithDescription("Create a new table in the Snowflake database. Accepts a single CREATE TABLE statement. Requires the server to be write-enabled."),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("The CREATE TABLE statement to execute"),
		),
	)

	mcpServer.AddTool(createTableTool, sfMcp.loggedToolHandler("create_table", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError("sql parameter is required"), nil
		}
		output := sfMcp.CreateTable(ctx, QueryInput{SQL: sql})
		if output.Error != "" {
			return mcp.NewToolResultError(output.Error), nil
		}
		return dataResult(output, output.DataID), nil
	}))

	// ListDatabases tool
	listDatabasesTool := mcp.NewTool("list_databases",
		mcp.WithDescription("List all databases visible to the current role."),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(listDatabasesTool, sfMcp.loggedToolHandler("list_databases", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		output, err := sfMcp.ListDatabases(ctx, ListDatabasesInput{})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return dataResult(output, output.DataID), nil
	}))

	// ListSchemas tool
	listSchemasTool := mcp.NewTool("list_schemas",
		mcp.WithDescription("List all schemas in a database."),
		mcp.WithString("database",
			mcp.Required(),
			mcp.Description("The database to list schemas from"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(listSchemasTool, sfMcp.loggedToolHandler("list_schemas", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		database, err := req.RequireString("database")
		if err != nil {
			return mcp.NewToolResultError("database parameter is required"), nil
		}
		output, err := sfMcp.ListSchemas(ctx, ListSchemasInput{Database: database})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return dataResult(output, output.DataID), nil
	}))

	// ListTables tool
	listTablesTool := mcp.NewTool("list_tables",
		mcp.WithDescription("List all tables and views in a schema."),
		mcp.WithString("database",
			mcp.Required(),
			mcp.Description("The database containing the schema"),
		),
		mcp.WithString("schema",
			mcp.Required(),
			mcp.Description("The schema to list tables from"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(listTablesTool, sfMcp.loggedToolHandler("list_tables", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		database, err := req.RequireString("database")
		if err != nil {
			return mcp.NewToolResultError("database parameter is required"), nil
		}
		schema, err := req.RequireString("schema")
		if err != nil {
			return mcp.NewToolResultError("schema parameter is required"), nil
		}
		output, err := sfMcp.ListTables(ctx, ListTablesInput{Database: database, Schema: schema})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return dataResult(output, output.DataID), nil
	}))

	// DescribeTable tool
	describeTableTool := mcp.NewTool("describe_table",
		mcp.WithDescription("Describe the columns of a table, including types, nullability, defaults, and comments."),
		mcp.WithString("table",
			mcp.Required(),
			mcp.Description("The fully qualified table name (database.schema.table)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(describeTableTool, sfMcp.loggedToolHandler("describe_table", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return mcp.NewToolResultError("table parameter is required"), nil
		}
		output, err := sfMcp.DescribeTable(ctx, DescribeTableInput{Table: table})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return dataResult(output, output.DataID), nil
	}))

	// DataDictionary tool
	dataDictionaryTool := mcp.NewTool("data_dictionary",
		mcp.WithDescription("Return the full structure of a database in one call: every schema with its tables, columns, and constraints."),
		mcp.WithString("database",
			mcp.Required(),
			mcp.Description("The database to document"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	mcpServer.AddTool(dataDictionaryTool, sfMcp.loggedToolHandler("data_dictionary", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		database, err := req.RequireString("database")
		if err != nil {
			return mcp.NewToolResultError("database parameter is required"), nil
		}
		output, err := sfMcp.DataDictionary(ctx, DataDictionaryInput{Database: database})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return dataResult(output, output.DataID), nil
	}))

	// AppendInsight tool
	appendInsightTool := mcp.NewTool("append_insight",
		mcp.WithDescription("Record a data insight discovered during analysis. Insights accumulate in the memo://insights resource."),
		mcp.WithString("insight",
			mcp.Required(),
			mcp.Description("The insight to record"),
		),
	)

	mcpServer.AddTool(appendInsightTool, sfMcp.loggedToolHandler("append_insight", func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		insight, err := req.RequireString("insight")
		if err != nil {
			return mcp.NewToolResultError("insight parameter is required"), nil
		}
		msg, err := sfMcp.AppendInsight(ctx, AppendInsightInput{Insight: insight})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(msg), nil
	}))

	// Insights memo resource. Pull-only: clients re-read it when they want
	// the current state.
	memoResource := mcp.NewResource("memo://insights", "Data Insights Memo",
		mcp.WithResourceDescription("A living document of insights discovered during analysis"),
		mcp.WithMIMEType("text/plain"),
	)

	mcpServer.AddResource(memoResource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "memo://insights",
				MIMEType: "text/plain",
				Text:     sfMcp.InsightsMemo(),
			},
		}, nil
	})
}

// dataResult renders a tool payload twice: YAML text for the model to read,
// and the same payload as a JSON embedded resource under a data:// URI for
// clients that want structured output.
func dataResult(payload interface{}, dataID string) *mcp.CallToolResult {
	yamlBytes, err := yaml.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError("failed to render result")
	}
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return mcp.NewToolResultError("failed to render result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(yamlBytes),
			},
			mcp.EmbeddedResource{
				Type: "resource",
				Resource: mcp.TextResourceContents{
					URI:      "data://" + dataID,
					MIMEType: "application/json",
					Text:     string(jsonBytes),
				},
			},
		},
	}
}

// loggedToolHandler wraps a tool handler to log request and response lengths.
func (p *SnowflakeMcp) loggedToolHandler(tool string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reqLen := requestLength(req)
		result, err := handler(ctx, req)
		respLen := resultLength(result)
		p.logger.Info().
			Str("tool", tool).
			Int("request_bytes", reqLen).
			Int("response_bytes", respLen).
			Msg("tool call")
		return result, err
	}
}

// requestLength returns the JSON-encoded byte length of the request arguments.
func requestLength(req mcp.CallToolRequest) int {
	args := req.GetArguments()
	if len(args) == 0 {
		return 0
	}
	b, err := json.Marshal(args)
	if err != nil {
		return 0
	}
	return len(b)
}

// resultLength returns the total byte length of text content in a CallToolResult.
func resultLength(result *mcp.CallToolResult) int {
	if result == nil {
		return 0
	}
	total := 0
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			total += len(tc.Text)
		}
	}
	return total
}
