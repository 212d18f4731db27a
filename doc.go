// Package sfmcp provides safe, controlled Snowflake access for AI agents
// through the Model Context Protocol (MCP).
//
// It exposes read_query, write_query, create_table, catalog listing tools,
// describe_table, and an insight memo — with a full execution pipeline:
// lexical read/write classification, resource exclusion filtering, data
// sanitization, result truncation, and dynamic agent steering via error
// prompts.
//
// The read/write gate is fail-closed: a statement is executed through
// read_query only when its leading keyword positively identifies it as
// read-only (SELECT, SHOW, DESCRIBE, EXPLAIN, USE, or a WITH prefix that
// resolves to SELECT). Classification is purely lexical — string literals,
// comments, and quoted identifiers never influence it, and nothing is sent
// to Snowflake to decide.
//
// The Snowflake session is established lazily: New never dials, the first
// tool call that needs a session connects. A failed attempt leaves the gate
// retryable, and a max lifetime bound forces periodic re-authentication.
//
// # Library Usage
//
//	p := sfmcp.New(dsn, sfmcp.Config{
//		Session: sfmcp.SessionConfig{MaxConcurrent: 10, MaxLifetimeSeconds: 1800},
//		Query: sfmcp.QueryConfig{
//			DefaultTimeoutSeconds:       30,
//			ListTimeoutSeconds:          10,
//			DescribeTableTimeoutSeconds: 10,
//		},
//		Exclude: []sfmcp.ExclusionRule{{Schema: "SECRET*"}},
//	}, logger)
//	defer p.Close(ctx)
//
//	// Use directly
//	output := p.ReadQuery(ctx, sfmcp.QueryInput{SQL: "SELECT * FROM prod.public.users LIMIT 10"})
//
//	// Or register as MCP tools
//	sfmcp.RegisterMCPTools(mcpServer, p)
//
// # Exclusions
//
// Exclusion rules are glob triples over {database, schema, table}. A rule
// hides an object when all three segments match (missing segments match
// everything); any one rule hiding an object hides it. Hidden objects
// disappear from listings, and describe_table reports them as not found —
// indistinguishable from objects that do not exist.
package sfmcp
