package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	sfmcp "github.com/quarrydata/snowflake-mcp"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func runServe() error {
	ctx := context.Background()

	// 1. Load ServerConfig
	serverConfig, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverConfig.Server.Port <= 0 {
		panic("gosfmcp: server.port must be > 0")
	}

	// 2. Resolve connection DSN
	dsn := os.Getenv("GOSFMCP_SNOWFLAKE_DSN")
	if dsn == "" {
		password := os.Getenv("SNOWFLAKE_PASSWORD")
		if password == "" {
			password = promptPassword(fmt.Sprintf("Password for %s: ", serverConfig.Connection.User))
		}
		dsn, err = sfmcp.BuildDSN(serverConfig.Connection, password)
		if err != nil {
			return fmt.Errorf("failed to build Snowflake DSN: %w", err)
		}
	}

	// 3. Setup logger
	logger := setupLogger(serverConfig.Logging)

	// 4. Create SnowflakeMcp instance. No connection test here — the
	// session is established lazily by the first tool call, so the server
	// comes up even while the warehouse is suspended or unreachable.
	sfMcp := sfmcp.New(dsn, serverConfig.Config, logger)
	defer sfMcp.Close(ctx)

	// 5. Create MCP server with initialize lifecycle logging
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		clientName := req.Params.ClientInfo.Name
		clientVersion := req.Params.ClientInfo.Version
		logger.Info().
			Str("client_name", clientName).
			Str("client_version", clientVersion).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("gosfmcp", version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithHooks(hooks),
	)

	sfmcp.RegisterMCPTools(mcpServer, sfMcp)

	// 6. Start HTTP server with optional health check
	addr := fmt.Sprintf(":%d", serverConfig.Server.Port)
	mux := http.NewServeMux()

	// Health check endpoint (process liveness only, not Snowflake
	// connectivity — the gate is lazy and a cold gate is healthy)
	if serverConfig.Server.HealthCheckEnabled {
		if serverConfig.Server.HealthCheckPath == "" {
			panic("gosfmcp: health_check_path must be set when health_check_enabled is true")
		}
		mux.HandleFunc(serverConfig.Server.HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status":"ok","session":"%s"}`, sfMcp.Phase())
		})
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Create StreamableHTTPServer with custom http.Server
	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)

	// Manually register the MCP handler — Start() does NOT register
	// when a custom *http.Server is provided via WithStreamableHTTPServer.
	mux.Handle("/mcp", streamableServer)

	// Optional warm-up: load the default database's dictionary in the
	// background so the first agent call does not pay for the connection
	// and warehouse resume. Failures are logged, not fatal — the gate
	// retries on the next call.
	if serverConfig.Server.Prefetch {
		go func() {
			if serverConfig.Connection.Database == "" {
				logger.Warn().Msg("prefetch enabled but connection.database is not set, skipping")
				return
			}
			dict, err := sfMcp.DataDictionary(ctx, sfmcp.DataDictionaryInput{
				Database: serverConfig.Connection.Database,
			})
			if err != nil {
				logger.Error().Err(err).Msg("error prefetching table descriptions")
				return
			}
			logger.Info().
				Str("database", dict.Database).
				Int("schema_count", len(dict.Schemas)).
				Msg("prefetched data dictionary")
		}()
	}

	logger.Info().Int("port", serverConfig.Server.Port).Msg("starting gosfmcp server")
	return streamableServer.Start(addr)
}

func loadServerConfig() (*sfmcp.ServerConfig, error) {
	configPath := os.Getenv("GOSFMCP_CONFIG_PATH")
	if configPath == "" {
		configPath = ".gosfmcp/config.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config, err := sfmcp.ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	return config, nil
}

func setupLogger(config sfmcp.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if config.Output == "stdout" {
		output = os.Stdout
	} else if config.Output != "" && config.Output != "stderr" {
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return ""
	}
	return string(password)
}
