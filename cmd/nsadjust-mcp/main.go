package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mamaar/nsadjust/internal/cli"
	internalmcp "github.com/mamaar/nsadjust/internal/mcp"
)

func newServer(state *internalmcp.MCPServer) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "nsadjust", Version: cli.Version}, nil)
	internalmcp.RegisterAllTools(server, state)
	return server
}

func main() {
	var (
		workspaceFlag = flag.String("workspace", "", "Workspace to load on startup (optional, see load_workspace)")
		configFlag    = flag.String("config", "", "Config file for the startup workspace")
		portFlag      = flag.Int("port", 0, "TCP port to listen on (0 for stdio)")
		debugFlag     = flag.Bool("debug", false, "Enable debug logging")
		versionFlag   = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("nsadjust-mcp version %s\n", cli.Version)
		fmt.Println("Model Context Protocol server for C# namespace adjustment")
		os.Exit(0)
	}

	// stdout belongs to the stdio transport.
	logger := cli.NewLogger(*debugFlag)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	state := internalmcp.NewMCPServer(logger)
	defer state.Close()

	if *workspaceFlag != "" {
		if _, err := state.LoadWorkspace(ctx, *workspaceFlag, *configFlag); err != nil {
			logger.Error("failed to load workspace", "path", *workspaceFlag, "err", err)
			os.Exit(1)
		}
	}

	server := newServer(state)

	if *portFlag == 0 {
		if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
		return
	}

	handler := mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server { return server }, nil)
	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", *portFlag), Handler: handler}
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()
	logger.Info("starting HTTP server", "port", *portFlag)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("HTTP server failed", "err", err)
		os.Exit(1)
	}
}
