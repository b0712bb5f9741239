package cmd

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/fkloosterman/relations-obsidian-sub000/internal/engine"
)

const serverVersion = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query surface as MCP tools over stdio",
	Long: `serve exposes the relationship graph to MCP clients (editors,
agents) as a set of read-only tools. The graph is built once at startup;
pair with an external watcher if the vault changes underneath.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		return server.ServeStdio(newMCPServer(a))
	},
}

func newMCPServer(a *app) *server.MCPServer {
	s := server.NewMCPServer("relations-explorer", serverVersion,
		server.WithToolCapabilities(false),
	)

	withNote := func(desc string) []mcp.ToolOption {
		return []mcp.ToolOption{
			mcp.WithDescription(desc),
			mcp.WithString("note", mcp.Required(),
				mcp.Description("Vault-relative note path or note name")),
		}
	}

	s.AddTool(
		mcp.NewTool("get_ancestors", append(withNote("Generations of ancestors of a note, nearest first."),
			mcp.WithNumber("depth", mcp.Description("Maximum generations (0 = configured default)")))...),
		a.generationsHandler(func(e *engine.Engine, path string, depth int) any {
			return generationsMaps(e.Ancestors(path, depth))
		}),
	)
	s.AddTool(
		mcp.NewTool("get_descendants", append(withNote("Generations of descendants of a note, nearest first."),
			mcp.WithNumber("depth", mcp.Description("Maximum generations (0 = configured default)")))...),
		a.generationsHandler(func(e *engine.Engine, path string, depth int) any {
			return generationsMaps(e.Descendants(path, depth))
		}),
	)
	s.AddTool(
		mcp.NewTool("get_siblings", withNote("Notes sharing at least one parent with a note.")...),
		a.generationsHandler(func(e *engine.Engine, path string, _ int) any {
			return notesMaps(e.Siblings(path, false))
		}),
	)
	s.AddTool(
		mcp.NewTool("get_cousins", append(withNote("Cousins of a note at the given degree."),
			mcp.WithNumber("degree", mcp.Description("Cousin degree, 1 = first cousins")))...),
		a.cousinsHandler(),
	)
	s.AddTool(
		mcp.NewTool("detect_cycle", withNote("The minimal cycle through a note, if any.")...),
		a.generationsHandler(func(e *engine.Engine, path string, _ int) any {
			if c := e.DetectCycle(path); c != nil {
				return cycleMap(c)
			}
			return nil
		}),
	)
	s.AddTool(
		mcp.NewTool("validate_graph",
			mcp.WithDescription("Whole-graph diagnostics: cycles, unresolved links, orphans, broken references, statistics.")),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out := make([]any, 0, len(a.engines))
			for _, field := range a.cfg.Fields() {
				out = append(out, diagnosticsMap(field, a.engines[field].ValidateGraph()))
			}
			return mcp.NewToolResultText(oj.JSON(out, 2)), nil
		},
	)
	return s
}

// generationsHandler adapts a path+depth query into an MCP tool handler.
func (a *app) generationsHandler(run func(e *engine.Engine, path string, depth int) any) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arg, err := req.RequireString("note")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path, err := a.resolveArg(arg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		depth := req.GetInt("depth", 0)
		result := run(a.primary, path, depth)
		if result == nil {
			return mcp.NewToolResultText("null"), nil
		}
		return mcp.NewToolResultText(oj.JSON(result, 2)), nil
	}
}

func (a *app) cousinsHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		arg, err := req.RequireString("note")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path, err := a.resolveArg(arg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		degree := req.GetInt("degree", 1)
		if degree < 1 {
			return mcp.NewToolResultError(fmt.Sprintf("degree must be >= 1, got %d", degree)), nil
		}
		return mcp.NewToolResultText(oj.JSON(notesMaps(a.primary.Cousins(path, degree)), 2)), nil
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
