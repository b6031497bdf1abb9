package mcpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	sdkserver "github.com/mark3labs/mcp-go/server"

	"github.com/gaspardpetit/chatpredict/internal/generator"
	"github.com/gaspardpetit/chatpredict/internal/logx"
)

// ToolName is the name of the single tool exposed over MCP.
const ToolName = "predict"

// NewServer builds an MCP server exposing gen as the predict tool. Each call
// is bounded by timeout when it is positive.
func NewServer(gen generator.Generator, version string, timeout time.Duration) *sdkserver.MCPServer {
	srv := sdkserver.NewMCPServer(
		"chatpredict",
		version,
		sdkserver.WithResourceCapabilities(false, false),
		sdkserver.WithToolCapabilities(false),
		sdkserver.WithPromptCapabilities(false),
	)
	srv.AddTool(
		mcp.NewTool(ToolName,
			mcp.WithDescription("Generate an answer for a chat message"),
			mcp.WithString("message", mcp.Description("Message to answer; omit to get the default reply")),
		),
		PredictTool(gen, timeout),
	)
	return srv
}

// PredictTool adapts gen to an MCP tool handler. A missing or non-string
// message argument is forwarded as absent.
func PredictTool(gen generator.Generator, timeout time.Duration) sdkserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		var message *string
		if v, ok := req.GetArguments()["message"].(string); ok {
			message = &v
		}
		answer, err := gen.Generate(ctx, message)
		if err != nil {
			logx.Log.Warn().Err(err).Msg("mcp predict failed")
			if errors.Is(err, context.DeadlineExceeded) {
				return mcp.NewToolResultError("timeout"), nil
			}
			return mcp.NewToolResultError("generation_failed"), nil
		}
		return mcp.NewToolResultText(answer), nil
	}
}

// NewHandler constructs a Streamable HTTP MCP handler for gen.
func NewHandler(gen generator.Generator, version string, timeout time.Duration) http.Handler {
	return sdkserver.NewStreamableHTTPServer(NewServer(gen, version, timeout))
}
