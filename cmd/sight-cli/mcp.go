package main

import (
	"context"
	"errors"

	"github.com/fpang/sight-assist/internal/assist"
	"github.com/fpang/sight-assist/internal/cli"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve describe, extract, and speak as MCP tools over stdio",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		server := newMCPServer(initEngines(ctx, "mcp"))
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
			log.Fatal().Err(err).Msg("MCP server failed")
		}
	},
}

type imageInput struct {
	Path string `json:"path" jsonschema:"absolute path to a JPG, JPEG or PNG image"`
}

type describeOutput struct {
	Description string `json:"description"`
}

type extractOutput struct {
	Text string `json:"text"`
}

type speakOutput struct {
	Text    string `json:"text"`
	Spoken  bool   `json:"spoken"`
	Warning string `json:"warning,omitempty"`
}

// newMCPServer registers one tool per action. Each call runs on a fresh
// assistant, so concurrent tool calls never share an image.
func newMCPServer(engines *cli.Engines) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "sight-assist", Version: version}, nil)
	tools := &mcpTools{engines: engines}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_scene",
		Description: "Describe an image for a visually impaired user: items and their purpose, an overall description, and safety suggestions.",
	}, tools.describe)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_text",
		Description: "Extract the visible text from an image with OCR. Returns an empty string when the image has no text.",
	}, tools.extract)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "speak_text",
		Description: "Extract the visible text from an image and read it aloud on this machine's speakers.",
	}, tools.speak)

	return server
}

type mcpTools struct {
	engines *cli.Engines
}

func (t *mcpTools) run(ctx context.Context, path string, action assist.Action) (*assist.Result, error) {
	res, err := loadAndTrigger(ctx, t.engines.NewAssistant(), path, action)
	if err != nil {
		return nil, errors.New(assist.Notice(err))
	}
	return res, nil
}

func (t *mcpTools) describe(ctx context.Context, req *mcp.CallToolRequest, in imageInput) (*mcp.CallToolResult, describeOutput, error) {
	res, err := t.run(ctx, in.Path, assist.ActionDescribeScene)
	if err != nil {
		return nil, describeOutput{}, err
	}
	return nil, describeOutput{Description: res.Description}, nil
}

func (t *mcpTools) extract(ctx context.Context, req *mcp.CallToolRequest, in imageInput) (*mcp.CallToolResult, extractOutput, error) {
	res, err := t.run(ctx, in.Path, assist.ActionExtractText)
	if err != nil {
		return nil, extractOutput{}, err
	}
	return nil, extractOutput{Text: res.Text}, nil
}

func (t *mcpTools) speak(ctx context.Context, req *mcp.CallToolRequest, in imageInput) (*mcp.CallToolResult, speakOutput, error) {
	res, err := t.run(ctx, in.Path, assist.ActionSpeakText)
	if err != nil {
		return nil, speakOutput{}, err
	}
	out := speakOutput{Text: res.Text, Spoken: res.Spoken}
	if res.Warning != nil {
		out.Warning = assist.Notice(res.Warning)
	}
	return nil, out, nil
}
