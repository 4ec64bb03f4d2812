// Package mcpserver exposes chart inference as Model Context Protocol tools so
// agents can ask whether and how to chart an answer.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kyleking/chart-intent/internal/dataset"
	"github.com/kyleking/chart-intent/internal/intent"
	"github.com/kyleking/chart-intent/internal/logging"
	"github.com/kyleking/chart-intent/internal/storage"
	"github.com/kyleking/chart-intent/internal/types"
)

const (
	serverName    = "chart-intent"
	serverVersion = "1.0.0"
)

// Deps holds what the tools need
type Deps struct {
	Engine *intent.Engine
	// Store, when set, resolves imported table names and records inferences
	Store storage.Repository
	// MaxRows caps rows read from a dataset; zero reads all of them
	MaxRows int
	Logger  *logging.Logger
}

// Server is the MCP server
type Server struct {
	mcp     *server.MCPServer
	engine  *intent.Engine
	store   storage.Repository
	maxRows int
	logger  *logging.Logger
}

// New creates a server with the inference tools registered
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	s := &Server{
		engine:  deps.Engine,
		store:   deps.Store,
		maxRows: deps.MaxRows,
		logger:  logger,
	}

	s.mcp = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)

	s.registerTools()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout
func (s *Server) ServeStdio() error {
	s.logger.Info("starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("infer_chart",
		mcp.WithDescription("Decide whether a question about a dataset should be answered with a chart, and which chart type and columns to use."),
		mcp.WithString("file", mcp.Description("Path to a CSV/TSV file, or the name of an imported table"), mcp.Required()),
		mcp.WithString("question", mcp.Description("The user's question about the dataset"), mcp.Required()),
	), s.handleInferChart)

	s.mcp.AddTool(mcp.NewTool("profile_dataset",
		mcp.WithDescription("Classify every column of a dataset as numeric, categorical or temporal."),
		mcp.WithString("file", mcp.Description("Path to a CSV/TSV file, or the name of an imported table"), mcp.Required()),
	), s.handleProfileDataset)

	s.mcp.AddTool(mcp.NewTool("recommend_charts",
		mcp.WithDescription("Suggest charts that suit a dataset's columns without a question."),
		mcp.WithString("file", mcp.Description("Path to a CSV/TSV file, or the name of an imported table"), mcp.Required()),
	), s.handleRecommendCharts)
}

type inferResponse struct {
	ID          string           `json:"id"`
	Response    string           `json:"response"`
	Chart       *types.ChartSpec `json:"chart"`
	Source      intent.Source    `json:"source"`
	Candidate   types.ChartType  `json:"candidate"`
	ProviderErr string           `json:"provider_error,omitempty"`
}

func (s *Server) handleInferChart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	file, _ := args["file"].(string)
	question, _ := args["question"].(string)

	if question == "" {
		return errorResult("question is required"), nil
	}

	ds, err := s.load(ctx, file)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	res := s.engine.Infer(ctx, intent.Query{Question: question}, ds)

	if s.store != nil {
		if err := s.store.RecordInference(ctx, storage.RecordFromResult(res, ds.Name())); err != nil {
			s.logger.WithError(err).Warn("failed to record inference")
		}
	}

	return jsonResult(inferResponse{
		ID:          res.ID,
		Response:    res.Response(),
		Chart:       res.Spec,
		Source:      res.Source,
		Candidate:   res.Candidate,
		ProviderErr: res.ProviderError,
	})
}

type profileResponse struct {
	Name    string              `json:"name"`
	Summary dataset.Summary     `json:"summary"`
	Schema  types.DatasetSchema `json:"schema"`
}

func (s *Server) handleProfileDataset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, _ := req.GetArguments()["file"].(string)

	ds, err := s.load(ctx, file)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	return jsonResult(profileResponse{
		Name:    ds.Name(),
		Summary: dataset.Summarize(ds),
		Schema:  s.engine.Profile(ds),
	})
}

func (s *Server) handleRecommendCharts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, _ := req.GetArguments()["file"].(string)

	ds, err := s.load(ctx, file)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	recs := intent.Recommend(s.engine.Profile(ds))
	if recs == nil {
		recs = []types.ChartSpec{}
	}

	return jsonResult(recs)
}

func (s *Server) load(ctx context.Context, ref string) (*dataset.Frame, error) {
	return storage.LoadDataset(ctx, s.store, ref, s.maxRows)
}

// textResult creates a simple text tool result
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true

	return res
}

// jsonResult serializes v to JSON and wraps it in a text tool result
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	return textResult(string(data)), nil
}
