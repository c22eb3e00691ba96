package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fpd-risk-server/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	cfg := config.DefaultLiteConfig()
	cfg.DataDir = t.TempDir()

	server, err := NewServer(cfg, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { server.Close() })

	return server
}

func toolRequest(t *testing.T, args interface{}) *mcp.CallToolRequest {
	t.Helper()

	raw, err := json.Marshal(args)
	require.NoError(t, err)

	return &mcp.CallToolRequest{
		Params: &mcp.CallToolParams{
			Arguments: json.RawMessage(raw),
		},
	}
}

func validParams() AssessRiskParams {
	return AssessRiskParams{
		Gender:        "Female",
		Age:           60,
		Glucose:       5.0,
		GGT:           25.0,
		Waist:         80.0,
		NLR:           1.5,
		Triglycerides: 120.0,
		BMI:           23.0,
		AST:           25.0,
		ALT:           25.0,
		Platelet:      260.0,
	}
}

func TestNewServer(t *testing.T) {
	server := newTestServer(t)

	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.scorer)
	assert.NotNil(t, server.cache)
	assert.NotNil(t, server.store)
	assert.NotNil(t, server.logger)
}

func TestHandleAssessRisk_Success(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleAssessRisk(context.Background(), toolRequest(t, validParams()))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)

	text := result.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "FPD risk assessment")
	assert.Contains(t, text, "probability")

	assessResult, ok := result.Meta["result"].(AssessRiskResult)
	require.True(t, ok)
	assert.NotEmpty(t, assessResult.AssessmentID)
	assert.Greater(t, assessResult.Probability, 0.0)
	assert.Less(t, assessResult.Probability, 1.0)
	assert.Len(t, assessResult.Flags, 7)
}

func TestDecodeArguments(t *testing.T) {
	raw, err := json.Marshal(validParams())
	require.NoError(t, err)

	t.Run("raw message", func(t *testing.T) {
		var params AssessRiskParams
		require.NoError(t, decodeArguments(json.RawMessage(raw), &params))
		assert.Equal(t, validParams(), params)
	})

	t.Run("byte slice", func(t *testing.T) {
		var params AssessRiskParams
		require.NoError(t, decodeArguments(raw, &params))
		assert.Equal(t, validParams(), params)
	})

	t.Run("plain value", func(t *testing.T) {
		var params AssessRiskParams
		require.NoError(t, decodeArguments(map[string]any{"gender": "Male", "age": 70}, &params))
		assert.Equal(t, "Male", params.Gender)
		assert.Equal(t, 70, params.Age)
	})

	t.Run("nil", func(t *testing.T) {
		var params AssessRiskParams
		assert.Error(t, decodeArguments(nil, &params))
	})
}

func TestHandleAssessRisk_PlainValueArguments(t *testing.T) {
	server := newTestServer(t)

	// In-process clients can set Arguments to a marshalable value instead
	// of the raw JSON the stdio transport delivers.
	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParams{Arguments: validParams()},
	}

	result, err := server.handleAssessRisk(context.Background(), req)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)
}

func TestHandleAssessRisk_MissingArguments(t *testing.T) {
	server := newTestServer(t)

	req := &mcp.CallToolRequest{Params: &mcp.CallToolParams{}}

	result, err := server.handleAssessRisk(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleAssessRisk_GenderRequired(t *testing.T) {
	server := newTestServer(t)

	params := validParams()
	params.Gender = ""

	result, err := server.handleAssessRisk(context.Background(), toolRequest(t, params))

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, "gender")
}

func TestHandleAssessRisk_OutOfDomain(t *testing.T) {
	server := newTestServer(t)

	params := validParams()
	params.Age = 300

	result, err := server.handleAssessRisk(context.Background(), toolRequest(t, params))

	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleGenerateReport_RoundTrip(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	assessed, err := server.handleAssessRisk(ctx, toolRequest(t, validParams()))
	require.NoError(t, err)
	require.False(t, assessed.IsError)

	assessResult := assessed.Meta["result"].(AssessRiskResult)

	reported, err := server.handleGenerateReport(ctx, toolRequest(t, GenerateReportParams{
		AssessmentID: assessResult.AssessmentID,
	}))

	require.NoError(t, err)
	require.False(t, reported.IsError)

	body := reported.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, body, "FATTY PANCREAS DISEASE (FPD) RISK ASSESSMENT REPORT")
	assert.Contains(t, body, assessResult.AssessmentID)
}

func TestHandleGenerateReport_MissingID(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleGenerateReport(context.Background(), toolRequest(t, GenerateReportParams{}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, "assessment_id")
}

func TestHandleGenerateReport_UnknownID(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleGenerateReport(context.Background(), toolRequest(t, GenerateReportParams{
		AssessmentID: "no-such-assessment",
	}))

	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, "not found")
}

func TestHandleListRanges(t *testing.T) {
	server := newTestServer(t)

	result, err := server.handleListRanges(context.Background(), toolRequest(t, struct{}{}))

	require.NoError(t, err)
	require.False(t, result.IsError)

	text := result.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "age")
	assert.Contains(t, text, "platelet")
	assert.Contains(t, text, "triglycerides")
}
