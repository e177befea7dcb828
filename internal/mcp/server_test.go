package mcp

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa-screening-server/internal/cache"
	"github.com/osa-screening-server/internal/config"
	"github.com/osa-screening-server/internal/domain"
	"github.com/osa-screening-server/internal/service"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := newTestLogger()
	server, err := NewServer(domain.MCPConfig{
		ServerName:    "osa-screening-server",
		ServerVersion: "test",
	}, 3, service.NewEvaluationService(logger, nil, nil), logger)
	require.NoError(t, err)
	return server
}

func highRiskSurvey() SurveyParams {
	sleep := 5.5
	return SurveyParams{
		Demographics: domain.Demographics{
			Age: 55, Sex: domain.MALE, HeightCm: 175, WeightKg: 110, NeckCircumferenceCm: 43,
		},
		MedicalHistory: domain.MedicalHistory{Hypertension: true, Diabetes: true, Smokes: true, Alcohol: true},
		ESSResponses:   []int{3, 3, 3, 3, 3, 3, 3, 3},
		BerlinResponses: BerlinAnswers{
			Category1:       map[string]bool{"item2": true, "item3": true, "item4": true, "item5": true, "item6": true},
			Category2:       map[string]bool{"item7": true, "item8": true, "item9": true},
			Category3Sleepy: true,
		},
		StopBangFactors: domain.StopBangFactors{Snoring: true, Tired: true, ObservedApnea: true, Hypertension: true},
		ActivitySample:  &domain.ActivitySample{DailySteps: 1200, WeeklySleepHours: &sleep},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

// connectClient runs the server over an in-memory transport and returns a
// connected client session
func connectClient(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	return session
}

func decodeStructured(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	data, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func TestNewServer(t *testing.T) {
	server := newTestServer(t)

	assert.NotNil(t, server.MCPServer())
	assert.Equal(t, TransportStdio, server.transport)
	assert.Equal(t, 3, server.displayLimit)
}

func TestNewServer_Defaults(t *testing.T) {
	logger := newTestLogger()
	server, err := NewServer(domain.MCPConfig{}, 0, service.NewEvaluationService(logger, nil, nil), logger)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultDisplayLimit, server.displayLimit)
}

func TestNewServer_UnsupportedTransport(t *testing.T) {
	logger := newTestLogger()
	_, err := NewServer(domain.MCPConfig{TransportType: "websocket"}, 0, service.NewEvaluationService(logger, nil, nil), logger)
	assert.Error(t, err)
}

func TestHandleEvaluate(t *testing.T) {
	server := newTestServer(t)

	result, out, err := server.handleEvaluate(context.Background(), nil, EvaluateParams{Survey: highRiskSurvey()})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Risk tier: High Risk")

	evaluated, ok := out.(EvaluateResult)
	require.True(t, ok)
	assert.Len(t, evaluated.Recommendations, 3)
	assert.Greater(t, evaluated.TotalRecommendations, 3)
	assert.Equal(t, "high_risk_evaluation", evaluated.Recommendations[0].RuleID)
}

func TestHandleEvaluate_Limit(t *testing.T) {
	server := newTestServer(t)

	_, out, err := server.handleEvaluate(context.Background(), nil, EvaluateParams{Survey: highRiskSurvey(), Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out.(EvaluateResult).Recommendations, 1)

	result, out, err := server.handleEvaluate(context.Background(), nil, EvaluateParams{Survey: highRiskSurvey(), Limit: -1})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Nil(t, out)
}

func TestHandleEvaluate_InvalidSurvey(t *testing.T) {
	server := newTestServer(t)
	survey := highRiskSurvey()
	survey.Demographics.Sex = "other"
	survey.ESSResponses = []int{1, 2}

	result, out, err := server.handleEvaluate(context.Background(), nil, EvaluateParams{Survey: survey})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Nil(t, out)

	text := resultText(t, result)
	assert.Contains(t, text, "demographics.sex")
	assert.Contains(t, text, "essResponses")
}

func TestHandleComputeBMI(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name      string
		params    BMIParams
		isError   bool
		available bool
		category  string
	}{
		{"Normal", BMIParams{HeightCm: 180, WeightKg: 70}, false, true, "Normal weight"},
		{"Obese", BMIParams{HeightCm: 175, WeightKg: 110}, false, true, "Obese (class II)"},
		{"Missing height", BMIParams{WeightKg: 70}, false, false, ""},
		{"Negative weight", BMIParams{HeightCm: 170, WeightKg: -1}, true, false, ""},
		{"Negative height", BMIParams{HeightCm: -170, WeightKg: 70}, true, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, out, err := server.handleComputeBMI(context.Background(), nil, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			if tt.isError {
				return
			}
			bmi := out.(BMIResult)
			assert.Equal(t, tt.available, bmi.Available)
			assert.Equal(t, tt.category, bmi.Category)
		})
	}
}

func TestHandleScoreESS(t *testing.T) {
	server := newTestServer(t)

	result, out, err := server.handleScoreESS(context.Background(), nil, ESSParams{Responses: []int{2, 2, 2, 2, 2, 1, 0, 0}})
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, 11, out.(domain.ScoreResult).Score)
	assert.Equal(t, domain.ESSMildExcessive, out.(domain.ScoreResult).Category)

	result, _, err = server.handleScoreESS(context.Background(), nil, ESSParams{Responses: []int{4, 0, 0, 0, 0, 0, 0, 0}})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "essResponses[0]")
}

func TestHandleScoreBerlin(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name     string
		params   BerlinParams
		isError  bool
		score    int
		category string
	}{
		{"Snoring and BMI", BerlinParams{
			Responses: BerlinAnswers{Category1: map[string]bool{"item2": true, "item4": true}},
			HeightCm:  175,
			WeightKg:  110,
		}, false, 2, "High Risk"},
		{"Unknown items ignored", BerlinParams{
			Responses: BerlinAnswers{
				Category1: map[string]bool{"item2": true, "item3": true, "item7": true, "snores_loudly": true},
				Category2: map[string]bool{"item7": true, "item2": true},
			},
		}, false, 1, "Low Risk"},
		{"Negative weight", BerlinParams{
			Responses: BerlinAnswers{Category3Sleepy: true},
			HeightCm:  175,
			WeightKg:  -110,
		}, true, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, out, err := server.handleScoreBerlin(context.Background(), nil, tt.params)
			require.NoError(t, err)
			require.Equal(t, tt.isError, result.IsError)
			if tt.isError {
				assert.Contains(t, resultText(t, result), "weightKg")
				return
			}
			assert.Equal(t, tt.score, out.(domain.ScoreResult).Score)
			assert.Equal(t, tt.category, out.(domain.ScoreResult).Category)
		})
	}
}

func TestHandleScoreStopBang(t *testing.T) {
	server := newTestServer(t)

	params := StopBangParams{
		Factors:      domain.StopBangFactors{Snoring: true},
		Demographics: domain.Demographics{Age: 40, Sex: domain.FEMALE, NeckCircumferenceCm: 35},
	}
	result, out, err := server.handleScoreStopBang(context.Background(), nil, params)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, 1, out.(domain.StopBangResult).Score)

	tests := []struct {
		name   string
		modify func(d *domain.Demographics)
		field  string
	}{
		{"Missing sex", func(d *domain.Demographics) { d.Sex = "" }, "demographics.sex"},
		{"Negative age", func(d *domain.Demographics) { d.Age = -40 }, "demographics.age"},
		{"Negative height", func(d *domain.Demographics) { d.HeightCm = -160 }, "demographics.heightCm"},
		{"Negative neck", func(d *domain.Demographics) { d.NeckCircumferenceCm = -35 }, "demographics.neckCircumferenceCm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params
			tt.modify(&p.Demographics)
			result, out, err := server.handleScoreStopBang(context.Background(), nil, p)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Nil(t, out)
			assert.Contains(t, resultText(t, result), tt.field)
		})
	}
}

func TestHandleListRules(t *testing.T) {
	server := newTestServer(t)

	result, out, err := server.handleListRules(context.Background(), nil, ListRulesParams{})
	require.NoError(t, err)
	require.False(t, result.IsError)

	rules := out.(ListRulesResult)
	assert.Equal(t, len(rules.Rules), rules.Count)
	assert.NotZero(t, rules.Count)
}

func TestHandleExplainRule(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	t.Run("Fired", func(t *testing.T) {
		result, out, err := server.handleExplainRule(ctx, nil, ExplainRuleParams{RuleID: "high_risk_evaluation", Survey: highRiskSurvey()})
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.True(t, out.(*service.RuleOutcome).Matched)
		assert.Contains(t, resultText(t, result), "fired")
	})

	t.Run("Missing dependency", func(t *testing.T) {
		survey := highRiskSurvey()
		survey.ActivitySample = nil
		result, out, err := server.handleExplainRule(ctx, nil, ExplainRuleParams{RuleID: "activity_light", Survey: survey})
		require.NoError(t, err)
		require.False(t, result.IsError)
		assert.False(t, out.(*service.RuleOutcome).Matched)
		assert.Contains(t, resultText(t, result), "skipped")
	})

	t.Run("Unknown rule", func(t *testing.T) {
		result, _, err := server.handleExplainRule(ctx, nil, ExplainRuleParams{RuleID: "nope", Survey: highRiskSurvey()})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "Unknown rule")
	})

	t.Run("Missing rule id", func(t *testing.T) {
		result, _, err := server.handleExplainRule(ctx, nil, ExplainRuleParams{Survey: highRiskSurvey()})
		require.NoError(t, err)
		assert.True(t, result.IsError)
	})
}

func TestNewLiteServer(t *testing.T) {
	cfg := config.DefaultLiteConfig()

	server, err := NewLiteServer(cfg, WithLogger(newTestLogger()))
	require.NoError(t, err)
	defer server.Close()

	assert.NotNil(t, server.MCPServer())
	_, ok := server.GetCache().(*cache.MemoryCache)
	assert.True(t, ok)
	assert.Equal(t, cfg.DisplayLimit, server.displayLimit)
}

func TestNewLiteServer_CacheOptions(t *testing.T) {
	t.Run("Disabled in config", func(t *testing.T) {
		cfg := config.DefaultLiteConfig()
		cfg.CacheEnabled = false
		server, err := NewLiteServer(cfg, WithLogger(newTestLogger()))
		require.NoError(t, err)
		assert.Nil(t, server.GetCache())
	})

	t.Run("Explicit nil cache", func(t *testing.T) {
		server, err := NewLiteServer(config.DefaultLiteConfig(), WithLogger(newTestLogger()), WithResultCache(nil))
		require.NoError(t, err)
		assert.Nil(t, server.GetCache())
		assert.NoError(t, server.Close())
	})

	t.Run("Cache sized from config", func(t *testing.T) {
		cfg := config.DefaultLiteConfig()
		cfg.CacheMaxItems = 1
		server, err := NewLiteServer(cfg, WithLogger(newTestLogger()))
		require.NoError(t, err)
		defer server.Close()

		memCache, ok := server.GetCache().(*cache.MemoryCache)
		require.True(t, ok)
		ctx := context.Background()
		require.NoError(t, memCache.Set(ctx, "a", &domain.SurveyResult{}))
		require.NoError(t, memCache.Set(ctx, "b", &domain.SurveyResult{}))
		assert.Equal(t, 1, memCache.Stats().Items)
	})

	t.Run("Invalid cache size", func(t *testing.T) {
		cfg := config.DefaultLiteConfig()
		cfg.CacheMaxItems = 0
		_, err := NewLiteServer(cfg, WithLogger(newTestLogger()))
		assert.Error(t, err)
	})
}

func TestToolsOverTransport(t *testing.T) {
	session := connectClient(t, newTestServer(t))
	ctx := context.Background()

	t.Run("Berlin ignores unknown items", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: toolScoreBerlin,
			Arguments: map[string]any{
				"responses": map[string]any{
					"category1":       map[string]any{"item2": true, "item3": true, "snores_loudly": true},
					"category2":       map[string]any{"item7": true, "item1": true},
					"category3Sleepy": true,
				},
			},
		})
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))

		var score domain.ScoreResult
		decodeStructured(t, result, &score)
		assert.Equal(t, 2, score.Score)
		assert.Equal(t, "High Risk", score.Category)
	})

	t.Run("Evaluate survey with unknown Berlin item", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: toolEvaluate,
			Arguments: map[string]any{
				"limit": 2,
				"survey": map[string]any{
					"demographics":   map[string]any{"age": 55, "sex": "male", "heightCm": 175, "weightKg": 110, "neckCircumferenceCm": 43},
					"medicalHistory": map[string]any{"hypertension": true},
					"essResponses":   []int{3, 3, 3, 3, 3, 3, 3, 3},
					"berlinResponses": map[string]any{
						"category1":       map[string]any{"item2": true, "item3": true, "item10": true},
						"category3Sleepy": true,
					},
					"stopbangFactors": map[string]any{"snoring": true, "tired": true, "observedApnea": true},
				},
			},
		})
		require.NoError(t, err)
		require.False(t, result.IsError, resultText(t, result))
		assert.Contains(t, resultText(t, result), "Risk tier: High Risk")

		var evaluated EvaluateResult
		decodeStructured(t, result, &evaluated)
		require.NotNil(t, evaluated.SurveyResult)
		assert.Equal(t, domain.HIGH_RISK, evaluated.RiskTier)
		assert.Equal(t, "High Risk", evaluated.Scores.Berlin.Category)
		assert.Len(t, evaluated.Recommendations, 2)
		assert.Greater(t, evaluated.TotalRecommendations, 2)
	})

	t.Run("Negative measurement is a tool error", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      toolComputeBMI,
			Arguments: map[string]any{"height_cm": -170, "weight_kg": 70},
		})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "heightCm")
	})
}

func TestLiteServer_CloseLogger(t *testing.T) {
	t.Run("Built logger is owned", func(t *testing.T) {
		server, err := NewLiteServer(config.DefaultLiteConfig())
		require.NoError(t, err)
		assert.True(t, server.ownsLogger)
		assert.NoError(t, server.Close())
	})

	t.Run("Injected logger is left open", func(t *testing.T) {
		server, err := NewLiteServer(config.DefaultLiteConfig(), WithLogger(newTestLogger()))
		require.NoError(t, err)
		assert.False(t, server.ownsLogger)
		assert.NoError(t, server.Close())
	})
}
