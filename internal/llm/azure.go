package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"earnings-reversal/internal/logger"
	"earnings-reversal/internal/types"
)

const systemPrompt = `You are an expert financial analyst specializing in earnings call transcript analysis. Your task is to analyze a company's earnings call transcript and extract structured semantic features.

You will receive:
1. Company symbol and earnings date
2. Actual and estimated EPS/Revenue figures
3. Day 0 stock price return (percentage)
4. The full earnings call transcript (including prepared remarks and Q&A)

You must output a JSON object with the following structure:

{
  "numbers": {
    "eps_strength": <int -2 to +2>,
    "revenue_strength": <int -2 to +2>,
    "overall_numbers_strength": <int -2 to +2>
  },
  "tone": {
    "overall_tone": <int -2 to +2>,
    "prepared_tone": <int -2 to +2>,
    "qa_tone": <int -2 to +2>
  },
  "narrative": {
    "neg_temporary_ratio": <float 0-1>,
    "pos_temporary_ratio": <float 0-1>,
    "key_temporary_factors": [<list of strings>],
    "key_structural_factors": [<list of strings>]
  },
  "skepticism": {
    "skeptical_question_ratio": <float 0-1>,
    "followup_ratio": <float 0-1>,
    "topic_concentration": <float 0-1>
  },
  "risk_focus_score": <int 0-100>,
  "one_sentence_summary": "<string>"
}

Field definitions:

NUMBERS (based on EPS/Revenue vs estimates):
- eps_strength: -2 (significant miss), -1 (slight miss), 0 (in-line), +1 (slight beat), +2 (significant beat)
- revenue_strength: Same scale as eps_strength
- overall_numbers_strength: Holistic assessment combining EPS, revenue, and guidance

TONE (based on language sentiment):
- overall_tone: -2 (very negative/defensive), -1 (cautious), 0 (neutral), +1 (confident), +2 (very optimistic)
- prepared_tone: Tone in the prepared remarks/presentation section only
- qa_tone: Tone during analyst Q&A, considering management responses

NARRATIVE:
- neg_temporary_ratio: Of all negative factors mentioned, what fraction are positioned as temporary/one-time (0-1)
- pos_temporary_ratio: Of all positive factors mentioned, what fraction are positioned as temporary/one-time (0-1)
- key_temporary_factors: List 2-4 main temporary factors mentioned (headwinds or tailwinds)
- key_structural_factors: List 2-4 main structural/ongoing factors mentioned

SKEPTICISM (analyst behavior in Q&A):
- skeptical_question_ratio: Fraction of analyst questions that challenge, probe, or express doubt (0-1)
- followup_ratio: Fraction of analysts who asked follow-up questions indicating unsatisfactory first answers (0-1)
- topic_concentration: How concentrated questions are on a single risk topic (0=diverse, 1=single topic dominates)

RISK_FOCUS_SCORE (0-100):
- Overall intensity of risk/uncertainty discussion relative to typical earnings calls
- 0-20: Very low risk focus, mostly positive
- 21-40: Normal level of risk acknowledgment
- 41-60: Elevated risk discussion
- 61-80: High risk focus, multiple concerns raised
- 81-100: Extremely high uncertainty, crisis-level concerns

ONE_SENTENCE_SUMMARY:
- A single sentence capturing the key takeaway from this earnings call

Important guidelines:
1. Be objective and base assessments on actual content, not stock price reaction
2. For tone analysis, focus on word choice, hedging language, and certainty of statements
3. Distinguish between management's spin and substantive information
4. Consider both what is said and what is notably absent/avoided
5. Output ONLY valid JSON, no additional text or explanation`

// AzureConfig carries the connection settings for one Azure OpenAI
// deployment.
type AzureConfig struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	Temperature float32
	MaxTokens   int
	Concurrency int
	MaxChars    int
}

// AzureExtractor extracts semantic features via an Azure OpenAI chat
// deployment. A semaphore caps in-flight requests; the hosted deployment
// enforces a requests-per-minute quota.
type AzureExtractor struct {
	cfg        AzureConfig
	httpClient *http.Client
	sem        chan struct{}
}

// NewAzureExtractor validates the config and builds the extractor.
func NewAzureExtractor(cfg AzureConfig) (*AzureExtractor, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("azure openai endpoint missing")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("azure openai api key missing")
	}
	if cfg.Deployment == "" {
		return nil, errors.New("azure openai deployment missing")
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-02-15-preview"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 48000
	}
	return &AzureExtractor{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		sem:        make(chan struct{}, cfg.Concurrency),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format"`
	Temperature    float32        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract runs one transcript through the deployment and returns the
// clamped feature record.
func (e *AzureExtractor) Extract(ctx context.Context, req types.ExtractRequest) (types.SemanticFeatures, error) {
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return types.SemanticFeatures{}, ctx.Err()
	}

	userMsg := buildUserMessage(req, e.cfg.MaxChars)

	body, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMsg},
		},
		ResponseFormat: map[string]any{"type": "json_object"},
		Temperature:    e.cfg.Temperature,
		MaxTokens:      e.cfg.MaxTokens,
	})
	if err != nil {
		return types.SemanticFeatures{}, fmt.Errorf("marshal chat request: %w", err)
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		strings.TrimRight(e.cfg.Endpoint, "/"), e.cfg.Deployment, e.cfg.APIVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.SemanticFeatures{}, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("api-key", e.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	logger.Debug(ctx, "Sending extraction request",
		"symbol", req.Symbol,
		"earning_date", req.EarningDate,
		"transcript_chars", len(req.Transcript),
	)

	start := time.Now()
	resp, err := e.httpClient.Do(httpReq)
	latency := time.Since(start)
	if err != nil {
		return types.SemanticFeatures{}, fmt.Errorf("azure openai request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.SemanticFeatures{}, fmt.Errorf("read azure openai response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return types.SemanticFeatures{}, fmt.Errorf("azure openai http %d: %s", resp.StatusCode, string(respBytes))
	}

	var chat chatResponse
	if err := json.Unmarshal(respBytes, &chat); err != nil {
		return types.SemanticFeatures{}, fmt.Errorf("parse azure openai response: %w", err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return types.SemanticFeatures{}, errors.New("empty response from azure openai")
	}

	features, err := ParseFeatures(chat.Choices[0].Message.Content)
	if err != nil {
		return types.SemanticFeatures{}, err
	}

	logger.Debug(ctx, "Extraction completed",
		"symbol", req.Symbol,
		"earning_date", req.EarningDate,
		"risk_focus", features.RiskFocusScore,
		"latency_ms", latency.Milliseconds(),
	)
	return features, nil
}

func buildUserMessage(req types.ExtractRequest, maxChars int) string {
	transcript := req.Transcript
	if len(transcript) > maxChars {
		// Keep the head and tail so the Q&A survives truncation
		keepStart := int(float64(maxChars) * 0.75)
		keepEnd := int(float64(maxChars) * 0.15)
		transcript = transcript[:keepStart] +
			"\n\n[... TRANSCRIPT TRUNCATED FOR LENGTH ...]\n\n" +
			transcript[len(transcript)-keepEnd:]
	}

	fmtOpt := func(v *float64, format string) string {
		if v == nil {
			return "N/A"
		}
		return fmt.Sprintf(format, *v)
	}

	return fmt.Sprintf(`EARNINGS CALL ANALYSIS REQUEST

Symbol: %s
Earnings Date: %s
Quarter: Q%d %d

HEADLINE NUMBERS:
- EPS Actual: %s
- EPS Estimated: %s
- Revenue Actual: %s
- Revenue Estimated: %s

DAY 0 STOCK PRICE REACTION: %+.2f%%

--- FULL TRANSCRIPT ---

%s

--- END TRANSCRIPT ---

Please analyze this transcript and provide the semantic features JSON.`,
		req.Symbol,
		req.EarningDate,
		req.Quarter, req.Year,
		fmtOpt(req.EPS, "%.4f"),
		fmtOpt(req.EPSEstimated, "%.4f"),
		fmtOpt(req.Revenue, "$%.0f"),
		fmtOpt(req.RevenueEstimated, "$%.0f"),
		req.Day0Return*100,
		transcript,
	)
}

// ParseFeatures decodes a model response into SemanticFeatures, tolerating
// surrounding text, and clamps every field into its documented range.
func ParseFeatures(content string) (types.SemanticFeatures, error) {
	t := strings.TrimSpace(content)
	if !strings.HasPrefix(t, "{") {
		start := strings.Index(t, "{")
		end := strings.LastIndex(t, "}")
		if start < 0 || end <= start {
			return types.SemanticFeatures{}, fmt.Errorf("no JSON object in model response")
		}
		t = t[start : end+1]
	}

	var features types.SemanticFeatures
	if err := json.Unmarshal([]byte(t), &features); err != nil {
		return types.SemanticFeatures{}, fmt.Errorf("parse feature JSON: %w", err)
	}
	clampFeatures(&features)
	return features, nil
}

func clampFeatures(f *types.SemanticFeatures) {
	f.Numbers.EPSStrength = clampInt(f.Numbers.EPSStrength, -2, 2)
	f.Numbers.RevenueStrength = clampInt(f.Numbers.RevenueStrength, -2, 2)
	f.Numbers.OverallNumbersStrength = clampInt(f.Numbers.OverallNumbersStrength, -2, 2)
	f.Tone.OverallTone = clampInt(f.Tone.OverallTone, -2, 2)
	f.Tone.PreparedTone = clampInt(f.Tone.PreparedTone, -2, 2)
	f.Tone.QATone = clampInt(f.Tone.QATone, -2, 2)
	f.Narrative.NegTemporaryRatio = clampFloat(f.Narrative.NegTemporaryRatio, 0, 1)
	f.Narrative.PosTemporaryRatio = clampFloat(f.Narrative.PosTemporaryRatio, 0, 1)
	f.Skepticism.SkepticalQuestionRatio = clampFloat(f.Skepticism.SkepticalQuestionRatio, 0, 1)
	f.Skepticism.FollowupRatio = clampFloat(f.Skepticism.FollowupRatio, 0, 1)
	f.Skepticism.TopicConcentration = clampFloat(f.Skepticism.TopicConcentration, 0, 1)
	f.RiskFocusScore = clampInt(f.RiskFocusScore, 0, 100)
	if f.OneSentenceSummary == "" {
		f.OneSentenceSummary = "No summary available."
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
