package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/generative-ai-go/genai"
	"github.com/lac-hong-legacy/guessword_api/model"
	"github.com/lac-hong-legacy/guessword_api/shared"
	"github.com/openai/openai-go"
	openaiOption "github.com/openai/openai-go/option"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// Oracle answers the player's questions about the hidden word. Any error
// means the question could not be answered now.
type Oracle interface {
	Reply(ctx context.Context, systemPrompt string, transcript []model.ChatMessage) (string, error)
}

type chatProvider interface {
	complete(ctx context.Context, systemPrompt string, transcript []model.ChatMessage) (string, error)
	close() error
}

// OracleService routes questions to an OpenAI-compatible endpoint (Ollama by
// default) or to Gemini, bounded by a timeout.
type OracleService struct {
	appContext.DefaultService

	config   OracleConfig
	provider chatProvider
}

var _ Oracle = (*OracleService)(nil)

const ORACLE_SVC = "oracle_svc"

func (svc OracleService) Id() string {
	return ORACLE_SVC
}

func (svc *OracleService) Configure(ctx *appContext.Context) error {
	if err := ParseEnv(&svc.config); err != nil {
		return err
	}
	svc.config.Provider = strings.ToLower(svc.config.Provider)
	return svc.DefaultService.Configure(ctx)
}

func (svc *OracleService) Start() error {
	switch svc.config.Provider {
	case OracleProviderOpenAI:
		svc.provider = newOpenAIProvider(svc.config)
	case OracleProviderGemini:
		provider, err := newGeminiProvider(context.Background(), svc.config)
		if err != nil {
			return fmt.Errorf("create gemini client: %w", err)
		}
		svc.provider = provider
	default:
		return fmt.Errorf("unknown ORACLE_PROVIDER %q", svc.config.Provider)
	}

	log.WithFields(log.Fields{
		"provider": svc.config.Provider,
		"model":    svc.config.Model,
	}).Info("Oracle ready")
	return nil
}

func (svc *OracleService) Shutdown() {
	if svc.provider == nil {
		return
	}
	if err := svc.provider.close(); err != nil {
		log.Errorf("Failed to close oracle client: %v", err)
	}
}

func (svc *OracleService) Reply(ctx context.Context, systemPrompt string, transcript []model.ChatMessage) (string, error) {
	if svc.provider == nil {
		return "", fmt.Errorf("%w: provider not started", shared.ErrOracle)
	}
	if len(transcript) == 0 || transcript[len(transcript)-1].Role != model.RoleUser {
		return "", fmt.Errorf("%w: transcript must end with a question", shared.ErrOracle)
	}

	if svc.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := svc.provider.complete(ctx, systemPrompt, transcript)
	oracleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("%w: %w", shared.ErrOracle, err)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", shared.ErrOracle)
	}
	return reply, nil
}

type openAIProvider struct {
	client openai.Client
	model  string
}

func newOpenAIProvider(cfg OracleConfig) *openAIProvider {
	apiKey := cfg.APIKey
	if apiKey == "" {
		// Ollama ignores the key but the client insists on one
		apiKey = "ollama"
	}
	return &openAIProvider{
		client: openai.NewClient(
			openaiOption.WithBaseURL(cfg.BaseURL),
			openaiOption.WithAPIKey(apiKey),
			openaiOption.WithMaxRetries(0),
		),
		model: cfg.Model,
	}
}

func (p *openAIProvider) complete(ctx context.Context, systemPrompt string, transcript []model.ChatMessage) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(transcript)+1)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, msg := range transcript {
		if msg.Role == model.RoleAssistant {
			messages = append(messages, openai.AssistantMessage(msg.Content))
		} else {
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *openAIProvider) close() error {
	return nil
}

type geminiProvider struct {
	client *genai.Client
	model  string
}

func newGeminiProvider(ctx context.Context, cfg OracleConfig) (*geminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}
	return &geminiProvider{client: client, model: cfg.Model}, nil
}

func (p *geminiProvider) complete(ctx context.Context, systemPrompt string, transcript []model.ChatMessage) (string, error) {
	gm := p.client.GenerativeModel(p.model)
	gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	chat := gm.StartChat()
	last := len(transcript) - 1
	for _, msg := range transcript[:last] {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		chat.History = append(chat.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	resp, err := chat.SendMessage(ctx, genai.Text(transcript[last].Content))
	if err != nil {
		return "", err
	}
	return geminiText(resp), nil
}

func (p *geminiProvider) close() error {
	return p.client.Close()
}

func geminiText(resp *genai.GenerateContentResponse) string {
	var text string
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text += string(txt)
			}
		}
	}
	return text
}
