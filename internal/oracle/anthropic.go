package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/msw2004727/FB-sub000/internal/config"
)

// ErrUnavailable indicates the oracle could not be reached or did not answer
// in time. The triggering request left no mark on game state and may be
// retried as-is.
var ErrUnavailable = errors.New("oracle unavailable")

// Client is the Anthropic-backed Oracle implementation.
//
// Transport failures surface as errors wrapping ErrUnavailable. Malformed
// completions do not: the offending text is logged and a zero-valued result
// is returned, so callers degrade to deterministic behavior instead of
// failing the player's request.
type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	timeout   time.Duration
	logger    *zap.Logger
}

var _ Oracle = (*Client)(nil)

// NewClient creates an Anthropic-backed oracle client.
//
// Precondition: cfg has been validated.
func NewClient(cfg config.OracleConfig, logger *zap.Logger) *Client {
	opts := []option.RequestOption{
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return &Client{
		client:    anthropic.NewClient(opts...),
		model:     anthropic.Model(cfg.Model),
		maxTokens: int64(cfg.MaxTokens),
		timeout:   cfg.Timeout,
		logger:    logger,
	}
}

// SetupCombat asks for an encounter roster and opening narration.
func (c *Client) SetupCombat(ctx context.Context, req SetupRequest) (*SetupResult, error) {
	text, err := c.complete(ctx, setupSystemPrompt, req)
	if err != nil {
		return nil, fmt.Errorf("setup combat: %w", err)
	}

	var result SetupResult
	if err := DecodePayload(text, &result); err != nil {
		c.logMalformed("setupCombat", text, err)
		return &SetupResult{}, nil
	}
	return &result, nil
}

// ResolveAction narrates one combat turn and proposes state deltas.
func (c *Client) ResolveAction(ctx context.Context, req ActionRequest) (*ActionResult, error) {
	text, err := c.complete(ctx, actionSystemPrompt, req)
	if err != nil {
		return nil, fmt.Errorf("resolve action: %w", err)
	}

	var result ActionResult
	if err := DecodePayload(text, &result); err != nil {
		c.logMalformed("resolveAction", text, err)
		return &ActionResult{}, nil
	}
	return &result, nil
}

// ResolveSurrender adjudicates a surrender attempt. A malformed completion
// degrades to a refusal, never to an acceptance.
func (c *Client) ResolveSurrender(ctx context.Context, req SurrenderRequest) (*SurrenderResult, error) {
	text, err := c.complete(ctx, surrenderSystemPrompt, req)
	if err != nil {
		return nil, fmt.Errorf("resolve surrender: %w", err)
	}

	var result SurrenderResult
	if err := DecodePayload(text, &result); err != nil {
		c.logMalformed("resolveSurrender", text, err)
		return &SurrenderResult{Accepted: false}, nil
	}
	return &result, nil
}

// ResolvePostCombat produces the settlement outcome for a finished fight.
func (c *Client) ResolvePostCombat(ctx context.Context, req PostCombatRequest) (*PostCombatResult, error) {
	text, err := c.complete(ctx, postCombatSystemPrompt, req)
	if err != nil {
		return nil, fmt.Errorf("resolve post-combat: %w", err)
	}

	var result PostCombatResult
	if err := DecodePayload(text, &result); err != nil {
		c.logMalformed("resolvePostCombat", text, err)
		return &PostCombatResult{}, nil
	}
	return &result, nil
}

// complete sends one system+user exchange and returns the concatenated text
// blocks of the completion. req is marshaled as the user message.
func (c *Client) complete(ctx context.Context, system string, req any) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encoding oracle request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(string(payload))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

func (c *Client) logMalformed(op, text string, err error) {
	const sample = 512
	if len(text) > sample {
		text = text[:sample]
	}
	c.logger.Warn("oracle returned malformed payload, degrading to defaults",
		zap.String("operation", op),
		zap.Error(err),
		zap.String("completion_sample", text),
	)
}
