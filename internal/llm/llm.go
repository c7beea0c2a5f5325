package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

// maxBodyChars bounds how much of a pull request description goes into the prompt.
const maxBodyChars = 8000

// PullRequestContext is the material a summary is generated from.
type PullRequestContext struct {
	Number    int
	Title     string
	Body      string
	HeadRef   string
	BaseRef   string
	CIStatus  string
	Reviewers []string
}

// Client wraps the Anthropic API for pull request summaries.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if model == "" {
		model = DefaultModel
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildSummaryPrompt constructs the system and user prompts for a pull request summary.
func buildSummaryPrompt(pr PullRequestContext) (system string, user string) {
	system = `You summarize pull requests for a kanban board drawer. Write 2-4 short sentences of plain text:
- what the change does
- anything a reviewer should look at first
- the CI and review state if it is not green

Rules:
- No markdown headings, no bullet lists, no code fencing
- Do not invent details that are not in the input
- If the description is empty, summarize from the title and branch names alone`

	var sb strings.Builder
	fmt.Fprintf(&sb, "Pull request #%d: %s\n", pr.Number, pr.Title)
	if pr.HeadRef != "" || pr.BaseRef != "" {
		fmt.Fprintf(&sb, "Branches: %s -> %s\n", pr.HeadRef, pr.BaseRef)
	}
	if pr.CIStatus != "" {
		fmt.Fprintf(&sb, "CI: %s\n", pr.CIStatus)
	}
	if len(pr.Reviewers) > 0 {
		fmt.Fprintf(&sb, "Reviews: %s\n", strings.Join(pr.Reviewers, ", "))
	}
	body := strings.TrimSpace(pr.Body)
	if len(body) > maxBodyChars {
		body = body[:maxBodyChars]
	}
	if body != "" {
		sb.WriteString("\nDescription:\n")
		sb.WriteString(body)
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// SummarizePullRequest asks the model for a short summary of a pull request.
func (c *Client) SummarizePullRequest(ctx context.Context, pr PullRequestContext) (string, error) {
	systemPrompt, userPrompt := buildSummaryPrompt(pr)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 512,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in API response")
	}
	return stripFence(text), nil
}

// stripFence removes a surrounding markdown code fence, if present.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}
