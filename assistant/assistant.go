// Package assistant answers a spoken request, optionally about the text that
// was selected when the recording started.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"

	"hark/log"
)

type Handler interface {
	Handle(ctx context.Context, transcript, selection string) error
}

// LogHandler only records the request. It is used when no API key is set.
type LogHandler struct{}

func (LogHandler) Handle(_ context.Context, transcript, selection string) error {
	log.Infof("assistant request: %q (selection %d chars)", transcript, len(selection))
	return nil
}

const DefaultSystemPrompt = "You are a concise desktop assistant. Answer in plain text " +
	"without markdown. When selected text is given, the request is about that text."

const DefaultModel = openai.GPT4oMini

type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
}

// OpenAI streams a chat completion for each request. Every complete sentence
// is passed to OnSentence as it arrives; the full reply goes to Deliver.
type OpenAI struct {
	client *openai.Client
	model  string
	system string

	OnSentence func(string)
	Deliver    func(reply string) error

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

func NewOpenAI(cfg Config) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	system := cfg.SystemPrompt
	if system == "" {
		system = DefaultSystemPrompt
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(oc),
		model:  model,
		system: system,
	}
}

func userMessage(transcript, selection string) string {
	if strings.TrimSpace(selection) == "" {
		return transcript
	}
	return fmt.Sprintf("Selected text:\n%s\n\nRequest: %s", selection, transcript)
}

// maxHistory bounds the remembered exchanges, counted in messages.
const maxHistory = 8

func (a *OpenAI) messages(user string) []openai.ChatCompletionMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	msgs := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleSystem, Content: a.system}}
	msgs = append(msgs, a.history...)
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user})
}

func (a *OpenAI) remember(user, reply string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = append(a.history,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: user},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
	)
	if len(a.history) > maxHistory {
		a.history = a.history[len(a.history)-maxHistory:]
	}
}

func (a *OpenAI) Handle(ctx context.Context, transcript, selection string) error {
	user := userMessage(transcript, selection)
	stream, err := a.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: a.messages(user),
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("assistant stream: %w", err)
	}
	defer stream.Close()

	var reply, pending strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("assistant stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		reply.WriteString(chunk)
		for _, s := range splitSentences(&pending, chunk) {
			a.emit(s)
		}
	}
	if rest := strings.TrimSpace(pending.String()); rest != "" {
		a.emit(rest)
	}

	text := strings.TrimSpace(reply.String())
	log.Infof("assistant reply: %d chars", len(text))
	a.remember(user, text)
	if a.Deliver != nil && text != "" {
		if err := a.Deliver(text); err != nil {
			return fmt.Errorf("deliver reply: %w", err)
		}
	}
	return nil
}

func (a *OpenAI) emit(sentence string) {
	if a.OnSentence != nil {
		a.OnSentence(sentence)
	}
}

var sentenceRe = regexp.MustCompile(`[^.!?]*[.!?]`)

// splitSentences appends chunk to buf and returns every complete sentence,
// leaving the unterminated tail in buf.
func splitSentences(buf *strings.Builder, chunk string) []string {
	buf.WriteString(chunk)
	text := buf.String()

	var out []string
	for {
		loc := sentenceRe.FindStringIndex(text)
		if loc == nil {
			break
		}
		if s := strings.TrimSpace(text[:loc[1]]); s != "" {
			out = append(out, s)
		}
		text = text[loc[1]:]
	}
	buf.Reset()
	buf.WriteString(text)
	return out
}
