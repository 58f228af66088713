package gemini

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

	"github.com/RohanKhanna/TubeTalk/app/models"
	"github.com/RohanKhanna/TubeTalk/internal/pkg/env"
)

const (
	defaultAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel      = "gemini-2.0-flash"

	// Long transcripts are truncated before prompting so the request stays
	// inside the model context window.
	maxTranscriptChars = 120000
)

// ErrEmptyResponse signals the model returned no usable candidate.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Client calls the Gemini generateContent API for transcript chat.
type Client struct {
	APIBaseURL string
	APIKey     string
	Model      string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a Gemini client from GEMINI_* environment variables.
func NewClientFromEnv() *Client {
	return &Client{
		APIBaseURL: strings.TrimRight(env.GetEnv("GEMINI_API_BASE_URL", defaultAPIBaseURL), "/"),
		APIKey:     strings.TrimSpace(env.GetEnv("GEMINI_API_KEY", "")),
		Model:      strings.TrimSpace(env.GetEnv("GEMINI_MODEL", defaultModel)),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ChatTurn is one prior exchange in the conversation history.
type ChatTurn struct {
	Role string
	Text string
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *generateContent  `json:"system_instruction,omitempty"`
	Contents          []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Chat answers a question about a video transcript, given the prior turns of
// the conversation.
func (c *Client) Chat(ctx context.Context, transcript models.TranscriptItems, history []ChatTurn, question string) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is not configured")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", errors.New("question is required")
	}

	reqBody := generateRequest{
		SystemInstruction: &generateContent{
			Parts: []generatePart{{Text: systemPrompt(transcript)}},
		},
	}
	for _, turn := range history {
		role := "user"
		if turn.Role == models.MessageRoleAssistant {
			role = "model"
		}
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		reqBody.Contents = append(reqBody.Contents, generateContent{
			Role:  role,
			Parts: []generatePart{{Text: text}},
		})
	}
	reqBody.Contents = append(reqBody.Contents, generateContent{
		Role:  "user",
		Parts: []generatePart{{Text: question}},
	})

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.APIBaseURL, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode gemini response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("gemini error %d: %s", parsed.Error.Code, parsed.Error.Message)
		}
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}

	for _, cand := range parsed.Candidates {
		for _, part := range cand.Content.Parts {
			if text := strings.TrimSpace(part.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", ErrEmptyResponse
}

func systemPrompt(transcript models.TranscriptItems) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant that answers questions about a YouTube video using only its transcript below.\n")
	b.WriteString("When you reference a specific moment, cite its timestamp in [mm:ss] format.\n")
	b.WriteString("If the transcript does not contain the answer, say so instead of guessing.\n\n")
	b.WriteString("TRANSCRIPT:\n")

	for _, item := range transcript {
		line := fmt.Sprintf("[%s] %s\n", formatTimestamp(item.Start), item.Text)
		if b.Len()+len(line) > maxTranscriptChars {
			b.WriteString("[transcript truncated]\n")
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
