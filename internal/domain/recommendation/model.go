package recommendation

import (
	"github.com/yanqian/codify/internal/domain/outfit"
	"github.com/yanqian/codify/pkg/metrics"
)

// Config tunes candidate generation and the LLM rerank.
type Config struct {
	Model           string
	Temperature     float32
	MaxTokens       int
	Prompt          string
	CandidateLimit  int
	DefaultCount    int
	MaxPromptTokens int
}

// Request is a single recommendation ask.
type Request struct {
	UserID  int64  `json:"-"`
	Count   int    `json:"count"`
	Message string `json:"message"`
	Region  string `json:"region"`
	// Answer carries the reply to a previous clarifying question.
	Answer    string        `json:"answer"`
	Date      string        `json:"date"`
	Latitude  *float64      `json:"lat"`
	Longitude *float64      `json:"lon"`
	Items     []outfit.Item `json:"items"`
}

// Status is the terminal outcome of a request.
type Status string

const (
	StatusOK                   Status = "ok"
	StatusNeedsClarification   Status = "needs_clarification"
	StatusInsufficientWardrobe Status = "insufficient_wardrobe"
)

// Method tells how the outfits were ranked.
type Method string

const (
	MethodLLM       Method = "llm"
	MethodRuleBased Method = "rule-based"
)

// Outfit is one recommended combination.
type Outfit struct {
	Top              outfit.Item `json:"top"`
	Bottom           outfit.Item `json:"bottom"`
	Score            float64     `json:"score"`
	Reasons          []string    `json:"reasons"`
	Reasoning        string      `json:"reasoning"`
	StyleDescription string      `json:"styleDescription"`
}

// WeatherSummary is the weather context used for a recommendation.
type WeatherSummary struct {
	Region        string   `json:"region"`
	Date          string   `json:"date"`
	MinTemp       *float64 `json:"minTemp,omitempty"`
	MaxTemp       *float64 `json:"maxTemp,omitempty"`
	Precipitation string   `json:"precipitation"`
	Seasons       []string `json:"seasons,omitempty"`
	Text          string   `json:"text"`
	Source        string   `json:"source"`
}

// Response is serialized back to API consumers.
type Response struct {
	Status                   Status              `json:"status"`
	Method                   Method              `json:"method,omitempty"`
	Outfits                  []Outfit            `json:"outfits"`
	Reasoning                string              `json:"reasoning,omitempty"`
	Weather                  *WeatherSummary     `json:"weather,omitempty"`
	WeatherUnavailableReason string              `json:"weatherUnavailableReason,omitempty"`
	ClarifyingQuestion       string              `json:"clarifyingQuestion,omitempty"`
	Message                  string              `json:"message,omitempty"`
	Cached                   bool                `json:"cached,omitempty"`
	TokenUsage               *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// CachedPick is what the result cache keeps per outfit: ids and text only.
type CachedPick struct {
	TopID            string  `json:"topId"`
	BottomID         string  `json:"bottomId"`
	Score            float64 `json:"score"`
	Reasoning        string  `json:"reasoning"`
	StyleDescription string  `json:"styleDescription"`
}
