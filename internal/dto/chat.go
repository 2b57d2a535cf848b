package dto

import (
	"time"

	"github.com/Nikkie2411/pedmedvn-sub000/internal/pipeline"
)

type ChatRequest struct {
	Question string `json:"question" validate:"required,max=500"`
}

// ChatResponse mirrors the pipeline result one to one so deterministic and
// generative answers share a single shape.
type ChatResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	DrugName       string `json:"drugName,omitempty"`
	Category       string `json:"category,omitempty"`
	CategoryLabel  string `json:"categoryLabel,omitempty"`
	Confidence     int    `json:"confidence,omitempty"`
	Step           int    `json:"step,omitempty"`
	Cause          string `json:"cause,omitempty"`
	UsedGenerative bool   `json:"usedGenerative,omitempty"`
	Narrowed       bool   `json:"narrowed,omitempty"`
}

func ChatResponseFromResult(r pipeline.Result) ChatResponse {
	return ChatResponse{
		Success:        r.Success,
		Message:        r.Message,
		DrugName:       r.DrugName,
		Category:       string(r.Category),
		CategoryLabel:  r.CategoryLabel,
		Confidence:     r.Confidence,
		Step:           r.Step,
		Cause:          string(r.Cause),
		UsedGenerative: r.UsedGenerative,
		Narrowed:       r.Narrowed,
	}
}

type ChatLogResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	DrugName  string    `json:"drugName,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ChatHistoryResponse struct {
	Items []ChatLogResponse `json:"items"`
}

type DrugListResponse struct {
	Drugs []string `json:"drugs"`
	Count int      `json:"count"`
}
