// Package pipeline drives the nine-stage article generation state
// machine and emits per-stage progress events.
package pipeline

import "github.com/wagomu-no-sunaba/etude-rag2/internal/types"

// Stage labels, in execution order. Labels and percentages are part of
// the SSE contract.
const (
	StageInputParse = "input_parse"
	StageClassify   = "classify"
	StageQueryGen   = "query_gen"
	StageRetrieve   = "retrieve"
	StageAnalyze    = "analyze"
	StageOutline    = "outline"
	StageContents   = "contents"
	StageQuality    = "quality"
	StageAssemble   = "assemble"
)

// stagePercent maps each stage to its fixed progress percentage.
var stagePercent = map[string]int{
	StageInputParse: 10,
	StageClassify:   20,
	StageQueryGen:   30,
	StageRetrieve:   45,
	StageAnalyze:    55,
	StageOutline:    65,
	StageContents:   85,
	StageQuality:    95,
	StageAssemble:   100,
}

// EventType discriminates the three SSE event kinds.
type EventType string

const (
	// EventProgress announces a stage is starting.
	EventProgress EventType = "progress"
	// EventComplete carries the rendered draft; always the last event
	// of a successful generation.
	EventComplete EventType = "complete"
	// EventError carries the failure taxonomy tag; always the last
	// event of a failed generation.
	EventError EventType = "error"
)

// ProgressPayload is the body of a progress event.
type ProgressPayload struct {
	Step       string `json:"step"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message,omitempty"`
}

// CompletePayload is the body of the terminal complete event.
type CompletePayload struct {
	Markdown string `json:"markdown"`
	DraftID  string `json:"draft_id"`
}

// ErrorPayload is the body of the terminal error event.
type ErrorPayload struct {
	Kind    types.ErrorKind `json:"kind"`
	Message string          `json:"message"`
}

// Event is one entry on the progress channel. Exactly one payload is
// set, matching Type.
type Event struct {
	Type     EventType
	Progress *ProgressPayload
	Complete *CompletePayload
	Error    *ErrorPayload
}

func progressEvent(stage string) Event {
	return Event{
		Type: EventProgress,
		Progress: &ProgressPayload{
			Step:       stage,
			Percentage: stagePercent[stage],
		},
	}
}

func completeEvent(markdown, draftID string) Event {
	return Event{
		Type:     EventComplete,
		Complete: &CompletePayload{Markdown: markdown, DraftID: draftID},
	}
}

func errorEvent(err error) Event {
	return Event{
		Type:  EventError,
		Error: &ErrorPayload{Kind: types.KindOf(err), Message: err.Error()},
	}
}
