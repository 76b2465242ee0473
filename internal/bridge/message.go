package bridge

import (
	"encoding/json"

	"github.com/nao1215/privacylens/internal/model"
)

// MessageType is the type field of a request.
type MessageType string

// Request types.
const (
	TypeAnalysisComplete MessageType = "ANALYSIS_COMPLETE"
	TypeGetAnalysis      MessageType = "GET_ANALYSIS"
	TypeTabActivated     MessageType = "TAB_ACTIVATED"
	TypeWindowFocused    MessageType = "WINDOW_FOCUSED"
	TypeTabRemoved       MessageType = "TAB_REMOVED"
	TypeAnalyze          MessageType = "ANALYZE"
)

// Request is a message from the browser.
type Request struct {
	Type MessageType `json:"type"`

	// RequestID is echoed unchanged in the response.
	RequestID json.RawMessage `json:"requestId,omitempty"`

	TabID    *int                  `json:"tabId,omitempty"`
	WindowID *int                  `json:"windowId,omitempty"`
	URL      string                `json:"url,omitempty"`
	Data     *model.AnalysisReport `json:"data,omitempty"`
}

// Response is a message to the browser.
type Response struct {
	RequestID json.RawMessage
	Success   *bool

	// Data is written whenever HasData is set, as null when Data is nil.
	Data    *model.AnalysisReport
	HasData bool

	Error string
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	out := struct {
		RequestID json.RawMessage `json:"requestId,omitempty"`
		Success   *bool           `json:"success,omitempty"`
		Data      json.RawMessage `json:"data,omitempty"`
		Error     string          `json:"error,omitempty"`
	}{
		RequestID: r.RequestID,
		Success:   r.Success,
		Error:     r.Error,
	}
	if r.HasData {
		data, err := json.Marshal(r.Data)
		if err != nil {
			return nil, err
		}
		out.Data = data
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Response) UnmarshalJSON(b []byte) error {
	var in struct {
		RequestID json.RawMessage `json:"requestId,omitempty"`
		Success   *bool           `json:"success,omitempty"`
		Data      json.RawMessage `json:"data,omitempty"`
		Error     string          `json:"error,omitempty"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = Response{RequestID: in.RequestID, Success: in.Success, Error: in.Error}
	if in.Data != nil {
		r.HasData = true
		if string(in.Data) != "null" {
			r.Data = &model.AnalysisReport{}
			if err := json.Unmarshal(in.Data, r.Data); err != nil {
				return err
			}
		}
	}
	return nil
}

func ok(id json.RawMessage) Response {
	t := true
	return Response{RequestID: id, Success: &t}
}

func fail(id json.RawMessage, err error) Response {
	f := false
	return Response{RequestID: id, Success: &f, Error: err.Error()}
}

func withData(id json.RawMessage, report *model.AnalysisReport) Response {
	return Response{RequestID: id, Data: report, HasData: true}
}
