package analysis

import "encoding/json"

// Truncation caps applied to service annotations before persistence.
const (
	MaxLabels  = 10
	MaxObjects = 5
)

// Label is one ranked label annotation.
type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

// Object is one localized object annotation.
type Object struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Annotations is the feature bundle returned by an Analyzer. Either all
// four features are present or the analysis failed as a whole; partial
// bundles are never produced.
type Annotations struct {
	Labels  []Label
	Objects []Object
	Text    string
	Faces   int
}

// Truncate caps labels and objects at their persisted maximums, keeping
// the service's native ranking order.
func (a *Annotations) Truncate() {
	if len(a.Labels) > MaxLabels {
		a.Labels = a.Labels[:MaxLabels]
	}
	if len(a.Objects) > MaxObjects {
		a.Objects = a.Objects[:MaxObjects]
	}
}

// Result is the persisted analysis document. Immutable once created; the
// JSON tags define the stored shape.
type Result struct {
	Labels           []Label  `json:"labels"`
	Objects          []Object `json:"objects"`
	Text             string   `json:"text"`
	Faces            int      `json:"faces"`
	Timestamp        string   `json:"timestamp"`
	OriginalFilename string   `json:"original_filename"`
	ImagePath        string   `json:"image_path"`
}

// EncodeJSON renders the document in the stored two-space-indent form.
func (r *Result) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// DecodeResult parses a stored result document.
func DecodeResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
