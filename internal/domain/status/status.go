// Package status generates the progress snapshot of a survey session.
//
// The controller writes a JSON status file after every persisted change.
// `survey status` reads it, and `survey status --follow` re-renders it
// whenever the file changes.
package status

import (
	"encoding/json"
	"math"
	"os"

	"github.com/corey/survey/internal/domain/survey"
)

// StatusFile is the filename within the .survey directory where status JSON is written.
const StatusFile = "status.json"

// StatusData is the JSON payload written for status readers.
type StatusData struct {
	Phase    survey.Phase `json:"phase"`
	Group    int          `json:"group,omitempty"`
	Position int          `json:"position"` // 1-based index of the current image
	Total    int          `json:"total"`
	ImageID  string       `json:"image_id,omitempty"`

	Completed       int  `json:"completed"`        // images with all five ratings
	CurrentAnswered int  `json:"current_answered"` // ratings set on the current image
	CurrentComplete bool `json:"current_complete"`
	Submitting      bool `json:"submitting"`

	Progress float64 `json:"progress"` // percent, position / total
}

// Generate produces a StatusData from the session.
func Generate(s survey.Session, layout survey.Layout) *StatusData {
	sd := &StatusData{
		Phase: s.Phase,
		Group: s.AssignedGroup(),
		Total: len(s.Images),
	}
	if sd.Total == 0 {
		sd.Total = layout.GroupSize
	}
	for _, r := range s.Responses {
		if r.Complete() {
			sd.Completed++
		}
	}
	sd.Submitting = s.Busy

	switch s.Phase {
	case survey.PhaseSurvey:
		sd.Position = s.Index + 1
		if id, resp, ok := s.Current(); ok {
			sd.ImageID = id
			sd.CurrentAnswered = resp.Answered()
			sd.CurrentComplete = resp.Complete()
		}
	case survey.PhaseFinish:
		sd.Position = sd.Total
	}
	sd.Progress = percent(sd.Position, sd.Total)
	return sd
}

// percent mirrors the progress bar: position over total, capped at 100.
func percent(pos, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(pos) / float64(total) * 100
	return math.Min(100, math.Round(p*10)/10)
}

// WriteJSON writes the status data as JSON to a file.
func WriteJSON(path string, data *StatusData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Read loads a status file. Returns nil, nil if the file does not exist.
func Read(path string) (*StatusData, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sd StatusData
	if err := json.Unmarshal(b, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}
