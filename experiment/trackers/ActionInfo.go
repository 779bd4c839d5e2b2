package trackers

import (
	"fmt"

	ts "github.com/samuelfneumann/inforeg/timestep"
)

// ActionInfo tracks and saves the cumulative action information, in
// bits, of the policy over each episode. The action information of a
// step is read from the ActionInfo field of the TimeStep that the step
// produced.
type ActionInfo struct {
	currentInfo float64
	episodeInfo []float64
	filename    string
}

// NewActionInfo creates and returns a new *ActionInfo Tracker
func NewActionInfo(filename string) *ActionInfo {
	return &ActionInfo{filename: filename}
}

// Track accumulates the action information of a timestep
func (a *ActionInfo) Track(step ts.TimeStep) {
	if step.First() {
		a.currentInfo = 0
		return
	}

	a.currentInfo += step.ActionInfo
	if step.Last() {
		a.episodeInfo = append(a.episodeInfo, a.currentInfo)
		a.currentInfo = 0
	}
}

// Data returns a copy of the cumulative action information of all
// finished episodes
func (a *ActionInfo) Data() []float64 {
	data := make([]float64, len(a.episodeInfo))
	copy(data, a.episodeInfo)
	return data
}

// Save saves the data tracked by the ActionInfo Tracker to disk.
func (a *ActionInfo) Save() error {
	if err := save(a.filename, a.episodeInfo); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
