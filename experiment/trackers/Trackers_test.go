package trackers

import (
	"errors"
	"path/filepath"
	"testing"

	ts "github.com/samuelfneumann/inforeg/timestep"
)

func episode() []ts.TimeStep {
	return []ts.TimeStep{
		{StepType: ts.First, Number: 0},
		{StepType: ts.Mid, Reward: -0.1, ActionInfo: 0.5, Number: 1},
		{StepType: ts.Last, Reward: 1.0, ActionInfo: 0.25, Number: 2},
		{StepType: ts.First, Number: 0},
		{StepType: ts.Last, Reward: -1.0, ActionInfo: 1.0, Number: 1},

		// Unfinished episodes are not recorded
		{StepType: ts.First, Number: 0},
		{StepType: ts.Mid, Reward: 3.0, ActionInfo: 2.0, Number: 1},
	}
}

func TestTrackers(t *testing.T) {
	lengths := NewEpisodeLength("")
	returns := NewReturn("")
	info := NewActionInfo("")

	for _, step := range episode() {
		for _, tracker := range []Tracker{lengths, returns, info} {
			tracker.Track(step)
		}
	}

	if got := lengths.Data(); len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("episodeLength: expected [2 1], got %v", got)
	}
	if got := returns.Data(); len(got) != 2 || got[0] != 0.9 ||
		got[1] != -1.0 {
		t.Errorf("return: expected [0.9 -1], got %v", got)
	}
	if got := info.Data(); len(got) != 2 || got[0] != 0.75 || got[1] != 1.0 {
		t.Errorf("actionInfo: expected [0.75 1], got %v", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	lengthFile := filepath.Join(dir, "lengths.bin")
	returnFile := filepath.Join(dir, "returns.bin")

	lengths := NewEpisodeLength(lengthFile)
	returns := NewReturn(returnFile)
	for _, step := range episode() {
		lengths.Track(step)
		returns.Track(step)
	}

	if err := lengths.Save(); err != nil {
		t.Fatal(err)
	}
	if err := returns.Save(); err != nil {
		t.Fatal(err)
	}

	gotLengths, err := LoadLengths(lengthFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotLengths) != 2 || gotLengths[0] != 2 {
		t.Errorf("loadLengths: expected [2 1], got %v", gotLengths)
	}

	gotReturns, err := LoadData(returnFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(gotReturns) != 2 || gotReturns[1] != -1.0 {
		t.Errorf("loadData: expected [0.9 -1], got %v", gotReturns)
	}
}

func TestSaveNoFilename(t *testing.T) {
	if err := NewActionInfo("").Save(); !errors.Is(err, ErrNoFilename) {
		t.Errorf("save: expected ErrNoFilename, got %v", err)
	}
}
