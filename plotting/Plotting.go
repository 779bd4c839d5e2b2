// Package plotting writes figures of training statistics and of
// per-state tables of a trained agent
package plotting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samuelfneumann/inforeg/experiment"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Figure sizes
const (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// Filenames of the figures written by EpisodeStats
const (
	LengthsFile    = "episode_lengths.png"
	RewardsFile    = "episode_rewards.png"
	ActionInfoFile = "episode_action_info.png"
)

// EpisodeStats writes a figure for each of the episode lengths, episode
// rewards, and episode action information in stats to dir. Each figure
// shows the raw data together with its moving average over window
// episodes.
func EpisodeStats(stats experiment.Stats, dir string, window int) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("episodeStats: could not create directory: %v", err)
	}

	figures := []struct {
		file, title, label string
		data               []float64
	}{
		{LengthsFile, "Episode Length over Time", "Episode Length",
			stats.Float64s()},
		{RewardsFile, "Episode Reward over Time", "Episode Reward",
			stats.EpisodeRewards},
		{ActionInfoFile, "Action Information over Time",
			"Action Information (bits)", stats.EpisodeActionInfo},
	}

	for _, f := range figures {
		path := filepath.Join(dir, f.file)
		if err := series(f.data, window, f.title, f.label, path); err != nil {
			return fmt.Errorf("episodeStats: %v", err)
		}
	}
	return nil
}

// series writes a line plot of data and its moving average to path
func series(data []float64, window int, title, label, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = label

	lines := []struct {
		name string
		data []float64
	}{
		{"raw", data},
		{fmt.Sprintf("smoothed (%d)", window),
			experiment.MovingAverage(data, window)},
	}

	for i, l := range lines {
		if len(l.data) == 0 {
			continue
		}
		line, err := plotter.NewLine(points(l.data))
		if err != nil {
			return fmt.Errorf("could not plot %v: %v", l.name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(l.name, line)
	}

	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("could not save %v: %v", path, err)
	}
	return nil
}

// points returns data as points indexed by episode
func points(data []float64) plotter.XYs {
	pts := make(plotter.XYs, len(data))
	for i, v := range data {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}
	return pts
}
