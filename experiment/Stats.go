package experiment

import (
	"gonum.org/v1/gonum/stat"
)

// Stats holds per-episode statistics of a training run. All fields have
// one entry per episode.
type Stats struct {
	EpisodeLengths []int
	EpisodeRewards []float64

	// EpisodeActionInfo is the total action information, in bits, of the
	// policy over the states visited in each episode
	EpisodeActionInfo []float64
}

// Len returns the number of episodes in the Stats
func (s Stats) Len() int {
	return len(s.EpisodeLengths)
}

// TotalSteps returns the total number of steps taken over all episodes
func (s Stats) TotalSteps() int {
	var total int
	for _, l := range s.EpisodeLengths {
		total += l
	}
	return total
}

// FirstTimeTo returns the index of the first episode whose reward
// reaches threshold and the total number of steps taken until the end
// of that episode. If no episode reaches threshold, ok is false and
// steps is the total number of steps over all episodes.
func FirstTimeTo(lengths []int, rewards []float64, threshold float64) (
	episode, steps int, ok bool) {
	for i, r := range rewards {
		if i < len(lengths) {
			steps += lengths[i]
		}
		if r >= threshold {
			return i, steps, true
		}
	}
	return len(rewards), steps, false
}

// MovingAverage returns the trailing moving average of data over window
// points. The first window-1 points are averaged over all data seen so
// far.
func MovingAverage(data []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}

	avg := make([]float64, len(data))
	for i := range data {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		avg[i] = stat.Mean(data[start:i+1], nil)
	}
	return avg
}

// Float64s returns the episode lengths as float64s
func (s Stats) Float64s() []float64 {
	lengths := make([]float64, len(s.EpisodeLengths))
	for i, l := range s.EpisodeLengths {
		lengths[i] = float64(l)
	}
	return lengths
}
