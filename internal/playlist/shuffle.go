package playlist

import "math/rand"

// DefaultRecentWindow is how many recently played tracks a regenerated
// shuffle permutation avoids.
const DefaultRecentWindow = 3

// Config carries the tunable queue engine parameters.
type Config struct {
	RecentWindow int
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{RecentWindow: DefaultRecentWindow}
}

// ShuffleState is the shuffle-mode sub-state: a permutation of track
// indices, the consumption pointer into it, and the bounded list of
// recently played indices.
type ShuffleState struct {
	Queue      []int
	QueueIndex int
	Recent     []int
}

// regenerate rebuilds Queue as a random permutation of [0, n) excluding
// current and the given recent indices, resetting the pointer. If the
// exclusions would leave nothing to play, only current is excluded; a
// playlist with more than one track therefore always yields a non-empty
// queue that avoids the playing track.
func (sh *ShuffleState) regenerate(n, current int, recent []int) {
	excluded := make(map[int]bool, len(recent)+1)
	excluded[current] = true
	for _, idx := range recent {
		excluded[idx] = true
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !excluded[i] {
			queue = append(queue, i)
		}
	}
	if len(queue) == 0 {
		for i := 0; i < n; i++ {
			if i != current {
				queue = append(queue, i)
			}
		}
	}

	rand.Shuffle(len(queue), func(i, j int) {
		queue[i], queue[j] = queue[j], queue[i]
	})

	sh.Queue = queue
	sh.QueueIndex = 0
}

// push appends a played index to the recency history, keeping at most
// window entries.
func (sh *ShuffleState) push(index, window int) {
	if window <= 0 {
		return
	}
	sh.Recent = append(sh.Recent, index)
	if len(sh.Recent) > window {
		sh.Recent = sh.Recent[len(sh.Recent)-window:]
	}
}
