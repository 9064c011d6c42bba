package playlist

import "fmt"

// EndAction tells the client what to do after it reports a track end.
type EndAction int

const (
	// EndReplay keeps the current track; the client seeks to the start.
	EndReplay EndAction = iota
	// EndAdvance moves playback to the next track.
	EndAdvance
)

func (a EndAction) String() string {
	if a == EndReplay {
		return "replay"
	}
	return "advance"
}

// State is the playback state of one loaded playlist. Shuffled and
// Repeated are mutually exclusive. CurrentIndex is -1 only while the
// track list is empty.
type State struct {
	Tracks       []Track
	CurrentIndex int
	Shuffled     bool
	Repeated     bool
	Volume       float64
}

// NewState builds the initial state for a loaded track list: first
// track selected, sequential mode, full volume.
func NewState(tracks []Track) State {
	s := State{Tracks: tracks, CurrentIndex: -1, Volume: 1.0}
	if len(tracks) > 0 {
		s.CurrentIndex = 0
	}
	return s
}

// Current returns the playing track, or nil for an empty playlist.
func (s *State) Current() *Track {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Tracks) {
		return nil
	}
	return &s.Tracks[s.CurrentIndex]
}

// Next advances playback and returns the new current index. Sequential
// and repeat modes step forward with wrap-around; shuffle mode consumes
// the permutation queue, regenerating it on exhaustion. Lists of zero or
// one track are left untouched. sh may be nil unless shuffle is on.
func (s *State) Next(sh *ShuffleState, cfg Config) int {
	n := len(s.Tracks)
	if n <= 1 {
		return s.CurrentIndex
	}

	if !s.Shuffled || sh == nil {
		s.CurrentIndex = (s.CurrentIndex + 1) % n
		return s.CurrentIndex
	}

	if sh.QueueIndex >= len(sh.Queue) {
		sh.regenerate(n, s.CurrentIndex, sh.Recent)
	}

	prev := s.CurrentIndex
	s.CurrentIndex = sh.Queue[sh.QueueIndex]
	sh.QueueIndex++
	sh.push(prev, cfg.RecentWindow)
	return s.CurrentIndex
}

// Prev steps playback backward. In shuffle mode it walks the permutation
// back while history remains; at the bottom it generates a fresh
// permutation avoiding only the current track, serves its last element,
// and parks the pointer past the end so the next forward step
// regenerates. Recency history is not consulted on the backward path.
func (s *State) Prev(sh *ShuffleState, cfg Config) int {
	n := len(s.Tracks)
	if n <= 1 {
		return s.CurrentIndex
	}

	if !s.Shuffled || sh == nil {
		s.CurrentIndex = (s.CurrentIndex - 1 + n) % n
		return s.CurrentIndex
	}

	if sh.QueueIndex > 1 {
		sh.QueueIndex--
		s.CurrentIndex = sh.Queue[sh.QueueIndex-1]
		return s.CurrentIndex
	}

	sh.regenerate(n, s.CurrentIndex, nil)
	sh.QueueIndex = len(sh.Queue)
	s.CurrentIndex = sh.Queue[len(sh.Queue)-1]
	return s.CurrentIndex
}

// Select jumps to the given index. In shuffle mode the permutation is
// regenerated around the selection and the recency history collapses to
// just the selected index, so an immediate shuffle step cannot replay it.
func (s *State) Select(index int, sh *ShuffleState) error {
	if index < 0 || index >= len(s.Tracks) {
		return fmt.Errorf("track index %d out of range (playlist has %d tracks)", index, len(s.Tracks))
	}

	s.CurrentIndex = index
	if s.Shuffled && sh != nil {
		sh.regenerate(len(s.Tracks), index, nil)
		sh.Recent = []int{index}
	}
	return nil
}

// TrackEnd decides what happens when the client reports the current
// track finished. Repeat mode replays unless the client already tried
// and failed (replayFailed), in which case playback advances instead.
func (s *State) TrackEnd(sh *ShuffleState, cfg Config, replayFailed bool) EndAction {
	if s.Repeated && !replayFailed {
		return EndReplay
	}
	s.Next(sh, cfg)
	return EndAdvance
}

// SetShuffled toggles shuffle mode and returns the ShuffleState the
// caller should hold from now on: a fresh empty one when enabling
// (populated lazily by the first step), nil when disabling. Enabling
// shuffle clears repeat.
func (s *State) SetShuffled(on bool) *ShuffleState {
	s.Shuffled = on
	if !on {
		return nil
	}
	s.Repeated = false
	return &ShuffleState{}
}

// SetRepeated toggles repeat mode. Enabling repeat clears shuffle; the
// caller should drop its ShuffleState.
func (s *State) SetRepeated(on bool) {
	s.Repeated = on
	if on {
		s.Shuffled = false
	}
}

// SetVolume stores the playback volume, clamped to [0, 1].
func (s *State) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	s.Volume = v
}
