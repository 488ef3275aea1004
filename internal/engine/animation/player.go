package animation

import "github.com/chewxy/math32"

// Player tracks playback time for one clip on one model.
type Player struct {
	clip    *Clip
	time    float32
	playing bool
}

// Play starts clip from the beginning. A nil clip stops playback.
func (p *Player) Play(clip *Clip) {
	p.clip = clip
	p.time = 0
	p.playing = clip != nil
}

// Advance moves the playback time forward by dt seconds while playing.
func (p *Player) Advance(dt float32) {
	if p.playing && p.clip != nil {
		p.time += dt
	}
}

// Pause stops advancing time.
func (p *Player) Pause() { p.playing = false }

// Resume continues advancing time if a clip is set.
func (p *Player) Resume() { p.playing = p.clip != nil }

// Seek sets the playback time.
func (p *Player) Seek(t float32) { p.time = t }

// Time returns the playback time in seconds.
func (p *Player) Time() float32 { return p.time }

// Clip returns the current clip, or nil.
func (p *Player) Clip() *Clip { return p.clip }

// Playing reports whether time is advancing.
func (p *Player) Playing() bool { return p.playing }

// Finished reports whether a non-looping clip has played to its end.
func (p *Player) Finished() bool {
	if p.clip == nil || p.clip.Loop || p.clip.Duration <= 0 {
		return false
	}
	return math32.Abs(p.time*p.clip.Speed) >= p.clip.Duration
}
