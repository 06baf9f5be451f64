package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const audioSampleRate = beep.SampleRate(44100)

// AudioPlayer plays short synthesized cues for match events. When the
// speaker cannot initialize (headless terminals, CI) every cue becomes a
// silent no-op and the match proceeds normally.
type AudioPlayer struct {
	enabled bool
}

// NewAudioPlayer initializes the speaker. Pass enabled=false to force
// silence without touching the audio device.
func NewAudioPlayer(enabled bool) *AudioPlayer {
	if !enabled {
		return &AudioPlayer{}
	}
	if err := speaker.Init(audioSampleRate, audioSampleRate.N(100*time.Millisecond)); err != nil {
		logger.Warnw("audio unavailable, continuing silent", "err", err)
		return &AudioPlayer{}
	}
	return &AudioPlayer{enabled: true}
}

// tone is a finite sine streamer with a linear fade-out
type tone struct {
	freq     float64
	phase    float64
	total    int
	position int
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		if t.position >= t.total {
			return i, false
		}
		val := math.Sin(2 * math.Pi * t.phase)
		// fade the tail to avoid clicks
		remain := float64(t.total-t.position) / float64(t.total)
		if remain < 0.2 {
			val *= remain / 0.2
		}
		samples[i][0] = val * 0.4
		samples[i][1] = val * 0.4
		t.phase += t.freq / float64(audioSampleRate)
		t.phase -= math.Floor(t.phase)
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }

func (a *AudioPlayer) play(freq float64, d time.Duration) {
	if !a.enabled {
		return
	}
	speaker.Play(&tone{freq: freq, total: audioSampleRate.N(d)})
}

func (a *AudioPlayer) seq(notes ...beep.Streamer) {
	if !a.enabled {
		return
	}
	speaker.Play(beep.Seq(notes...))
}

func (a *AudioPlayer) note(freq float64, d time.Duration) beep.Streamer {
	return &tone{freq: freq, total: audioSampleRate.N(d)}
}

// CountdownTick plays the per-second countdown blip
func (a *AudioPlayer) CountdownTick() { a.play(880, 80*time.Millisecond) }

// MatchStart plays the "go" cue
func (a *AudioPlayer) MatchStart() { a.play(1320, 200*time.Millisecond) }

// Notify plays the notification chirp
func (a *AudioPlayer) Notify() { a.play(660, 60*time.Millisecond) }

// Victory plays a rising three-note sequence
func (a *AudioPlayer) Victory() {
	a.seq(a.note(523, 120*time.Millisecond), a.note(659, 120*time.Millisecond), a.note(784, 240*time.Millisecond))
}

// Defeat plays a falling two-note sequence
func (a *AudioPlayer) Defeat() {
	a.seq(a.note(392, 180*time.Millisecond), a.note(262, 320*time.Millisecond))
}
