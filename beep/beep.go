// Package beep plays short audio cues when a recording starts, stops or fails.
package beep

import (
	"math"
	"sync"
	"sync/atomic"

	"hark/orchestrator"
)

const (
	sampleRate = 44100

	// start: high and short
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// end: lower and a little longer
	endFreq   = 900
	endVolume = 0.5
	endDecay  = 40

	// error: low double beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

var (
	startSamples []int16
	endSamples   []int16
	errorSamples []int16
	soundOnce    sync.Once
)

func initSamples() {
	startSamples = generateTick(sampleRate, startFreq, 0.05, startVolume, startDecay)
	endSamples = generateTick(sampleRate, endFreq, 0.08, endVolume, endDecay)
	errorSamples = generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay)
}

// generateTick is a mono sine with an exponential decay envelope.
func generateTick(sampleRate int, freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	samples := make([]int16, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		samples[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return samples
}

func generateDoubleBeep(sampleRate int, freq, beepDur, gapDur, volume, decay float64) []int16 {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	result := make([]int16, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}

func Init() {
	soundOnce.Do(initSamples)
	initPlayer()
}

func play(samples func() []int16) {
	if disabled.Load() {
		return
	}
	soundOnce.Do(initSamples)
	go playSamples(samples())
}

func PlayStart() { play(func() []int16 { return startSamples }) }
func PlayEnd()   { play(func() []int16 { return endSamples }) }
func PlayError() { play(func() []int16 { return errorSamples }) }

// Cues maps orchestrator events to sounds.
type Cues struct {
	Start, End, Error func()
}

func NewCues() Cues {
	return Cues{Start: PlayStart, End: PlayEnd, Error: PlayError}
}

func (c Cues) StatusChanged(_ orchestrator.Mode, s orchestrator.Status) {
	switch s {
	case orchestrator.Recording:
		c.Start()
	case orchestrator.Processing:
		c.End()
	}
}

func (c Cues) SessionUsage(u orchestrator.Usage) {
	switch u.Outcome {
	case orchestrator.OutcomeFailed, orchestrator.OutcomeStartFailed,
		orchestrator.OutcomeInjectFailed, orchestrator.OutcomeAssistantFailed:
		c.Error()
	}
}
