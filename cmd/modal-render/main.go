package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/carstenbund/ModalEffect/internal/audiofile"
	"github.com/carstenbund/ModalEffect/modal"
	"github.com/carstenbund/ModalEffect/preset"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	channel := flag.Int("channel", 0, "MIDI channel used for node routing")
	duration := flag.Float64("duration", 2.0, "Duration in seconds")
	decayDBFS := flag.Float64("decay-dbfs", math.Inf(1), "Auto-stop when stereo block RMS falls below this dBFS (e.g. -90). Disabled by default")
	decayHoldBlocks := flag.Int("decay-hold-blocks", 6, "Consecutive below-threshold blocks required to stop in auto-decay mode")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds when using -decay-dbfs")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds when using -decay-dbfs")
	releaseAfter := flag.Float64("release-after", 0.3, "Send NoteOff after this many seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	nodes := flag.Int("nodes", modal.DefaultNetworkNodes, "Network node count")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	const blockSize = 128

	engine := modal.NewEngine(*nodes)
	engine.Prepare(float64(*sampleRate), blockSize)

	if *presetPath != "" {
		if err := preset.LoadJSON(*presetPath, engine); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Rendering note %d, velocity %d, %d nodes at %d Hz...\n",
		*note, *velocity, *nodes, *sampleRate)

	vel := float32(*velocity) / 127.0
	engine.NoteOn(*note, vel, *channel)

	autoStop := !math.IsInf(*decayDBFS, 1)
	var totalFrames int
	if !autoStop {
		totalFrames = int(float64(*sampleRate) * (*duration))
		if totalFrames < 1 {
			totalFrames = 1
		}
	}

	outL := make([]float32, blockSize)
	outR := make([]float32, blockSize)
	samples := make([]float32, 0, blockSize*2)
	releaseAtFrame := int(float64(*sampleRate) * (*releaseAfter))
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}

	framesRendered := 0
	noteReleased := false

	if autoStop {
		minFrames := int(float64(*sampleRate) * (*minDuration))
		maxFrames := int(float64(*sampleRate) * (*maxDuration))
		if maxFrames < minFrames {
			maxFrames = minFrames
		}
		if maxFrames < 1 {
			maxFrames = blockSize
		}
		if *decayHoldBlocks < 1 {
			*decayHoldBlocks = 1
		}
		thresholdLin := math.Pow(10.0, *decayDBFS/20.0)
		belowCount := 0

		for framesRendered < maxFrames {
			n := blockSize
			if framesRendered+n > maxFrames {
				n = maxFrames - framesRendered
			}
			if !noteReleased && framesRendered >= releaseAtFrame {
				engine.NoteOff(*note)
				noteReleased = true
			}
			engine.Render(nil, outL, outR, n)
			samples = appendInterleaved(samples, outL, outR, n)
			framesRendered += n

			if framesRendered >= minFrames {
				if audiofile.StereoRMS(samples[len(samples)-n*2:]) < thresholdLin {
					belowCount++
					if belowCount >= *decayHoldBlocks {
						break
					}
				} else {
					belowCount = 0
				}
			}
		}
		totalFrames = framesRendered
		fmt.Printf("Auto-stop at %d frames (%.3fs), threshold %.1f dBFS\n",
			totalFrames, float64(totalFrames)/float64(*sampleRate), *decayDBFS)
	} else {
		for framesRendered < totalFrames {
			n := blockSize
			if framesRendered+n > totalFrames {
				n = totalFrames - framesRendered
			}
			if !noteReleased && framesRendered >= releaseAtFrame {
				engine.NoteOff(*note)
				noteReleased = true
			}
			engine.Render(nil, outL, outR, n)
			samples = appendInterleaved(samples, outL, outR, n)
			framesRendered += n
		}
	}

	if err := audiofile.WriteStereoInterleaved(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, totalFrames)
}

func appendInterleaved(dst []float32, left []float32, right []float32, n int) []float32 {
	for i := 0; i < n; i++ {
		dst = append(dst, left[i], right[i])
	}
	return dst
}
