package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/carstenbund/ModalEffect/internal/audiofile"
	"github.com/carstenbund/ModalEffect/modal"
	"github.com/carstenbund/ModalEffect/preset"
)

func main() {
	input := flag.String("input", "", "Input WAV file path (required)")
	output := flag.String("output", "processed.wav", "Output WAV file path")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	mix := flag.Float64("mix", 0.5, "Dry/wet mix (0 = dry, 1 = wet); overrides the preset")
	excite := flag.Float64("excite", -1, "Excitation sensitivity (0-1); negative leaves the preset value")
	nodes := flag.Int("nodes", modal.DefaultNetworkNodes, "Network node count")
	blockSize := flag.Int("block-size", 256, "Processing block size in frames")
	tailSeconds := flag.Float64("tail", 1.0, "Resonant tail rendered after the input ends, in seconds")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		flag.Usage()
		os.Exit(1)
	}
	if *blockSize < 1 {
		*blockSize = 256
	}

	inL, inR, sampleRate, err := audiofile.ReadStereo(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %q: %v\n", *input, err)
		os.Exit(1)
	}
	if len(inL) == 0 {
		fmt.Fprintf(os.Stderr, "Error: %q contains no audio\n", *input)
		os.Exit(1)
	}

	unit := modal.NewUnit()
	unit.Init(float64(sampleRate), *blockSize, *nodes)
	defer unit.Cleanup()

	if *presetPath != "" {
		if err := preset.LoadJSON(*presetPath, unit.Engine()); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
	}
	unit.SetParameter(modal.ParamMix, float32(*mix))
	if *excite >= 0 {
		unit.SetParameter(modal.ParamExcite, float32(*excite))
	}

	tailFrames := int(float64(sampleRate) * (*tailSeconds))
	if tailFrames < 0 {
		tailFrames = 0
	}
	totalFrames := len(inL) + tailFrames

	fmt.Printf("Processing %d frames at %d Hz (%d nodes, mix %.2f, %d tail frames)...\n",
		len(inL), sampleRate, *nodes, *mix, tailFrames)

	outL := make([]float32, totalFrames)
	outR := make([]float32, totalFrames)
	silence := make([]float32, *blockSize)

	for pos := 0; pos < totalFrames; pos += *blockSize {
		n := *blockSize
		if pos+n > totalFrames {
			n = totalFrames - pos
		}
		blockL, blockR := silence[:n], silence[:n]
		if pos < len(inL) {
			end := pos + n
			if end > len(inL) {
				// Partial block at the input boundary: pad with silence so the
				// tail keeps ringing through Process.
				padL := make([]float32, n)
				padR := make([]float32, n)
				copy(padL, inL[pos:])
				copy(padR, inR[pos:])
				blockL, blockR = padL, padR
			} else {
				blockL, blockR = inL[pos:end], inR[pos:end]
			}
		}
		unit.BeginEvents()
		unit.Process(blockL, blockR, outL[pos:pos+n], outR[pos:pos+n], n)
	}

	if err := audiofile.WriteStereoLR(*output, outL, outR, sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, totalFrames)
}
