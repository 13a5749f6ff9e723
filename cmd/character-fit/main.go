package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/cwbudde/mayfly"

	"github.com/carstenbund/ModalEffect/analysis"
	"github.com/carstenbund/ModalEffect/internal/audiofile"
	"github.com/carstenbund/ModalEffect/modal"
)

type fitReport struct {
	Note       int                `json:"note"`
	Velocity   int                `json:"velocity"`
	SampleRate int                `json:"sample_rate"`
	Evals      int                `json:"evals"`
	ElapsedS   float64            `json:"elapsed_s"`
	Score      float64            `json:"score"`
	Similarity float64            `json:"similarity"`
	Knobs      map[string]float64 `json:"knobs"`

	FreqMult             []float32 `json:"freq_mult"`
	Damping              []float32 `json:"damping"`
	Weight               []float32 `json:"weight"`
	PokeStrength         float32   `json:"poke_strength"`
	PokeDurationMS       float32   `json:"poke_duration_ms"`
	CouplingResponseGain float32   `json:"coupling_gain"`
}

func main() {
	refPath := flag.String("reference", "", "Reference WAV recording to match (required)")
	note := flag.Int("note", 69, "MIDI note rendered for each evaluation")
	velocity := flag.Int("velocity", 100, "MIDI velocity (0-127)")
	releaseAfter := flag.Float64("release-after", 0.3, "Send NoteOff after this many seconds")
	maxDuration := flag.Float64("max-duration", 4.0, "Maximum evaluation render duration in seconds")
	sampleRate := flag.Int("sample-rate", 24000, "Evaluation sample rate; the reference is resampled to match")
	maxEvals := flag.Int("evals", 400, "Evaluation budget")
	pop := flag.Int("pop", 20, "Mayfly population size per sex")
	variant := flag.String("variant", "ma", "Mayfly variant: ma, desma, olce, eobbma, gsasma, mpma, aoblmoa")
	seedCharacter := flag.Int("seed-character", modal.CharResonantBell, "Builtin character id used as the starting point")
	seed := flag.Int64("seed", 42, "Random seed")
	output := flag.String("output", "character.json", "Output report path")
	outputWAV := flag.String("output-wav", "", "Optional WAV render of the best candidate")
	flag.Parse()

	if *refPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -reference is required")
		flag.Usage()
		os.Exit(1)
	}
	if *velocity < 1 {
		*velocity = 1
	}
	if *velocity > 127 {
		*velocity = 127
	}

	refRaw, refRate, err := audiofile.ReadMono(*refPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading reference %q: %v\n", *refPath, err)
		os.Exit(1)
	}
	reference, err := audiofile.ResampleIfNeeded(refRaw, refRate, *sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resampling reference: %v\n", err)
		os.Exit(1)
	}

	defs := knobDefs()
	seedChar := modal.GetCharacter(*seedCharacter)
	if seedChar == nil {
		fmt.Fprintf(os.Stderr, "Error: unknown seed character id %d\n", *seedCharacter)
		os.Exit(1)
	}

	evaluate := func(cand candidate) (analysis.Metrics, bool) {
		ch := characterFromCandidate(cand)
		if !ch.Validate() {
			return analysis.Metrics{Score: 2.0}, false
		}
		mono := renderCandidate(&ch, *note, *velocity, *sampleRate, *releaseAfter, *maxDuration)
		return analysis.Compare(reference, mono, *sampleRate), true
	}

	start := time.Now()
	best := initialCandidate(defs, seedChar)
	bestMetrics, _ := evaluate(best)
	evals := 1
	fmt.Printf("Start score=%.4f similarity=%.2f%%\n", bestMetrics.Score, bestMetrics.Similarity*100.0)

	cfg, err := newMayflyConfig(*variant, *pop, len(defs))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	iters := (*maxEvals) / (2 * (*pop))
	if iters < 1 {
		iters = 1
	}
	cfg.MaxIterations = iters
	cfg.Rand = rand.New(rand.NewSource(*seed))
	cfg.ObjectiveFunc = func(pos []float64) float64 {
		if evals >= *maxEvals {
			return bestMetrics.Score + 1.0
		}
		evals++
		cand := fromNormalized(pos, defs)
		m, ok := evaluate(cand)
		if ok && m.Score < bestMetrics.Score {
			best = candidate{Vals: append([]float64(nil), cand.Vals...)}
			bestMetrics = m
			fmt.Printf("Improved eval=%d score=%.4f sim=%.2f%%\n", evals, m.Score, m.Similarity*100.0)
		}
		if evals%50 == 0 {
			fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.4f\n",
				evals, *maxEvals, time.Since(start).Seconds(), bestMetrics.Score)
		}
		return m.Score
	}

	if err := runMayfly(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Optimization failed: %v\n", err)
	}

	elapsed := time.Since(start).Seconds()
	fmt.Printf("Done: %d evals in %.1fs, score=%.4f similarity=%.2f%%\n",
		evals, elapsed, bestMetrics.Score, bestMetrics.Similarity*100.0)

	bestChar := characterFromCandidate(best)
	report := &fitReport{
		Note:                 *note,
		Velocity:             *velocity,
		SampleRate:           *sampleRate,
		Evals:                evals,
		ElapsedS:             elapsed,
		Score:                bestMetrics.Score,
		Similarity:           bestMetrics.Similarity,
		Knobs:                make(map[string]float64, len(defs)),
		FreqMult:             bestChar.FreqMult[:],
		Damping:              bestChar.Damping[:],
		Weight:               bestChar.Weight[:],
		PokeStrength:         bestChar.PokeStrength,
		PokeDurationMS:       bestChar.PokeDurationMS,
		CouplingResponseGain: bestChar.CouplingResponseGain,
	}
	for i, d := range defs {
		report.Knobs[d.Name] = best.Vals[i]
	}
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, append(b, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s\n", *output)

	if *outputWAV != "" {
		mono := renderCandidate(&bestChar, *note, *velocity, *sampleRate, *releaseAfter, *maxDuration)
		data := make([]float32, len(mono))
		for i, v := range mono {
			data[i] = float32(v)
		}
		if err := audiofile.WriteMono(*outputWAV, data, *sampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", *outputWAV, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *outputWAV)
	}
}

// renderCandidate plays one note on a single-node engine carrying the
// candidate character and returns the mono render.
func renderCandidate(ch *modal.Character, note int, velocity int, sampleRate int, releaseAfter float64, maxDuration float64) []float64 {
	const blockSize = 256

	engine := modal.NewEngine(1)
	engine.Prepare(float64(sampleRate), blockSize)
	engine.Network().SetNodeCharacterCustom(0, ch)
	engine.NoteOn(note, float32(velocity)/127.0, 0)

	maxFrames := int(float64(sampleRate) * maxDuration)
	if maxFrames < blockSize {
		maxFrames = blockSize
	}
	releaseAtFrame := int(float64(sampleRate) * releaseAfter)
	if releaseAtFrame < 0 {
		releaseAtFrame = 0
	}

	outL := make([]float32, blockSize)
	outR := make([]float32, blockSize)
	mono := make([]float64, 0, maxFrames)
	framesRendered := 0
	noteReleased := false

	for framesRendered < maxFrames {
		n := blockSize
		if framesRendered+n > maxFrames {
			n = maxFrames - framesRendered
		}
		if !noteReleased && framesRendered >= releaseAtFrame {
			engine.NoteOff(note)
			noteReleased = true
		}
		engine.Render(nil, outL, outR, n)
		for i := 0; i < n; i++ {
			mono = append(mono, 0.5*(float64(outL[i])+float64(outR[i])))
		}
		framesRendered += n
	}
	return mono
}

func newMayflyConfig(variant string, pop int, dims int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	nm := int(math.Round(0.05 * float64(pop)))
	if nm < 1 {
		nm = 1
	}
	cfg.NM = nm
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	_, err = mayfly.Optimize(cfg)
	return err
}
