package keycraft

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// SearchParams configures the replica ladder and epoch loop.
type SearchParams struct {
	NumThreads             int
	TMin                   float64
	TMax                   float64
	SearchEpochs           int
	SearchSteps            int
	SearchPatience         int
	SearchPatienceThreshold float64
	OptLimitFast           int
	OptLimitSlow           int
}

// OptimizationOptions bundles a run's tunables: the ladder parameters, the
// pin string, an optional wall-clock budget, and an optional seed
// population used both to seed the gene pool and, round-robin, as initial
// replica states.
type OptimizationOptions struct {
	Params            SearchParams
	PinnedKeys        string
	MaxTime           time.Duration
	InitialPopulation []Layout
}

// OptimizationResult is the best layout observed across the whole run.
type OptimizationResult struct {
	Score  float64
	Layout Layout
}

// ProgressCallback is invoked at roughly one-second cadence with the
// current epoch, the best score seen so far, the best layout, and a
// throughput estimate in millions of steps per second. Returning false
// requests early termination; the run still returns its best-so-far result.
type ProgressCallback func(epoch int, score float64, bestLayout Layout, stepsPerSecMillions float64) bool

// Optimizer runs the parallel-tempering search described by Options
// against a fixed set of cost tables.
type Optimizer struct {
	Tables   *Tables
	Options  OptimizationOptions
	Tiers    CharTiers
	Critical []CriticalBigram
	Logger   *OptimizerLogger
}

// NewOptimizer builds an Optimizer over a fixed cost-table set.
func NewOptimizer(t *Tables, opts OptimizationOptions, tiers CharTiers, critical []CriticalBigram) *Optimizer {
	return &Optimizer{Tables: t, Options: opts, Tiers: tiers, Critical: critical}
}

type genePoolEntry struct {
	score  float64
	layout Layout
}

// Run executes the replica ladder until search_epochs elapses, the
// patience counter saturates, the wall-clock budget expires, or the
// progress callback asks to stop.
func (o *Optimizer) Run(seed int64, callback ProgressCallback) OptimizationResult {
	p := o.Options.Params
	n := p.NumThreads
	if n < 1 {
		n = 1
	}

	replicas := make([]*Replica, n)
	for i := 0; i < n; i++ {
		progress := 0.0
		if n > 1 {
			progress = float64(i) / float64(n-1)
		}
		temp := p.TMin * math.Pow(p.TMax/p.TMin, progress)

		r, err := NewReplica(o.Tables, temp, seed+int64(i), p.OptLimitFast, p.OptLimitSlow, o.Options.PinnedKeys, o.Tiers, o.Critical)
		if err != nil {
			continue
		}

		if len(o.Options.InitialPopulation) > 0 {
			layout := o.Options.InitialPopulation[i%len(o.Options.InitialPopulation)]
			if len(layout) == o.Tables.KeyCount {
				r.Inject(layout)
			}
		}

		replicas[i] = r
	}

	globalBestScore := math.Inf(1)
	var globalBestLayout Layout
	genePool := o.seedGenePool()

	rng := rand.New(rand.NewSource(seed + 9999))

	patienceCounter := 0
	localBestScore := math.Inf(1)
	lastReport := time.Now()
	stepsSinceReport := 0
	startTime := time.Now()

	if o.Logger != nil {
		o.Logger.LogStart(p, seed, o.Tables.KeyCount)
	}

	epoch := 0
	for ; epoch < p.SearchEpochs; epoch++ {
		if o.Options.MaxTime > 0 && time.Since(startTime) >= o.Options.MaxTime {
			break
		}

		stepsThisEpoch, err := o.evolveAll(replicas, p.SearchSteps)
		if err != nil {
			break
		}
		stepsSinceReport += stepsThisEpoch

		tryTempering(replicas, rng, o.Logger)

		if epoch > 0 && epoch%50 == 0 {
			o.performCrossover(replicas, genePool, rng, epoch)
		}

		improved := false
		for _, r := range replicas {
			if r == nil {
				continue
			}
			if r.Score < localBestScore-p.SearchPatienceThreshold {
				localBestScore = r.Score
				improved = true
			}
			if r.Score < globalBestScore {
				globalBestScore = r.Score
				globalBestLayout = r.Layout.Clone()
			}
			if r.Score < globalBestScore*1.5 && !genePoolHas(genePool, r.Layout) {
				genePool = append(genePool, genePoolEntry{r.Score, r.Layout.Clone()})
			}
		}

		sort.Slice(genePool, func(i, j int) bool { return genePool[i].score < genePool[j].score })
		if len(genePool) > 20 {
			genePool = genePool[:20]
		}

		if improved {
			patienceCounter = 0
		} else {
			patienceCounter++
		}
		if patienceCounter >= p.SearchPatience {
			break
		}

		now := time.Now()
		elapsed := now.Sub(lastReport).Seconds()
		if elapsed >= 1.0 {
			ips := float64(stepsSinceReport) / elapsed / 1_000_000.0
			if o.Logger != nil {
				o.Logger.LogProgress(epoch, globalBestScore, ips, o.Tables.Geometry, globalBestLayout)
			}
			if callback != nil && !callback(epoch, globalBestScore, globalBestLayout, ips) {
				break
			}
			lastReport = now
			stepsSinceReport = 0
		}
	}

	result := OptimizationResult{Score: globalBestScore, Layout: globalBestLayout}
	if o.Logger != nil {
		o.Logger.LogEnd(result, epoch, time.Since(startTime), o.Tables.Geometry)
	}
	return result
}

// evolveAll runs every replica's Evolve concurrently, scaling the step
// count by a temperature-dependent multiplier: replicas above T=50 take 2.5x
// and those above T=5 take 1.5x the base steps, so hot replicas, which run
// at the fast trigram limit, take more steps per epoch than cold ones.
func (o *Optimizer) evolveAll(replicas []*Replica, baseSteps int) (int, error) {
	var g errgroup.Group
	totals := make([]int, len(replicas))

	for i, r := range replicas {
		if r == nil {
			continue
		}
		i, r := i, r
		g.Go(func() error {
			multiplier := 1.0
			switch {
			case r.Temperature > 50:
				multiplier = 2.5
			case r.Temperature > 5:
				multiplier = 1.5
			}
			steps := int(float64(baseSteps) * multiplier)
			r.Evolve(steps)
			totals[i] = steps
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	sum := 0
	for _, s := range totals {
		sum += s
	}
	return sum, nil
}

// tryTempering sweeps adjacent replicas from hottest to coldest, swapping
// full state whenever the parallel-tempering acceptance test passes.
func tryTempering(replicas []*Replica, rng *rand.Rand, logger *OptimizerLogger) {
	if len(replicas) < 2 {
		return
	}
	for i := len(replicas) - 2; i >= 0; i-- {
		r1, r2 := replicas[i], replicas[i+1]
		if r1 == nil || r2 == nil {
			continue
		}
		deltaBeta := 1/r1.Temperature - 1/r2.Temperature
		deltaE := r2.Score - r1.Score
		if rng.Float64() < math.Exp(-deltaBeta*deltaE) {
			r1.Layout, r2.Layout = r2.Layout, r1.Layout
			r1.PosMap, r2.PosMap = r2.PosMap, r1.PosMap
			r1.Score, r2.Score = r2.Score, r1.Score
			r1.LeftLoad, r2.LeftLoad = r2.LeftLoad, r1.LeftLoad
			r1.TotalFreq, r2.TotalFreq = r2.TotalFreq, r1.TotalFreq
			r1.MutationWeights, r2.MutationWeights = r2.MutationWeights, r1.MutationWeights
			r1.TotalWeight, r2.TotalWeight = r2.TotalWeight, r1.TotalWeight
			if logger != nil {
				logger.LogTempering(i, r1.Temperature, r2.Temperature)
			}
		}
	}
}

func (o *Optimizer) seedGenePool() []genePoolEntry {
	pool := make([]genePoolEntry, 0, len(o.Options.InitialPopulation))
	for _, layout := range o.Options.InitialPopulation {
		if len(layout) != o.Tables.KeyCount {
			continue
		}
		pm := BuildPosMap(layout)
		score, left, total := ScoreFullDetailed(o.Tables, pm, o.Options.Params.OptLimitSlow)
		score += ImbalancePenalty(o.Tables.Weights, left, total)
		pool = append(pool, genePoolEntry{score, layout.Clone()})
	}
	return pool
}

func genePoolHas(pool []genePoolEntry, layout Layout) bool {
	for _, e := range pool {
		if layoutsEqual(e.layout, layout) {
			return true
		}
	}
	return false
}

func layoutsEqual(a, b Layout) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// performCrossover draws a parent from the gene pool's top five and a
// second from the whole pool, applies uniform crossover honoring pins, and
// injects the child into a randomly chosen replica other than the coldest.
func (o *Optimizer) performCrossover(replicas []*Replica, genePool []genePoolEntry, rng *rand.Rand, epoch int) {
	if len(genePool) < 2 || len(replicas) <= 1 {
		return
	}

	topN := len(genePool)
	if topN > 5 {
		topN = 5
	}
	p1 := genePool[rng.Intn(topN)].layout
	p2 := genePool[rng.Intn(len(genePool))].layout

	pins, err := ParsePins(o.Options.PinnedKeys)
	if err != nil {
		pins = nil
	}

	child := CrossoverUniform(p1, p2, pins, rng)

	targetIdx := 1 + rng.Intn(len(replicas)-1)
	if replicas[targetIdx] != nil {
		replicas[targetIdx].Inject(child)
		if o.Logger != nil {
			o.Logger.LogCrossover(epoch, targetIdx)
		}
	}
}
