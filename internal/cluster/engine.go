package cluster

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kekzl/mailcow-ai-filter/internal/core"
)

// Params holds the density clustering tuning knobs
type Params struct {
	MinClusterSize     int
	MinSamples         int
	MinSummaries       int
	MaxRepresentatives int
	EpsQuantile        float64
}

// DefaultParams returns the parameter set used when no configuration
// overrides are present.
func DefaultParams() Params {
	return Params{
		MinClusterSize:     5,
		MinSamples:         3,
		MinSummaries:       10,
		MaxRepresentatives: 3,
		EpsQuantile:        0.9,
	}
}

// Engine represents a density-based clustering engine over embedding
// vectors. It discovers the number of clusters from the data and assigns
// every vector to exactly one cluster, with sparse vectors collected into
// the reserved noise cluster.
type Engine struct {
	params Params
	logger *zap.Logger
}

// NewEngine creates a new clustering engine
func NewEngine(params Params, logger *zap.Logger) *Engine {
	if params.MinClusterSize <= 0 {
		params.MinClusterSize = 5
	}
	if params.MinSamples <= 0 {
		params.MinSamples = 3
	}
	if params.MinSummaries <= 0 {
		params.MinSummaries = 10
	}
	if params.MaxRepresentatives < 3 {
		params.MaxRepresentatives = 3
	}
	if params.MaxRepresentatives > 5 {
		params.MaxRepresentatives = 5
	}
	if params.EpsQuantile <= 0 || params.EpsQuantile >= 1 {
		params.EpsQuantile = 0.9
	}
	return &Engine{params: params, logger: logger}
}

// Cluster groups the vectors by density and returns the clusters plus the
// noise cluster, which is always present (possibly empty). Cluster member
// indices refer back to positions in the input slice and together form an
// exact partition of it. Returns core.ErrInsufficientData when there are
// too few vectors to cluster meaningfully.
func (e *Engine) Cluster(vectors [][]float32) ([]core.Cluster, error) {
	n := len(vectors)
	if n < e.params.MinSummaries {
		return nil, fmt.Errorf("%d vectors, need at least %d: %w",
			n, e.params.MinSummaries, core.ErrInsufficientData)
	}

	points := toFloat64(vectors)
	dist := distanceMatrix(points)
	eps := e.deriveEps(dist)

	e.logger.Debug("Running density clustering",
		zap.Int("vectors", n),
		zap.Float64("eps", eps),
		zap.Int("min_samples", e.params.MinSamples),
		zap.Int("min_cluster_size", e.params.MinClusterSize))

	labels := e.dbscan(dist, eps)
	e.dissolveSmallClusters(labels)

	clusters := e.collect(labels, points, dist)

	realClusters := 0
	noiseCount := 0
	for _, c := range clusters {
		if c.IsNoise() {
			noiseCount = c.Size()
		} else {
			realClusters++
		}
	}
	e.logger.Info("Clustering complete",
		zap.Int("clusters", realClusters),
		zap.Int("noise", noiseCount))

	return clusters, nil
}

// deriveEps picks the neighborhood radius from the data: the configured
// quantile of per-point core distances, where a point's core distance is
// its distance to the MinSamples-th nearest neighbor.
func (e *Engine) deriveEps(dist [][]float64) float64 {
	n := len(dist)
	coreDists := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		neighbors := make([]float64, 0, n-1)
		for j := 0; j < n; j++ {
			if i != j {
				neighbors = append(neighbors, dist[i][j])
			}
		}
		sort.Float64s(neighbors)
		k := e.params.MinSamples - 1
		if k >= len(neighbors) {
			k = len(neighbors) - 1
		}
		coreDists = append(coreDists, neighbors[k])
	}
	sort.Float64s(coreDists)
	return stat.Quantile(e.params.EpsQuantile, stat.Empirical, coreDists, nil)
}

// dbscan assigns a cluster label to every point. Unassigned points keep
// the noise label.
func (e *Engine) dbscan(dist [][]float64, eps float64) []int {
	n := len(dist)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = core.NoiseClusterID
	}
	visited := make([]bool, n)

	nextID := 0
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := neighborsOf(dist, i, eps)
		if len(neighbors) < e.params.MinSamples {
			continue
		}

		labels[i] = nextID
		queue := append([]int(nil), neighbors...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]

			if labels[j] == core.NoiseClusterID {
				labels[j] = nextID
			}
			if visited[j] {
				continue
			}
			visited[j] = true
			labels[j] = nextID

			jNeighbors := neighborsOf(dist, j, eps)
			if len(jNeighbors) >= e.params.MinSamples {
				queue = append(queue, jNeighbors...)
			}
		}
		nextID++
	}
	return labels
}

// dissolveSmallClusters relabels members of clusters below MinClusterSize
// as noise.
func (e *Engine) dissolveSmallClusters(labels []int) {
	sizes := make(map[int]int)
	for _, label := range labels {
		if label != core.NoiseClusterID {
			sizes[label]++
		}
	}
	for i, label := range labels {
		if label != core.NoiseClusterID && sizes[label] < e.params.MinClusterSize {
			labels[i] = core.NoiseClusterID
		}
	}
}

// collect materializes labeled points into cluster values with stable IDs
// (0..k-1 in first-seen order) and centroid-nearest representatives. The
// noise cluster is always included, even when empty.
func (e *Engine) collect(labels []int, points [][]float64, dist [][]float64) []core.Cluster {
	membersByLabel := make(map[int][]int)
	var labelOrder []int
	for i, label := range labels {
		if _, seen := membersByLabel[label]; !seen && label != core.NoiseClusterID {
			labelOrder = append(labelOrder, label)
		}
		membersByLabel[label] = append(membersByLabel[label], i)
	}

	clusters := make([]core.Cluster, 0, len(labelOrder)+1)
	for newID, label := range labelOrder {
		members := membersByLabel[label]
		clusters = append(clusters, core.Cluster{
			ID:              newID,
			Members:         members,
			Representatives: e.representatives(members, points),
		})
	}

	clusters = append(clusters, core.Cluster{
		ID:      core.NoiseClusterID,
		Members: membersByLabel[core.NoiseClusterID],
	})
	return clusters
}

// representatives returns up to MaxRepresentatives member indices nearest
// the cluster centroid.
func (e *Engine) representatives(members []int, points [][]float64) []int {
	if len(members) == 0 {
		return nil
	}
	dims := len(points[members[0]])
	centroid := make([]float64, dims)
	for _, idx := range members {
		floats.Add(centroid, points[idx])
	}
	floats.Scale(1/float64(len(members)), centroid)

	type memberDist struct {
		idx  int
		dist float64
	}
	ranked := make([]memberDist, 0, len(members))
	for _, idx := range members {
		ranked = append(ranked, memberDist{
			idx:  idx,
			dist: floats.Distance(points[idx], centroid, 2),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].dist != ranked[j].dist {
			return ranked[i].dist < ranked[j].dist
		}
		return ranked[i].idx < ranked[j].idx
	})

	count := e.params.MaxRepresentatives
	if count > len(ranked) {
		count = len(ranked)
	}
	reps := make([]int, count)
	for i := 0; i < count; i++ {
		reps[i] = ranked[i].idx
	}
	return reps
}

func neighborsOf(dist [][]float64, i int, eps float64) []int {
	var neighbors []int
	for j := range dist[i] {
		if j != i && dist[i][j] <= eps {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

func distanceMatrix(points [][]float64) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(points[i], points[j], 2)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist
}

func toFloat64(vectors [][]float32) [][]float64 {
	points := make([][]float64, len(vectors))
	for i, v := range vectors {
		points[i] = make([]float64, len(v))
		for j, x := range v {
			points[i][j] = float64(x)
		}
	}
	return points
}
