package swatch

import (
	"math"
	"sort"
)

// DefaultHueWeight scales the hue penalty of DefaultMetric. A fully saturated,
// mid-lightness pair of opposite hues gets DefaultHueWeight/2 added to its
// Lab distance.
const DefaultHueWeight = 40.0

// DefaultMetric is the metric used by the package-level distance functions.
var DefaultMetric = Metric{HueWeight: DefaultHueWeight}

// Metric computes perceptual distances. The zero value is plain CIE76 Lab
// distance without hue penalty.
type Metric struct {
	// HueWeight scales the circular hue penalty. Zero disables it.
	HueWeight float64
}

// Distance returns DefaultMetric.Distance(a, b).
func Distance(a, b Color) float64 {
	return DefaultMetric.Distance(a, b)
}

// FingerprintDistance returns DefaultMetric.FingerprintDistance(a, b).
func FingerprintDistance(a, b Fingerprint) float64 {
	return DefaultMetric.FingerprintDistance(a, b)
}

// LabDistance is the CIE76 delta E between a and b.
func LabDistance(a, b Color) float64 {
	l1, a1, b1 := a.Lab()
	l2, a2, b2 := b.Lab()
	return math.Sqrt(sq(l1-l2) + sq(a1-a2) + sq(b1-b2))
}

// HuePenalty grows with the circular hue difference of a and b and vanishes
// when either color is gray, very dark or very light.
func (m Metric) HuePenalty(a, b Color) float64 {
	if m.HueWeight == 0 {
		return 0
	}

	h1, s1 := hueAndStability(a)
	h2, s2 := hueAndStability(b)

	d := math.Abs(h1 - h2)
	d = math.Min(d, 1-d)

	return m.HueWeight * d * math.Min(s1, s2)
}

// Distance is LabDistance plus HuePenalty. It is symmetric and zero for
// identical colors.
func (m Metric) Distance(a, b Color) float64 {
	if a == b {
		return 0
	}
	return LabDistance(a, b) + m.HuePenalty(a, b)
}

// hueAndStability returns the hue in [0, 1) and the HSL chroma in [0, 1].
// Chroma is saturation scaled by 1-|2L-1|, so it drops to zero for grays and
// near black or white, where hue is not perceived.
func hueAndStability(c Color) (float64, float64) {
	h, s, l := c.colorful().Hsl()
	return h / 360.0, s * (1 - math.Abs(2*l-1))
}

type colorPair struct {
	a, b Color
}

func newColorPair(a, b Color) colorPair {
	if b.Less(a) {
		a, b = b, a
	}
	return colorPair{a: a, b: b}
}

type term struct {
	d, w float64
}

// pairDistances memoizes Distance for the duration of a single
// FingerprintDistance call.
type pairDistances struct {
	m    Metric
	memo map[colorPair]float64
}

func (p *pairDistances) get(a, b Color) float64 {
	k := newColorPair(a, b)
	if d, ok := p.memo[k]; ok {
		return d
	}
	d := p.m.Distance(a, b)
	p.memo[k] = d
	return d
}

// normalized divides every weight by the largest weight of f. A fingerprint
// whose largest weight is zero yields all zeros.
func normalized(f Fingerprint) []float64 {
	maxW := 0.0
	for _, wc := range f {
		maxW = math.Max(maxW, wc.Weight)
	}

	out := make([]float64, len(f))
	if maxW == 0 {
		return out
	}
	for i, wc := range f {
		out[i] = wc.Weight / maxW
	}
	return out
}

// cross is the weighted mean pair distance divided by |a|·|b|. Pairs are
// weighted by the geometric mean of their normalized weights. When the total
// weight is zero the result is 0.
func (p *pairDistances) cross(a, b Fingerprint) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	na, nb := normalized(a), normalized(b)

	terms := make([]term, 0, len(a)*len(b))
	for i := range a {
		for j := range b {
			terms = append(terms, term{
				d: p.get(a[i].Color, b[j].Color),
				w: math.Sqrt(na[i] * nb[j]),
			})
		}
	}

	// Summing in a fixed order keeps cross(a, b) == cross(b, a) bit for bit.
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].d != terms[j].d {
			return terms[i].d < terms[j].d
		}
		return terms[i].w < terms[j].w
	})

	var weighted, total float64
	for _, t := range terms {
		weighted += t.d * t.w
		total += t.w
	}
	if total == 0 {
		return 0
	}

	return weighted / total / float64(len(a)*len(b))
}

// FingerprintDistance compares two fingerprints: the mean pair distance,
// weighted by the geometric mean of the normalized weights, divided by
// |a|·|b|. Fingerprints holding the same colors with the same normalized
// weights are at distance 0. Lower is more similar; there is no upper bound.
func (m Metric) FingerprintDistance(a, b Fingerprint) float64 {
	if sameShape(a, b) {
		return 0
	}

	p := &pairDistances{m: m, memo: make(map[colorPair]float64, len(a)*len(b))}
	return p.cross(a, b)
}

type shapeEntry struct {
	c Color
	n float64
}

// sameShape reports whether a and b hold the same colors with the same
// normalized weights, in any order.
func sameShape(a, b Fingerprint) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}

	ea, eb := shape(a), shape(b)
	for i := range ea {
		if ea[i] != eb[i] {
			return false
		}
	}
	return true
}

func shape(f Fingerprint) []shapeEntry {
	n := normalized(f)
	out := make([]shapeEntry, len(f))
	for i, wc := range f {
		out[i] = shapeEntry{c: wc.Color, n: n[i]}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].c != out[j].c {
			return out[i].c.Less(out[j].c)
		}
		return out[i].n < out[j].n
	})
	return out
}

func sq(v float64) float64 {
	return v * v
}
