package common

// Rand is a small linear-congruential generator. The game reseeds it on
// every return to the initial phase so per-session randomness (map
// selection) differs across sessions but stays reproducible within one.
type Rand struct {
	state uint64
}

// LCG parameters from Knuth's MMIX.
const (
	lcgMul = 6364136223846793005
	lcgInc = 1442695040888963407
)

// NewRand returns a generator seeded with seed.
func NewRand(seed int64) *Rand {
	r := &Rand{}
	r.Seed(seed)
	return r
}

// Seed resets the generator state.
func (r *Rand) Seed(seed int64) {
	r.state = uint64(seed)
	// Avoid the all-zero fixed point producing a weak first draw.
	r.Uint64()
}

// Uint64 advances the generator and returns the next value.
func (r *Rand) Uint64() uint64 {
	r.state = r.state*lcgMul + lcgInc
	return r.state
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		panic("common: Intn with non-positive n")
	}
	return int(r.Uint64() >> 1 % uint64(n))
}

// Float64 returns a value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}
