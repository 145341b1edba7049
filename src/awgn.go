package mla

/*-------------------------------------------------------------
 *
 * Purpose:	AWGN channel model for the simulation harness.
 *
 *		The decoder itself is deterministic; all randomness
 *		lives here, drawn from a caller-owned source so a run
 *		is reproducible from its seed.
 *
 *--------------------------------------------------------------*/

import (
	"math"
	"math/rand"
)

/*-------------------------------------------------------------
 *
 * Name:	add_noise
 *
 * Purpose:	Add i.i.d. Gaussian noise to a BPSK word.
 *
 * Inputs:	encoded - BPSK symbols, each +1 or -1.
 *		snr     - signal-to-noise ratio in dB; the noise
 *			  variance is 10^(-snr/10).
 *		rng     - noise source.
 *
 * Returns:	Real-valued vector of the same length.
 *
 *--------------------------------------------------------------*/

func add_noise(encoded []int, snr float64, rng *rand.Rand) []float64 {
	var variance = math.Pow(10.0, -snr/10.0)
	var sigma = math.Sqrt(variance)

	var noisy = make([]float64, len(encoded))
	for i, symbol := range encoded {
		noisy[i] = float64(symbol) + sigma*rng.NormFloat64()
	}
	return noisy
}
