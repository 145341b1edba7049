package mla

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var canonical_punctured_indices = []int{
	4, 10, 21, 24, 31, 37,
	42, 48, 59, 62, 69, 75,
	80, 86, 97, 100, 107, 113,
	118, 124, 135, 138, 145, 151,
}

func canonical_decoder(t *testing.T, listSize int, stoppingRule byte, maxMetric float64) (*FeedForwardTrellis, *LowRateListDecoder) {
	t.Helper()
	var trellis = canonical_trellis(t)
	return trellis, NewLowRateListDecoder(trellis, listSize, 13, 0x1565, stoppingRule, maxMetric)
}

// transmit encodes a CRC-appended message, passes it through the
// noiseless channel and zeroes the punctured positions, mirroring
// the simulation's transmitter side.
func transmit(t *testing.T, trellis *FeedForwardTrellis, message []int, puncturedIndices []int) []float64 {
	t.Helper()
	var encoded, err = trellis.Encode(message)
	require.NoError(t, err)
	var received, err2 = add_awgn_noise(encoded, puncturedIndices, 0, true, nil)
	require.NoError(t, err2)
	return received
}

// tail_biting_walk recomputes the state path and codeword of the
// message when the register starts preloaded with its own tail, the
// unique tail-biting path carrying these input bits.
func tail_biting_walk(trellis *FeedForwardTrellis, message []int) (path []int, codeword []int) {
	var state = 0
	for _, bit := range message[len(message)-trellis.v:] {
		state = trellis.nextStates[state][bit]
	}

	path = make([]int, 0, len(message)+1)
	path = append(path, state)
	for _, bit := range message {
		codeword = append(codeword, get_point(trellis.outputs[state][bit], trellis.n)...)
		state = trellis.nextStates[state][bit]
		path = append(path, state)
	}
	return path, codeword
}

func Test_decode_rejects_malformed_input(t *testing.T) {
	var _, decoder = canonical_decoder(t, 1024, STOPPING_RULE_MAX_LISTSIZE, 0)

	var _, err = decoder.Decode(make([]float64, 151), nil)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = decoder.Decode(make([]float64, 152), []int{152})
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = decoder.Decode(make([]float64, 152), []int{-1})
	assert.ErrorIs(t, err, ErrMalformedInput)
}

// Noiseless all-zero canonical decode: the transmitted path is the
// all-zero path, trivially tail-biting, found at rank one with
// metric zero.
func Test_decode_noiseless_all_zeros(t *testing.T) {
	var trellis, decoder = canonical_decoder(t, 1e7, STOPPING_RULE_MAX_LISTSIZE, 0)

	var message = crc_calculation(make([]int, 64), 13, 0x1565)
	var received = transmit(t, trellis, message, canonical_punctured_indices)

	var result, err = decoder.Decode(received, canonical_punctured_indices)
	require.NoError(t, err)

	assert.False(t, result.ListSizeExceeded)
	assert.Equal(t, 1, result.ListSize)
	assert.Equal(t, 1, result.TBListSize)
	assert.InDelta(t, 0.0, result.Metric, 1e-12)
	assert.Equal(t, message, result.Message)
	require.Len(t, result.Path, 77)
	for _, state := range result.Path {
		assert.Zero(t, state)
	}
}

// Noiseless random decode.  The encoder starts from the zero state,
// so the transmitted path is generally not tail-biting; the decoder
// recovers the same input bits through the tail-biting path that
// starts preloaded with the message tail, whose metric differs from
// zero only over the first v stages.
func Test_decode_noiseless_random_message(t *testing.T) {
	var trellis, decoder = canonical_decoder(t, 1e7, STOPPING_RULE_MAX_LISTSIZE, 0)

	var rng = rand.New(rand.NewSource(42))
	var message = make([]int, 64)
	for i := range message {
		message[i] = rng.Intn(2)
	}
	var appended = crc_calculation(message, 13, 0x1565)
	var received = transmit(t, trellis, appended, canonical_punctured_indices)

	var result, err = decoder.Decode(received, canonical_punctured_indices)
	require.NoError(t, err)

	require.False(t, result.ListSizeExceeded)
	assert.Equal(t, appended, result.Message)
	require.Len(t, result.Path, 77)
	assert.Equal(t, result.Path[0], result.Path[76])

	var tbPath, tbCodeword = tail_biting_walk(trellis, appended)
	assert.Equal(t, tbPath, result.Path)
	assert.Equal(t, tbCodeword, decoder.pathToCodeword(result.Path))
	assert.InDelta(t, sum_of_squares(received, tbCodeword, canonical_punctured_indices), result.Metric, 1e-9)
}

// One non-punctured symbol flipped from +1 to -1 costs the true path
// a squared distance of exactly 4.
func Test_decode_single_symbol_flip(t *testing.T) {
	var trellis, decoder = canonical_decoder(t, 1e7, STOPPING_RULE_MAX_LISTSIZE, 0)

	var message = crc_calculation(make([]int, 64), 13, 0x1565)
	var received = transmit(t, trellis, message, canonical_punctured_indices)
	received[0] = -1

	var result, err = decoder.Decode(received, canonical_punctured_indices)
	require.NoError(t, err)

	assert.False(t, result.ListSizeExceeded)
	assert.GreaterOrEqual(t, result.ListSize, 1)
	assert.InDelta(t, 4.0, result.Metric, 1e-9)
	assert.Equal(t, message, result.Message)
}

// A message whose CRC tail is nonzero ends the zero-start encoder
// away from state zero, so the rank-one (metric zero) candidate is
// not tail-biting and must be rejected before the tail-biting path
// with the same input bits is accepted.
func Test_decode_rejects_non_tail_biting_rank_one(t *testing.T) {
	var trellis, decoder = canonical_decoder(t, 1e7, STOPPING_RULE_MAX_LISTSIZE, 0)

	var message = make([]int, 64)
	message[63] = 1
	var appended = crc_calculation(message, 13, 0x1565)

	var tail_state = 0
	for _, bit := range appended[len(appended)-8:] {
		tail_state = trellis.nextStates[tail_state][bit]
	}
	require.NotZero(t, tail_state, "test premise: the encoder must end away from state zero")

	var received = transmit(t, trellis, appended, canonical_punctured_indices)
	var result, err = decoder.Decode(received, canonical_punctured_indices)
	require.NoError(t, err)

	require.False(t, result.ListSizeExceeded)
	assert.GreaterOrEqual(t, result.ListSize, 2)
	assert.Equal(t, result.Path[0], result.Path[76])
	assert.Equal(t, appended, result.Message)
}

// Zero-weight puncturing and zeroed received samples must agree:
// with the punctured entries zeroed, dropping the puncture set only
// shifts every path metric by one per punctured position, leaving
// the enumeration order untouched.
func Test_decode_puncture_equivalence(t *testing.T) {
	var trellis, decoder = canonical_decoder(t, 1e7, STOPPING_RULE_MAX_LISTSIZE, 0)

	var rng = rand.New(rand.NewSource(7))
	var message = make([]int, 64)
	for i := range message {
		message[i] = rng.Intn(2)
	}
	var appended = crc_calculation(message, 13, 0x1565)
	var received = transmit(t, trellis, appended, canonical_punctured_indices)

	var punctured, err = decoder.Decode(received, canonical_punctured_indices)
	require.NoError(t, err)
	unpunctured, err := decoder.Decode(received, nil)
	require.NoError(t, err)

	require.False(t, punctured.ListSizeExceeded)
	require.False(t, unpunctured.ListSizeExceeded)
	assert.Equal(t, punctured.Message, unpunctured.Message)
	assert.Equal(t, punctured.Path, unpunctured.Path)
	assert.Equal(t, punctured.ListSize, unpunctured.ListSize)
	assert.Equal(t, punctured.TBListSize, unpunctured.TBListSize)
	assert.InDelta(t, punctured.Metric+float64(len(canonical_punctured_indices)), unpunctured.Metric, 1e-9)
}

// The metric-threshold stopping rule gives up as soon as the
// cheapest remaining candidate is already over budget.
func Test_decode_max_metric_stopping_rule(t *testing.T) {
	var trellis, strict = canonical_decoder(t, 1e7, STOPPING_RULE_MAX_METRIC, 0.5)

	var message = crc_calculation(make([]int, 64), 13, 0x1565)
	var received = transmit(t, trellis, message, canonical_punctured_indices)
	received[0] = -1 // best candidate now costs 4, over the 0.5 budget

	var result, err = strict.Decode(received, canonical_punctured_indices)
	require.NoError(t, err)
	assert.True(t, result.ListSizeExceeded)

	// The stock 84.5 threshold accepts the same vector.
	var generous = NewLowRateListDecoder(trellis, 1e7, 13, 0x1565, STOPPING_RULE_MAX_METRIC, 84.5)
	result, err = generous.Decode(received, canonical_punctured_indices)
	require.NoError(t, err)
	assert.False(t, result.ListSizeExceeded)
	assert.InDelta(t, 4.0, result.Metric, 1e-9)
}

// Popped metrics are non-decreasing and every reconstructed path is
// a legal trellis walk, under noise heavy enough to force a long
// enumeration.
func Test_decode_enumeration_properties(t *testing.T) {
	var trellis, decoder = canonical_decoder(t, 500, STOPPING_RULE_MAX_LISTSIZE, 0)

	var rng = rand.New(rand.NewSource(1234))
	var message = make([]int, 64)
	for i := range message {
		message[i] = rng.Intn(2)
	}
	var appended = crc_calculation(message, 13, 0x1565)
	var encoded, err = trellis.Encode(appended)
	require.NoError(t, err)
	var noisy = add_noise(encoded, 1.0, rng)
	received, err := add_awgn_noise_passthrough(noisy, canonical_punctured_indices)
	require.NoError(t, err)

	var popped []float64
	decoder.popped_metric_hook = func(metric float64) {
		popped = append(popped, metric)
	}
	var enumerated = 0
	decoder.enumerated_path_hook = func(path []int, metric float64) {
		enumerated++
		require.Len(t, path, 77)
		for stage := 0; stage < len(path)-1; stage++ {
			var legal = false
			for input := 0; input < trellis.numInputSymbols; input++ {
				if trellis.nextStates[path[stage]][input] == path[stage+1] {
					legal = true
				}
			}
			require.True(t, legal, "illegal transition %d -> %d at stage %d", path[stage], path[stage+1], stage)
		}
	}

	var result, err2 = decoder.Decode(received, canonical_punctured_indices)
	require.NoError(t, err2)

	require.NotEmpty(t, popped)
	for i := 1; i < len(popped); i++ {
		assert.GreaterOrEqual(t, popped[i], popped[i-1], "pop %d", i)
	}
	if !result.ListSizeExceeded {
		assert.Equal(t, result.ListSize, enumerated)
	}
}

// zero the punctured entries of an already-noisy vector.
func add_awgn_noise_passthrough(received []float64, puncturedIndices []int) ([]float64, error) {
	var out = make([]float64, len(received))
	copy(out, received)
	for _, index := range puncturedIndices {
		if index < 0 || index >= len(out) {
			return nil, ErrMalformedInput
		}
		out[index] = 0
	}
	return out, nil
}

// Forward-sweep metrics must equal the true minimum path cost at
// every node.  Checked exhaustively on the classic (7,5) memory-2
// code, where all paths can be enumerated by hand.
func Test_forward_sweep_grid_matches_brute_force(t *testing.T) {
	var trellis, err = NewFeedForwardTrellis(1, 2, 2, []int{7, 5})
	require.NoError(t, err)
	var decoder = NewLowRateListDecoder(trellis, 100, 4, 0xB, STOPPING_RULE_MAX_LISTSIZE, 0)

	var received = []float64{0.9, -1.1, 0.3, -0.2, -0.8, 1.4, 1.0, 0.1}
	var punctured = []int{3}

	var grid = decoder.constructLowRateTrellisPunctured(received, punctured)
	var stages = len(received)/2 + 1

	// Brute force over every start state and input sequence.
	var best = make([][]float64, trellis.numStates)
	for state := range best {
		best[state] = make([]float64, stages)
		for stage := 1; stage < stages; stage++ {
			best[state][stage] = 1e18
		}
	}
	for start := 0; start < trellis.numStates; start++ {
		for inputs := 0; inputs < 1<<(stages-1); inputs++ {
			var state = start
			var metric = 0.0
			for stage := 0; stage < stages-1; stage++ {
				var bit = (inputs >> stage) & 1
				var point = get_point(trellis.outputs[state][bit], 2)
				for i := 0; i < 2; i++ {
					var index = 2*stage + i
					if index == 3 {
						continue // punctured
					}
					var diff = received[index] - float64(point[i])
					metric += diff * diff
				}
				state = trellis.nextStates[state][bit]
				if metric < best[state][stage+1] {
					best[state][stage+1] = metric
				}
			}
		}
	}

	for state := 0; state < trellis.numStates; state++ {
		for stage := 1; stage < stages; stage++ {
			require.True(t, grid[state][stage].init)
			assert.InDelta(t, best[state][stage], grid[state][stage].pathMetric, 1e-9, "state %d stage %d", state, stage)
			if grid[state][stage].suboptimalFatherState != -1 {
				assert.LessOrEqual(t, grid[state][stage].pathMetric, grid[state][stage].suboptimalPathMetric)
			}
		}
	}
}

// Noiseless decodes of arbitrary messages terminate with a
// tail-biting, CRC-valid candidate no worse than the tail-biting
// re-encoding of the transmitted bits.
func Test_decode_noiseless_roundtrip_property(t *testing.T) {
	var trellis, decoder = canonical_decoder(t, 1e7, STOPPING_RULE_MAX_LISTSIZE, 0)

	rapid.Check(t, func(t *rapid.T) {
		var message = make([]int, 64)
		for i := range message {
			message[i] = rapid.IntRange(0, 1).Draw(t, "bit")
		}
		var appended = crc_calculation(message, 13, 0x1565)
		var encoded, err = trellis.Encode(appended)
		require.NoError(t, err)
		var received = make([]float64, len(encoded))
		for i, symbol := range encoded {
			received[i] = float64(symbol)
		}

		var result, err2 = decoder.Decode(received, nil)
		require.NoError(t, err2)

		require.False(t, result.ListSizeExceeded)
		assert.Equal(t, result.Path[0], result.Path[76])
		assert.True(t, crc_check(result.Message, 13, 0x1565))

		var _, tbCodeword = tail_biting_walk(trellis, appended)
		var bound = sum_of_squares(received, tbCodeword, nil)
		assert.LessOrEqual(t, result.Metric, bound+1e-9)
	})
}
