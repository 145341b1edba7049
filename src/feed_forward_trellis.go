package mla

/*-------------------------------------------------------------
 *
 * Purpose:	Trellis tables for a rate k/n feed-forward
 *		convolutional encoder, plus the encoder itself.
 *
 *		The tables are built once per code and shared,
 *		read-only, by every encode and decode call:
 *
 *		  nextStates[s][f] - state reached from s on input f.
 *		  outputs[s][f]    - n-bit output symbol, packed as an
 *				     integer, emitted on that transition.
 *
 *		A transition concatenates the k input bits above the v
 *		register bits, so with concat = (f << v) | s the new
 *		state is the top v bits and each output bit is the
 *		parity of concat masked by one generator polynomial.
 *
 *--------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidCode reports unusable code parameters, detected when the
// trellis is constructed.
var ErrInvalidCode = errors.New("invalid code parameters")

type FeedForwardTrellis struct {
	k int /* input bits per step */
	n int /* output bits per step */
	v int /* memory elements */

	numInputSymbols  int /* 2^k */
	numOutputSymbols int /* 2^n */
	numStates        int /* 2^v */

	polynomials []int /* generator tap patterns, one per output bit */

	nextStates [][]int
	outputs    [][]int
}

/*-------------------------------------------------------------
 *
 * Name:	octal_to_int
 *
 * Purpose:	Interpret the base-10 digits of a configuration
 *		literal as octal digits.
 *
 *		Generator polynomials are conventionally written in
 *		octal (561, 753) but the configuration carries them
 *		as plain decimal integers.  561 here means 0o561,
 *		i.e. the tap pattern 101110001.
 *
 *--------------------------------------------------------------*/

func octal_to_int(octal int) (int, error) {
	var result = 0
	var shift = 0
	for octal > 0 {
		var digit = octal % 10
		if digit > 7 {
			return 0, fmt.Errorf("%w: polynomial literal %d is not octal", ErrInvalidCode, octal)
		}
		result |= digit << shift
		shift += 3
		octal /= 10
	}
	return result, nil
}

/*-------------------------------------------------------------
 *
 * Name:	NewFeedForwardTrellis
 *
 * Purpose:	Build the next-state and output tables for a code.
 *
 * Inputs:	k           - input bits per step.
 *		n           - output bits per step.
 *		v           - memory elements.
 *		polynomials - one generator per output bit, written
 *			      as octal digits in a decimal literal.
 *
 * Errors:	ErrInvalidCode on nonsense dimensions or a generator
 *		wider than the v+k register window.
 *
 *--------------------------------------------------------------*/

func NewFeedForwardTrellis(k int, n int, v int, polynomials []int) (*FeedForwardTrellis, error) {
	if k <= 0 || n <= 0 || v < 0 {
		return nil, fmt.Errorf("%w: k=%d n=%d v=%d", ErrInvalidCode, k, n, v)
	}
	if len(polynomials) != n {
		return nil, fmt.Errorf("%w: %d generators for %d output bits", ErrInvalidCode, len(polynomials), n)
	}

	var t = &FeedForwardTrellis{
		k:                k,
		n:                n,
		v:                v,
		numInputSymbols:  1 << k,
		numOutputSymbols: 1 << n,
		numStates:        1 << v,
		polynomials:      make([]int, n),
	}

	for i, poly := range polynomials {
		var pattern, err = octal_to_int(poly)
		if err != nil {
			return nil, err
		}
		if bits.Len(uint(pattern)) > v+k {
			return nil, fmt.Errorf("%w: polynomial %d spans %d bits, register window is %d", ErrInvalidCode, poly, bits.Len(uint(pattern)), v+k)
		}
		t.polynomials[i] = pattern
	}

	t.computeNextStates()
	t.computeOutputs()
	return t, nil
}

func (t *FeedForwardTrellis) computeNextStates() {
	t.nextStates = make([][]int, t.numStates)
	for state := 0; state < t.numStates; state++ {
		t.nextStates[state] = make([]int, t.numInputSymbols)
		for input := 0; input < t.numInputSymbols; input++ {
			var concat = (input << t.v) | state
			t.nextStates[state][input] = (concat >> t.k) & (t.numStates - 1)
		}
	}
}

func (t *FeedForwardTrellis) computeOutputs() {
	t.outputs = make([][]int, t.numStates)
	for state := 0; state < t.numStates; state++ {
		t.outputs[state] = make([]int, t.numInputSymbols)
		for input := 0; input < t.numInputSymbols; input++ {
			var concat = (input << t.v) | state
			var symbol = 0
			for _, poly := range t.polynomials {
				symbol = (symbol << 1) | (bits.OnesCount(uint(concat&poly)) & 1)
			}
			t.outputs[state][input] = symbol
		}
	}
}

/*-------------------------------------------------------------
 *
 * Name:	Encode
 *
 * Purpose:	Encode a message, CRC included, into a BPSK stream.
 *
 * Inputs:	message - information plus CRC bits, k per step.
 *
 * Returns:	Symbol stream of n*len(message)/k values, each +1
 *		or -1 (bit b maps to 1-2b).
 *
 * Description:	The walk starts from the all-zero state.  It is not
 *		driven back there afterwards, so the emitted word is
 *		generally not tail-biting.  The tail-biting path that
 *		carries the same input bits differs from the emitted
 *		word only over the first v stages.
 *
 *--------------------------------------------------------------*/

func (t *FeedForwardTrellis) Encode(message []int) ([]int, error) {
	if len(message)%t.k != 0 {
		return nil, fmt.Errorf("%w: message length %d is not a multiple of k=%d", ErrMalformedInput, len(message), t.k)
	}

	var encoded = make([]int, 0, len(message)/t.k*t.n)
	var state = 0

	for i := 0; i < len(message); i += t.k {
		var input = 0
		for j := 0; j < t.k; j++ {
			input = (input << 1) | message[i+j]
		}
		encoded = append(encoded, get_point(t.outputs[state][input], t.n)...)
		state = t.nextStates[state][input]
	}
	return encoded, nil
}
