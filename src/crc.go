package mla

/*-------------------------------------------------------------
 *
 * Purpose:	Bit-level utilities shared by the encoder, the list
 *		decoder and the simulation harness: fixed-width binary
 *		expansion, BPSK mapping, and the CRC append / verify
 *		pair used to screen list candidates.
 *
 *		The CRC here operates on bit slices rather than byte
 *		streams because the codeword alphabet is the single
 *		bit: the divisor is XORed into the message wherever a
 *		leading 1 remains, exactly long division over GF(2).
 *
 *--------------------------------------------------------------*/

/*-------------------------------------------------------------
 *
 * Name:	dec_to_binary
 *
 * Purpose:	Expand an integer into its binary digits, MSB first,
 *		with a fixed width so leading zeros are preserved.
 *
 * Inputs:	input      - value to expand.
 *		bit_number - number of output digits.
 *
 * Returns:	Slice of bit_number values, each 0 or 1.
 *
 *--------------------------------------------------------------*/

func dec_to_binary(input int, bit_number int) []int {
	var output = make([]int, bit_number)
	for i := bit_number - 1; i >= 0; i-- {
		if (input>>i)&1 != 0 {
			output[bit_number-1-i] = 1
		} else {
			output[bit_number-1-i] = 0
		}
	}
	return output
}

/*-------------------------------------------------------------
 *
 * Name:	get_point
 *
 * Purpose:	Expand an n-bit output symbol into its BPSK point,
 *		bit b mapped to 1-2b, MSB first.
 *
 *--------------------------------------------------------------*/

func get_point(output int, n int) []int {
	var bin_output = dec_to_binary(output, n)
	for i := 0; i < n; i++ {
		bin_output[i] = -2*bin_output[i] + 1
	}
	return bin_output
}

// binary sum over GF(2), used by the CRC division sweep.
func bin_sum(i int, j int) int {
	return (i + j) % 2
}

/*-------------------------------------------------------------
 *
 * Name:	crc_calculation
 *
 * Purpose:	Append CRC redundancy to a message.
 *
 * Inputs:	input_data   - information bits.
 *		crc_bits_num - width of the CRC polynomial pattern.
 *			       The redundancy is one bit shorter.
 *		crc_dec      - CRC polynomial as an integer.
 *
 * Returns:	The message extended by crc_bits_num-1 parity bits.
 *
 * Description:	Pads with zeros, then sweeps the polynomial pattern
 *		across every position of the original message that
 *		still holds a 1.  The tail of the working buffer is
 *		the remainder and becomes the appended CRC.
 *
 *--------------------------------------------------------------*/

func crc_calculation(input_data []int, crc_bits_num int, crc_dec int) []int {
	var length = len(input_data)
	var crc = dec_to_binary(crc_dec, crc_bits_num)

	var message = make([]int, length+crc_bits_num-1)
	copy(message, input_data)

	var output_data = make([]int, len(message))
	copy(output_data, message)
	for ii := 0; ii < length; ii++ {
		if output_data[ii] == 1 {
			for jj := 0; jj < crc_bits_num; jj++ {
				output_data[ii+jj] = bin_sum(output_data[ii+jj], crc[jj])
			}
		}
	}

	for ii := length; ii < len(output_data); ii++ {
		message[ii] = output_data[ii]
	}
	return message
}

/*-------------------------------------------------------------
 *
 * Name:	crc_check
 *
 * Purpose:	Verify the CRC of a recovered message.
 *
 * Inputs:	input_data   - information bits followed by CRC bits.
 *		crc_bits_num - width of the CRC polynomial pattern.
 *		crc_dec      - CRC polynomial as an integer.
 *
 * Returns:	true if the XOR division leaves no remainder.
 *
 *--------------------------------------------------------------*/

func crc_check(input_data []int, crc_bits_num int, crc_dec int) bool {
	var crc = dec_to_binary(crc_dec, crc_bits_num)

	var data = make([]int, len(input_data))
	copy(data, input_data)

	for ii := 0; ii <= len(data)-crc_bits_num; ii++ {
		if data[ii] == 1 {
			for jj := 0; jj < crc_bits_num; jj++ {
				data[ii+jj] = bin_sum(data[ii+jj], crc[jj])
			}
		}
	}

	for _, bit := range data {
		if bit != 0 {
			return false
		}
	}
	return true
}
