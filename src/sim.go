package mla

/*------------------------------------------------------------------
 *
 * Purpose:	Monte-Carlo simulation of the list decoder over an
 *		AWGN channel, reproducing the ISTC 2023 measurement
 *		campaign: for each Eb/N0 point, draw random CRC
 *		messages, encode, transmit, decode, and record the
 *		per-trial metric and list-size statistics used for
 *		the metric/list-size analysis.
 *
 * Outputs:	One directory per Eb/N0 point containing four
 *		line-delimited numeric files:
 *
 *		  transmitted_metric.txt - distance from the received
 *					   vector to the transmitted word.
 *		  decoded_metric.txt     - metric of the decoded word.
 *		  decoded_listsize.txt   - rank of the decoded word.
 *		  decoded_type.txt       - 0 correct, 1 list size
 *					   exceeded, 2 undetected error.
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"
)

// Decode outcome classes recorded in decoded_type.txt.
const (
	DECODE_TYPE_CORRECT  = 0
	DECODE_TYPE_EXCEEDED = 1
	DECODE_TYPE_ERROR    = 2
)

/*------------------------------------------------------------------
 *
 * Name:	MLASimMain
 *
 * Purpose:	Entry point for the mla-sim command.
 *
 *------------------------------------------------------------------*/

func MLASimMain() {
	var configPath = pflag.StringP("config", "c", "", "YAML configuration file.  Defaults reproduce the ISTC 2023 setup.")
	var outputDir = pflag.StringP("output-dir", "o", "", "Directory for result files.  Overrides the configuration.")
	var noiseless = pflag.Bool("noiseless", false, "Disable the AWGN draw.  Punctured positions are still zeroed.")
	var seed = pflag.Int64P("seed", "s", 0, "Base seed for the noise and message source.  Overrides the configuration.")
	var timestampRuns = pflag.BoolP("timestamp-runs", "T", false, "Append an 'strftime' timestamp to each output directory.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Monte-Carlo simulation of the tail-biting CRC-aided list decoder.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Encodes random CRC messages with the configured convolutional code,\n")
		fmt.Fprintf(os.Stderr, "passes them through an AWGN channel, list-decodes, and records the\n")
		fmt.Fprintf(os.Stderr, "metric and list-size statistics per Eb/N0 point.\n")
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	var config = DefaultConfig()
	if *configPath != "" {
		var loaded, err = LoadConfig(*configPath)
		if err != nil {
			log.Fatal("configuration rejected", "err", err)
		}
		config = loaded
	} else if err := config.Validate(); err != nil {
		log.Fatal("default configuration rejected", "err", err)
	}

	if *outputDir != "" {
		config.Simulation.OutputDir = *outputDir
	}
	if *noiseless {
		config.Simulation.Noiseless = true
	}
	if *seed != 0 {
		config.Simulation.BaseSeed = *seed
	}
	if *timestampRuns {
		config.Simulation.TimestampRuns = true
	}

	if err := ISTCSim(config); err != nil {
		log.Fatal("simulation failed", "err", err)
	}
}

/*------------------------------------------------------------------
 *
 * Name:	ISTCSim
 *
 * Purpose:	Run the full measurement campaign described by the
 *		configuration.
 *
 * Description:	The per-point SNR is Eb/N0 shifted by the rate
 *		offset 10*log10((n/k)*numInfoBits/numCodedSymbols).
 *		Each point runs mcIters independent trials from a
 *		deterministic seed, so a campaign is reproducible
 *		bit for bit.
 *
 *------------------------------------------------------------------*/

func ISTCSim(config *Config) error {
	var code = config.Code

	log.Info("code parameters", "k", code.K, "n", code.N, "v", code.V, "crc_degree", code.CRCDeg)

	var trellis, err = NewFeedForwardTrellis(code.K, code.N, code.V, code.Numerators)
	if err != nil {
		return err
	}

	var decoder = NewLowRateListDecoder(trellis, config.Decoder.MaxListSize, code.CRCDeg, code.CRC, config.StoppingRuleByte(), config.Decoder.MaxMetric)

	for _, ebn0 := range config.Simulation.EbN0 {
		if err := istc_sim_point(config, trellis, decoder, ebn0); err != nil {
			return err
		}
	}

	log.Info("simulation concluded")
	return nil
}

func istc_sim_point(config *Config, trellis *FeedForwardTrellis, decoder *LowRateListDecoder, ebn0 float64) error {
	var code = config.Code
	var sim = config.Simulation

	var folder = filepath.Join(sim.OutputDir, fmt.Sprintf("EbN0_%.1f", ebn0))
	if sim.TimestampRuns {
		var stamp, err = strftime.Format(sim.TimestampFormat, time.Now())
		if err != nil {
			return fmt.Errorf("timestamp format %q: %w", sim.TimestampFormat, err)
		}
		folder += "_" + stamp
	}
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return err
	}

	var offset = 10 * math.Log10(float64(code.N)/float64(code.K)*float64(code.NumInfoBits)/float64(config.NumCodedSymbols))
	var snr = ebn0 + offset

	var rng = rand.New(rand.NewSource(sim.BaseSeed))

	var transmittedMetric = make([]float64, sim.MCIters)
	var decodedMetric = make([]float64, sim.MCIters)
	var decodedListSize = make([]int, sim.MCIters)
	var decodedType = make([]int, sim.MCIters)

	log.Info("simulation started", "ebn0", ebn0, "snr", snr, "trials", sim.MCIters)

	var numErrors = 0
	var numListSizeExceeded = 0
	var meanErrorListSize = 0.0

	for trial := 0; trial < sim.MCIters; trial++ {
		if sim.LoggingIters > 0 && trial%sim.LoggingIters == 0 {
			log.Info("progress", "ebn0", ebn0, "trial", trial)
		}

		var originalMessage = generate_random_crc_message(code, rng)
		var transmittedMessage, err = generate_transmitted_message(originalMessage, trellis)
		if err != nil {
			return err
		}
		receivedMessage, err := add_awgn_noise(transmittedMessage, config.PuncturedIndices, snr, sim.Noiseless, rng)
		if err != nil {
			return err
		}

		transmittedMetric[trial] = sum_of_squares(receivedMessage, transmittedMessage, config.PuncturedIndices)

		decoding, err := decoder.Decode(receivedMessage, config.PuncturedIndices)
		if err != nil {
			return err
		}

		switch {
		case equal_int_vectors(decoding.Message, originalMessage):
			decodedType[trial] = DECODE_TYPE_CORRECT
			decodedListSize[trial] = decoding.ListSize
			decodedMetric[trial] = decoding.Metric
		case decoding.ListSizeExceeded:
			decodedType[trial] = DECODE_TYPE_EXCEEDED
			numListSizeExceeded++
		default:
			decodedType[trial] = DECODE_TYPE_ERROR
			decodedListSize[trial] = decoding.ListSize
			decodedMetric[trial] = decoding.Metric
			numErrors++
			meanErrorListSize += float64(decoding.ListSize)
		}
	}

	var trials = float64(sim.MCIters)
	var meanListSize = 0.0
	if numErrors > 0 {
		meanListSize = meanErrorListSize / float64(numErrors)
	}
	log.Info("point concluded",
		"ebn0", ebn0,
		"erasures", numListSizeExceeded,
		"errors", numErrors,
		"erasure_rate", float64(numListSizeExceeded)/trials,
		"undetected_error_rate", float64(numErrors)/trials,
		"total_failure_rate", float64(numListSizeExceeded+numErrors)/trials,
		"mean_error_list_size", meanListSize)

	if err := write_double_file(filepath.Join(folder, "transmitted_metric.txt"), transmittedMetric); err != nil {
		return err
	}
	if err := write_double_file(filepath.Join(folder, "decoded_metric.txt"), decodedMetric); err != nil {
		return err
	}
	if err := write_int_file(filepath.Join(folder, "decoded_listsize.txt"), decodedListSize); err != nil {
		return err
	}
	if err := write_int_file(filepath.Join(folder, "decoded_type.txt"), decodedType); err != nil {
		return err
	}
	return nil
}

// generate_random_crc_message draws numInfoBits uniform bits and
// appends the CRC redundancy.
func generate_random_crc_message(code CodeInformation, rng *rand.Rand) []int {
	var message = make([]int, code.NumInfoBits)
	for i := range message {
		message[i] = rng.Intn(2)
	}
	return crc_calculation(message, code.CRCDeg, code.CRC)
}

// generate_transmitted_message encodes the CRC-appended message into
// its BPSK word.
func generate_transmitted_message(originalMessage []int, trellis *FeedForwardTrellis) ([]int, error) {
	return trellis.Encode(originalMessage)
}

/*------------------------------------------------------------------
 *
 * Name:	add_awgn_noise
 *
 * Purpose:	Channel half of a trial: add noise, then zero the
 *		punctured positions.
 *
 * Description:	Puncturing is applied on this side rather than by
 *		shortening the vector: a zero sample carries no
 *		information, and the decoder additionally gives those
 *		positions zero weight.
 *
 *------------------------------------------------------------------*/

func add_awgn_noise(transmittedMessage []int, puncturedIndices []int, snr float64, noiseless bool, rng *rand.Rand) ([]float64, error) {
	var receivedMessage []float64
	if noiseless {
		receivedMessage = make([]float64, len(transmittedMessage))
		for i, symbol := range transmittedMessage {
			receivedMessage[i] = float64(symbol)
		}
	} else {
		receivedMessage = add_noise(transmittedMessage, snr, rng)
	}

	for _, index := range puncturedIndices {
		if index < 0 || index >= len(receivedMessage) {
			return nil, fmt.Errorf("%w: puncturing index %d out of bounds", ErrMalformedInput, index)
		}
		receivedMessage[index] = 0
	}
	return receivedMessage, nil
}

func equal_int_vectors(a []int, b []int) bool {
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

func write_int_file(path string, vector []int) error {
	var file, err = os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var w = bufio.NewWriter(file)
	if err := output_int_vector(vector, w); err != nil {
		return err
	}
	return w.Flush()
}

func write_double_file(path string, vector []float64) error {
	var file, err = os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var w = bufio.NewWriter(file)
	if err := output_double_vector(vector, w); err != nil {
		return err
	}
	return w.Flush()
}
