package mla

/*-------------------------------------------------------------
 *
 * Purpose:	Configuration bundle for the code, the decoder and
 *		the simulation harness, with YAML loading and the
 *		consistency checks the simulator relies on.
 *
 *		Defaults reproduce the ISTC 2023 reference setup: the
 *		(561, 753) rate-1/2 memory-8 code, the degree-12 CRC
 *		0x1565, 64 information bits and the 24-entry
 *		puncturing pattern taking 152 coded symbols down to
 *		128.
 *
 *--------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CodeInformation describes one convolutional code with its CRC.
// Numerators carry the generator polynomials as octal digits in
// decimal literals, the conventional notation for these codes.
type CodeInformation struct {
	K           int   `yaml:"k"`
	N           int   `yaml:"n"`
	V           int   `yaml:"v"`
	CRCDeg      int   `yaml:"crc_degree"`
	CRC         int   `yaml:"crc"`
	NumInfoBits int   `yaml:"num_info_bits"`
	Numerators  []int `yaml:"numerators"`
}

// DecoderConfig selects the list decoder's stopping behavior.
type DecoderConfig struct {
	MaxListSize  int     `yaml:"max_list_size"`
	StoppingRule string  `yaml:"stopping_rule"` /* "M" or "A" */
	MaxMetric    float64 `yaml:"max_metric"`
}

// SimulationConfig drives the Monte-Carlo harness.
type SimulationConfig struct {
	EbN0            []float64 `yaml:"ebn0"`
	MCIters         int       `yaml:"mc_iters"`
	LoggingIters    int       `yaml:"logging_iters"`
	BaseSeed        int64     `yaml:"base_seed"`
	Noiseless       bool      `yaml:"noiseless"`
	OutputDir       string    `yaml:"output_dir"`
	TimestampRuns   bool      `yaml:"timestamp_runs"`
	TimestampFormat string    `yaml:"timestamp_format"` /* strftime pattern */
}

type Config struct {
	Code             CodeInformation  `yaml:"code"`
	PuncturedIndices []int            `yaml:"punctured_indices"`
	NumCodedSymbols  int              `yaml:"num_coded_symbols"`
	Decoder          DecoderConfig    `yaml:"decoder"`
	Simulation       SimulationConfig `yaml:"simulation"`
}

// DefaultConfig returns the reference ISTC 2023 setup.
func DefaultConfig() *Config {
	return &Config{
		Code: CodeInformation{
			K:           1,
			N:           2,
			V:           8,
			CRCDeg:      13,
			CRC:         0x1565,
			NumInfoBits: 64,
			Numerators:  []int{561, 753},
		},
		PuncturedIndices: []int{
			4, 10, 21, 24, 31, 37,
			42, 48, 59, 62, 69, 75,
			80, 86, 97, 100, 107, 113,
			118, 124, 135, 138, 145, 151,
		},
		NumCodedSymbols: 128,
		Decoder: DecoderConfig{
			MaxListSize:  1e7,
			StoppingRule: "A",
			MaxMetric:    84.5,
		},
		Simulation: SimulationConfig{
			EbN0:            []float64{2.50},
			MCIters:         10000,
			LoggingIters:    1000,
			BaseSeed:        42,
			Noiseless:       false,
			OutputDir:       "output",
			TimestampFormat: "%Y%m%d-%H%M%S",
		},
	}
}

/*-------------------------------------------------------------
 *
 * Name:	LoadConfig
 *
 * Purpose:	Read a YAML configuration file over the defaults.
 *		Absent keys keep their default values, so a file may
 *		override just the simulation block.
 *
 *--------------------------------------------------------------*/

func LoadConfig(path string) (*Config, error) {
	var config = DefaultConfig()

	var data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

/*-------------------------------------------------------------
 *
 * Name:	Validate
 *
 * Purpose:	Reject configurations the decoder cannot honor.
 *
 * Description:	Code-shape problems surface as ErrInvalidCode,
 *		input-shape problems as ErrMalformedInput.  The
 *		symbol-count identity
 *
 *		  (n/k)*(numInfoBits + crcDeg - 1) - |punctured|
 *			= numCodedSymbols
 *
 *		ties the puncturing pattern to the advertised rate.
 *
 *--------------------------------------------------------------*/

func (c *Config) Validate() error {
	var code = c.Code

	if code.K <= 0 || code.N <= 0 || code.V < 0 {
		return fmt.Errorf("%w: k=%d n=%d v=%d", ErrInvalidCode, code.K, code.N, code.V)
	}
	if code.CRCDeg <= 0 {
		return fmt.Errorf("%w: crc degree %d", ErrInvalidCode, code.CRCDeg)
	}
	if len(code.Numerators) != code.N {
		return fmt.Errorf("%w: %d generators for n=%d", ErrInvalidCode, len(code.Numerators), code.N)
	}

	if (code.NumInfoBits+code.CRCDeg-1)%code.K != 0 {
		return fmt.Errorf("%w: message + crc length %d is not a multiple of k=%d", ErrMalformedInput, code.NumInfoBits+code.CRCDeg-1, code.K)
	}

	var numSymbols = (code.NumInfoBits + code.CRCDeg - 1) / code.K * code.N
	for _, index := range c.PuncturedIndices {
		if index < 0 || index >= numSymbols {
			return fmt.Errorf("%w: puncturing index %d outside codeword of %d symbols", ErrMalformedInput, index, numSymbols)
		}
	}
	if numSymbols-len(c.PuncturedIndices) != c.NumCodedSymbols {
		return fmt.Errorf("%w: %d symbols minus %d punctures is not %d coded symbols", ErrMalformedInput, numSymbols, len(c.PuncturedIndices), c.NumCodedSymbols)
	}

	switch c.Decoder.StoppingRule {
	case "M", "A":
	default:
		return fmt.Errorf("%w: unknown stopping rule %q", ErrInvalidCode, c.Decoder.StoppingRule)
	}
	if c.Decoder.MaxListSize <= 0 {
		return fmt.Errorf("%w: max list size %d", ErrInvalidCode, c.Decoder.MaxListSize)
	}

	return nil
}

// StoppingRuleByte converts the config string to the decoder's rule tag.
func (c *Config) StoppingRuleByte() byte {
	return c.Decoder.StoppingRule[0]
}
