// Package config holds the settings of a demultiplexing run.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/noamteyssier/DeMultiSeq/extract"
	"github.com/noamteyssier/DeMultiSeq/whitelist"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config describes the inputs, whitelists and matching
// parameters of a run. It can be read from a JSON or TOML file; command
// line flags override it.
type Config struct {
	Read1            string `json:"read_1" toml:"read_1"`                       // R1 fastq, barcode + UMI
	Read2            string `json:"read_2" toml:"read_2"`                       // R2 fastq, multiseq tag
	CellBarcodes     string `json:"cell_barcodes" toml:"cell_barcodes"`         // Cell barcode whitelist
	MultiseqBarcodes string `json:"multiseq_barcodes" toml:"multiseq_barcodes"` // Multiseq whitelist

	Tolerance    int `json:"tolerance" toml:"tolerance"`
	BarcodeSize  int `json:"barcode_size" toml:"barcode_size"`
	UMISize      int `json:"umi_size" toml:"umi_size"`
	MultiseqSize int `json:"multiseq_size" toml:"multiseq_size"`

	Threads  int    `json:"threads" toml:"threads"`
	Strategy string `json:"strategy" toml:"strategy"`

	Output  string `json:"output" toml:"output"`
	Summary string `json:"summary" toml:"summary"`
}

// Default returns a Config with the standard read layout, no tolerance and
// a single thread.
func Default() *Config {
	return &Config{
		BarcodeSize:  extract.DefaultBarcodeWidth,
		UMISize:      extract.DefaultUMIWidth,
		MultiseqSize: extract.DefaultTagWidth,
		Threads:      1,
		Strategy:     string(whitelist.StrategyAuto),
		Output:       "-",
	}
}

// ReadFile reads a configuration file on top of the defaults. Files ending
// in ".toml" are TOML, everything else is JSON.
func ReadFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	var c *Config
	if strings.EqualFold(filepath.Ext(filename), ".toml") {
		c, err = FromTOML(data)
	} else {
		c, err = FromJSON(data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", filename)
	}
	return c, nil
}

// FromJSON decodes a JSON configuration on top of the defaults.
func FromJSON(data []byte) (*Config, error) {
	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "decode json")
	}
	return c, nil
}

// FromTOML decodes a TOML configuration on top of the defaults.
func FromTOML(data []byte) (*Config, error) {
	c := Default()
	if _, err := toml.Decode(string(data), c); err != nil {
		return nil, errors.Wrap(err, "decode toml")
	}
	return c, nil
}

// Layout returns the read layout described by c.
func (c *Config) Layout() extract.Layout {
	return extract.Layout{
		BarcodeWidth: c.BarcodeSize,
		UMIWidth:     c.UMISize,
		TagWidth:     c.MultiseqSize,
	}
}

// Validate reports the first problem with c.
func (c *Config) Validate() error {
	required := []struct{ name, value string }{
		{"read_1", c.Read1},
		{"read_2", c.Read2},
		{"cell_barcodes", c.CellBarcodes},
		{"multiseq_barcodes", c.MultiseqBarcodes},
	}
	for _, r := range required {
		if r.value == "" {
			return errors.Wrapf(ErrInvalid, "%s is required", r.name)
		}
	}
	if c.Tolerance < 0 {
		return errors.Wrapf(ErrInvalid, "tolerance must not be negative, got %d", c.Tolerance)
	}
	if err := c.Layout().Validate(); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	if c.Threads < 1 {
		return errors.Wrapf(ErrInvalid, "threads must be at least 1, got %d", c.Threads)
	}
	if _, err := whitelist.ParseStrategy(c.Strategy); err != nil {
		return errors.Wrap(ErrInvalid, err.Error())
	}
	return nil
}
