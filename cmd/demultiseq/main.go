// Command demultiseq demultiplexes MULTI-seq paired-end reads: it assigns
// each read pair to a cell barcode (read 1, bases 1-16) and a sample tag
// (read 2, bases 1-8), and counts distinct UMIs (read 1, bases 17-26) for
// every cell barcode and sample tag combination.
//
// Usage:
//
//	demultiseq -i R1.fastq.gz -I R2.fastq.gz -c cells.txt -m multiseq.txt [-t 1] > counts.tsv
package main

import (
	"fmt"
	"os"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/noamteyssier/DeMultiSeq/config"
	"github.com/noamteyssier/DeMultiSeq/whitelist"
)

const version = "0.2.0"

type options struct {
	configFile string
	progress   bool
	logLevel   string
	cpuprofile string
	memprofile string
}

func rootCommand() *cobra.Command {
	flags := config.Default()
	var opts options

	cmd := &cobra.Command{
		Use:   "demultiseq",
		Short: "Demultiplex MULTI-seq paired-end reads into UMI counts",
		Long: `demultiseq: count distinct UMIs per cell barcode and MULTI-seq tag

Read 1 is expected to start with a 16bp cell barcode followed by a 10bp UMI,
read 2 with the multiseq barcode (8bp by default). Both barcodes are checked
against their whitelists, optionally allowing up to --tol mismatches, in which
case the observed barcode is replaced by the nearest whitelist entry.

The result is a tab separated table:

  Barcode	Multiseq	nUMI

Settings can also be given in a JSON or TOML file with --config; flags set on
the command line take precedence.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(opts.logLevel); err != nil {
				return err
			}
			cfg := flags
			if opts.configFile != "" {
				log.WithField("file", opts.configFile).Info("Reading configuration")
				fileCfg, err := config.ReadFile(opts.configFile)
				if err != nil {
					return err
				}
				cfg = mergeFlags(cmd, flags, fileCfg)
			}
			return run(cfg, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.Read1, "read_1", "i", "", "Read 1 of paired-end sequencing (fastq, optionally compressed)")
	f.StringVarP(&flags.Read2, "read_2", "I", "", "Read 2 of paired-end sequencing (fastq, optionally compressed)")
	f.StringVarP(&flags.CellBarcodes, "cell_barcodes", "c", "", "White list of cell barcodes to match against")
	f.StringVarP(&flags.MultiseqBarcodes, "multiseq_barcodes", "m", "", "White list of multiseq barcodes to match against")
	f.IntVarP(&flags.Tolerance, "tol", "t", flags.Tolerance, "Tolerance of hamming distance to implement on imperfect sequences")
	f.IntVarP(&flags.MultiseqSize, "size", "s", flags.MultiseqSize, "Size of multiseq barcode to extract from R2")
	f.IntVar(&flags.BarcodeSize, "barcode_size", flags.BarcodeSize, "Size of cell barcode at the start of R1")
	f.IntVar(&flags.UMISize, "umi_size", flags.UMISize, "Size of UMI following the cell barcode in R1")
	f.IntVarP(&flags.Threads, "threads", "p", flags.Threads, "Number of worker goroutines")
	f.StringVar(&flags.Strategy, "strategy", flags.Strategy, "Whitelist search strategy: auto, scan, bktree or expand")
	f.StringVarP(&flags.Output, "output", "o", flags.Output, "Output table (- for stdout; .gz, .xz and .sz are compressed)")
	f.StringVar(&flags.Summary, "summary", "", "Write a JSON run summary to `file`")

	f.StringVar(&opts.configFile, "config", "", "Read configuration from `file` (.json or .toml)")
	f.BoolVar(&opts.progress, "progress", false, "Show a progress bar on stderr")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	f.StringVar(&opts.cpuprofile, "cpuprofile", "", "write cpu profile to `file`")
	f.StringVar(&opts.memprofile, "memprofile", "", "write memory profile to `file`")

	cmd.CompletionOptions.DisableDefaultCmd = true
	cmd.AddCommand(versionCommand())
	return cmd
}

// mergeFlags starts from the configuration file and applies every flag that
// was set explicitly on the command line.
func mergeFlags(cmd *cobra.Command, flags, file *config.Config) *config.Config {
	merged := *file
	overrides := []struct {
		name  string
		apply func()
	}{
		{"read_1", func() { merged.Read1 = flags.Read1 }},
		{"read_2", func() { merged.Read2 = flags.Read2 }},
		{"cell_barcodes", func() { merged.CellBarcodes = flags.CellBarcodes }},
		{"multiseq_barcodes", func() { merged.MultiseqBarcodes = flags.MultiseqBarcodes }},
		{"tol", func() { merged.Tolerance = flags.Tolerance }},
		{"size", func() { merged.MultiseqSize = flags.MultiseqSize }},
		{"barcode_size", func() { merged.BarcodeSize = flags.BarcodeSize }},
		{"umi_size", func() { merged.UMISize = flags.UMISize }},
		{"threads", func() { merged.Threads = flags.Threads }},
		{"strategy", func() { merged.Strategy = flags.Strategy }},
		{"output", func() { merged.Output = flags.Output }},
		{"summary", func() { merged.Summary = flags.Summary }},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.name) {
			o.apply()
		}
	}
	return &merged
}

func setupLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("demultiseq version %s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Printf("Whitelist strategies: %s, %s, %s, %s\n",
				whitelist.StrategyAuto, whitelist.StrategyScan, whitelist.StrategyBKTree, whitelist.StrategyExpand)
		},
	}
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
