package config

import "flag"

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagDocument    = flag.String("document", "", "Path to scene document")
	flagClones      = flag.Int("clones", -1, "Number of scene clones")
	flagPercent     = flag.Float64("percent", -1, "Fraction of objects to draw (0..1)")
	flagTechnique   = flag.String("technique", "", "Render technique name")
	flagSearchBatch = flag.Int("searchbatch", 0, "Max parts combined per search-mode draw")
	flagUnsorted    = flag.Bool("unsorted", false, "Skip state-change sorting of draw items")
	flagMaxChunkMB  = flag.Int("maxchunk", 0, "Max chunk size per stream in MiB")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagDocument != "" {
		cfg.Scene.Document = *flagDocument
	}
	if *flagClones >= 0 {
		cfg.Scene.Clones = *flagClones
	}
	if *flagPercent >= 0 {
		cfg.Scene.Percent = *flagPercent
	}
	if *flagTechnique != "" {
		cfg.Render.Technique = *flagTechnique
	}
	if *flagSearchBatch > 0 {
		cfg.Render.SearchBatch = uint32(*flagSearchBatch)
	}
	if *flagUnsorted {
		cfg.Render.Sorted = false
	}
	if *flagMaxChunkMB > 0 {
		cfg.Memory.MaxChunkMB = uint64(*flagMaxChunkMB)
	}
}
