package config

import "flag"

// Flags holds command-line overrides bound to a subcommand's FlagSet.
// Only flags the user actually set override the config.
type Flags struct {
	fs *flag.FlagSet

	ConfigPath  string
	Debug       bool
	LogFile     string
	Validate    bool
	Format      string
	OutputDir   string
	FlipV       bool
	NoMaterials bool
	Scale       float64
	Size        int
	View        string
	Wireframe   bool
}

// BindFlags registers the common flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Also write logs to this file")
	fs.BoolVar(&f.Validate, "validate", false, "Reject triangles referencing missing vertices")
	return f
}

// BindExport registers the conversion flags.
func (f *Flags) BindExport() *Flags {
	f.fs.StringVar(&f.Format, "format", "", "Output format: obj, gltf or glb")
	f.fs.StringVar(&f.OutputDir, "o", "", "Output directory")
	f.fs.BoolVar(&f.FlipV, "flip-v", true, "Write texture V as 1-v")
	f.fs.BoolVar(&f.NoMaterials, "no-materials", false, "Do not create one material per surface id")
	f.fs.Float64Var(&f.Scale, "scale", 0, "Scale positions on export")
	return f
}

// BindPreview registers the preview flags.
func (f *Flags) BindPreview() *Flags {
	f.fs.IntVar(&f.Size, "size", 0, "Image width and height in pixels")
	f.fs.StringVar(&f.View, "view", "", "View: front, side, top or iso")
	f.fs.StringVar(&f.Format, "format", "", "Image format: webp, png or bmp")
	f.fs.BoolVar(&f.Wireframe, "wireframe", false, "Outline triangle edges")
	return f
}

// FlagSet returns the set the flags are bound to, for command-specific flags.
func (f *Flags) FlagSet() *flag.FlagSet {
	return f.fs
}

// isSet reports whether the named flag was given on the command line.
func (f *Flags) isSet(name string) bool {
	set := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Validate {
		cfg.Decode.ValidateIndices = true
	}

	// -format is bound by either the export or the preview flags, never both.
	if f.Format != "" {
		if f.fs.Lookup("view") != nil {
			cfg.Preview.Format = f.Format
		} else {
			cfg.Export.Format = f.Format
		}
	}
	if f.OutputDir != "" {
		cfg.Export.OutputDir = f.OutputDir
	}
	if f.isSet("flip-v") {
		cfg.Export.FlipV = f.FlipV
	}
	if f.NoMaterials {
		cfg.Export.CreateMaterials = false
	}
	if f.Scale > 0 {
		cfg.Export.Scale = float32(f.Scale)
	}

	if f.Size > 0 {
		cfg.Preview.Width = f.Size
		cfg.Preview.Height = f.Size
	}
	if f.View != "" {
		cfg.Preview.View = f.View
	}
	if f.Wireframe {
		cfg.Preview.Wireframe = true
	}
}
