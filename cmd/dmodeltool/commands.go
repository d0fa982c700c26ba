package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/dmodel-tools/internal/config"
	"github.com/Faultbox/dmodel-tools/internal/export"
	"github.com/Faultbox/dmodel-tools/internal/logger"
	"github.com/Faultbox/dmodel-tools/internal/preview"
	"github.com/Faultbox/dmodel-tools/pkg/formats"
)

// loadModel reads and decodes a DMODEL file, validating indices when
// configured.
func loadModel(cfg *config.Config, path string) ([]byte, *formats.DModelGeometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	g, err := formats.ParseDModel(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Decode.ValidateIndices {
		if err := formats.ValidateIndices(g); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	logger.Debug("decoded model",
		zap.String("file", path),
		zap.Int("vertices", len(g.Vertices)),
		zap.Int("triangles", g.NumTriangles()))
	return data, g, nil
}

func summary(path string, g *formats.DModelGeometry) string {
	return fmt.Sprintf("%s: %d verts, %d tris", export.ModelName(path), len(g.Vertices), g.NumTriangles())
}

func cmdInfo(args []string) {
	fs, cfg := setup("info", args, nil)
	if fs.NArg() < 1 {
		usage("info <file>")
	}
	path := fs.Arg(0)

	data, g, err := loadModel(cfg, path)
	if err != nil {
		fatal(err)
	}
	hdr, err := formats.DecodeDModelHeader(data)
	if err != nil {
		fatal(err)
	}
	cmds, err := formats.ScanDModelCommands(data, hdr.CmdOffset, hdr.PolyCmdCount)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("File:      %s\n", path)
	fmt.Printf("Size:      %d bytes\n", len(data))
	fmt.Println()
	fmt.Println("Header:")
	fmt.Printf("  Vertices:      %d @ 0x%X\n", hdr.VertexCount, hdr.VertOffset)
	fmt.Printf("  Commands:      %d @ 0x%X\n", hdr.PolyCmdCount, hdr.CmdOffset)
	fmt.Printf("  Meshes:        %d\n", hdr.MeshCount)
	fmt.Printf("  Plane offset:  0x%X\n", hdr.PlaneOffset)
	fmt.Printf("  Normal offset: 0x%X\n", hdr.NormalOffset)
	fmt.Println()

	fmt.Println("Geometry:")
	fmt.Printf("  %s\n", summary(path, g))
	if b := g.Bounds(); !b.Empty() {
		size := b.Size()
		fmt.Printf("  Bounds:   (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
			b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
		fmt.Printf("  Size:     %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	}

	ids := g.DistinctSurfaceIDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = export.MaterialName(id)
	}
	fmt.Printf("  Surfaces: %d [%s]\n", len(ids), strings.Join(names, " "))
	fmt.Println()

	stats := make(formats.DModelCommandStats)
	for _, c := range cmds {
		stats[c.Opcode]++
	}
	fmt.Println("Commands by opcode:")
	for _, op := range stats.Opcodes() {
		fmt.Printf("  0x%02X %-18s %d\n", uint8(op), op, stats[op])
	}
}

func cmdDump(args []string) {
	fs, _ := setup("dump", args, nil)
	if fs.NArg() < 1 {
		usage("dump <file>")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		fatal(err)
	}
	hdr, err := formats.DecodeDModelHeader(data)
	if err != nil {
		fatal(err)
	}

	cmds, err := formats.ScanDModelCommands(data, hdr.CmdOffset, hdr.PolyCmdCount)
	if err != nil {
		fatal(err)
	}

	fmt.Printf("%-6s %-8s %-4s %-18s %-5s %s\n", "#", "Offset", "Op", "Name", "Mesh", "Length")
	for _, c := range cmds {
		fmt.Printf("%-6d 0x%06X 0x%02X %-18s %-5d 0x%02X\n",
			c.Index, c.Offset, uint8(c.Opcode), c.Opcode, c.MeshID, c.Length)
	}
	fmt.Printf("\n%d commands\n", len(cmds))
}

func cmdValidate(args []string) {
	fs, _ := setup("validate", args, nil)
	if fs.NArg() < 1 {
		usage("validate <file>...")
	}

	failed := 0
	for _, path := range fs.Args() {
		g, err := formats.ParseDModelFile(path)
		if err == nil {
			err = formats.ValidateIndices(g)
		}
		if err != nil {
			failed++
			logger.Warn("validation failed", zap.String("file", path), zap.Error(err))
			fmt.Printf("FAIL %s: %v\n", path, err)
			continue
		}
		fmt.Printf("OK   %s\n", summary(path, g))
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d files failed\n", failed, fs.NArg())
		logger.Sync()
		os.Exit(1)
	}
}

func cmdConvert(args []string) {
	fs, cfg := setup("convert", args, func(f *config.Flags) { f.BindExport() })
	if fs.NArg() < 1 {
		usage("convert [-format obj|gltf|glb] [-o dir] <file>...")
	}

	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		fatal(err)
	}

	results := export.ConvertFiles(export.BatchConfig{
		Format:    format,
		OutputDir: cfg.Export.OutputDir,
		Options: export.Options{
			FlipV:           cfg.Export.FlipV,
			CreateMaterials: cfg.Export.CreateMaterials,
			Scale:           cfg.Export.Scale,
		},
	}, fs.Args())

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", r.Input, r.Err)
			continue
		}
		fmt.Printf("%s: %d verts, %d tris -> %s\n", export.ModelName(r.Input), r.Vertices, r.Triangles, r.Output)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d files failed\n", failed, len(results))
		logger.Sync()
		os.Exit(1)
	}
}

func cmdPreview(args []string) {
	var out string
	fs, cfg := setup("preview", args, func(f *config.Flags) {
		f.BindPreview()
		f.FlagSet().StringVar(&out, "o", "", "Output image path")
	})
	if fs.NArg() < 1 {
		usage("preview [-size N] [-view front|side|top|iso] [-o out] <file>")
	}
	path := fs.Arg(0)

	_, g, err := loadModel(cfg, path)
	if err != nil {
		fatal(err)
	}

	bg, err := preview.ParseHexColor(cfg.Preview.Background)
	if err != nil {
		fatal(err)
	}
	img, err := preview.Render(g, preview.Options{
		Width:      cfg.Preview.Width,
		Height:     cfg.Preview.Height,
		View:       cfg.Preview.View,
		Background: bg,
		Wireframe:  cfg.Preview.Wireframe,
	})
	if err != nil {
		fatal(err)
	}

	if out == "" {
		out = filepath.Join(cfg.Export.OutputDir, export.ModelName(path)+"."+cfg.Preview.Format)
	}
	if err := preview.SaveFile(out, img, cfg.Preview.Format); err != nil {
		fatal(err)
	}

	logger.Info("preview written", zap.String("file", out), zap.String("view", cfg.Preview.View))
	fmt.Printf("%s -> %s\n", summary(path, g), out)
}
