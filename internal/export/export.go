// Package export writes decoded DMODEL geometry to interchange formats.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/dmodel-tools/internal/logger"
	"github.com/Faultbox/dmodel-tools/pkg/formats"
)

// Format is an output file format.
type Format string

// Supported formats.
const (
	FormatOBJ  Format = "obj"
	FormatGLTF Format = "gltf"
	FormatGLB  Format = "glb"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown export format")

// ParseFormat converts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatOBJ, FormatGLTF, FormatGLB:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Options controls how geometry is written.
type Options struct {
	Name            string  // Object / mesh name
	FlipV           bool    // OBJ only: write V as 1-v
	CreateMaterials bool    // One material per surface id
	Scale           float32 // Position scale; zero means 1
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions(name string) Options {
	return Options{Name: name, FlipV: true, CreateMaterials: true, Scale: 1}
}

func (o Options) scale() float32 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

func (o Options) groups(g *formats.DModelGeometry) []SurfaceGroup {
	if o.CreateMaterials {
		return GroupBySurface(g)
	}
	return allTriangles(g)
}

// ModelName derives a model name from a file path.
func ModelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputPath returns the output file for input written in format under dir.
func OutputPath(input, dir string, format Format) string {
	return filepath.Join(dir, ModelName(input)+format.Ext())
}

// ExportFile writes g to path in the given format. Parent directories are
// created. OBJ output also writes a .mtl file next to path when materials
// are enabled.
func ExportFile(path string, g *formats.DModelGeometry, opts Options, format Format) error {
	if err := formats.ValidateIndices(g); err != nil {
		return fmt.Errorf("exporting %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatOBJ:
		mtllib := ""
		if opts.CreateMaterials {
			mtl := strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"
			if err := writeMTLFile(mtl, g); err != nil {
				return err
			}
			mtllib = filepath.Base(mtl)
		}
		err = WriteOBJ(f, g, opts, mtllib)
	case FormatGLTF:
		err = WriteGLTF(f, g, opts, false)
	case FormatGLB:
		err = WriteGLTF(f, g, opts, true)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return err
	}

	logger.Debug("exported model",
		zap.String("file", path),
		zap.String("format", string(format)),
		zap.Int("triangles", g.NumTriangles()))
	return f.Close()
}

func writeMTLFile(path string, g *formats.DModelGeometry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating material file: %w", err)
	}
	defer f.Close()
	if err := WriteMTL(f, g); err != nil {
		return err
	}
	return f.Close()
}
