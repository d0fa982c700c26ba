package export

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/dmodel-tools/internal/logger"
	"github.com/Faultbox/dmodel-tools/pkg/formats"
)

// BatchConfig holds the settings shared by every file of a batch run.
type BatchConfig struct {
	Format    Format
	OutputDir string
	Options   Options // Name is replaced per file
	Workers   int     // Zero means runtime.NumCPU()
}

// Result holds the outcome of converting one file.
type Result struct {
	Input     string
	Output    string
	Vertices  int
	Triangles int
	Err       error
}

// ConvertFiles decodes and exports each input. Files are independent and
// processed by a worker pool; results are returned in input order.
func ConvertFiles(cfg BatchConfig, inputs []string) []Result {
	results := make([]Result, len(inputs))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = convertFile(cfg, inputs[idx])
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func convertFile(cfg BatchConfig, input string) Result {
	res := Result{Input: input, Output: OutputPath(input, cfg.OutputDir, cfg.Format)}

	g, err := formats.ParseDModelFile(input)
	if err != nil {
		res.Err = err
		return res
	}
	res.Vertices = len(g.Vertices)
	res.Triangles = g.NumTriangles()

	opts := cfg.Options
	opts.Name = ModelName(input)
	if err := ExportFile(res.Output, g, opts, cfg.Format); err != nil {
		res.Err = err
		return res
	}

	logger.Named("export").Info("converted",
		zap.String("input", input),
		zap.String("output", res.Output),
		zap.Int("vertices", res.Vertices),
		zap.Int("triangles", res.Triangles))
	return res
}
