// Package norm is the batch driver: it constructs an engine from the
// YAML configuration and fans units out over a bounded worker pool,
// one output record per input unit.
package norm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/gnoverse/canopy/internal"
	tt "github.com/gnoverse/canopy/internal/types"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

const maxShowRecentUnits = 25

// configSchemaRange is the semver range of configuration schemas this
// build understands.
const configSchemaRange = ">= 1.0.0, < 2.0.0"

// Normalizer is the engine surface the driver needs.
type Normalizer interface {
	RunUnit(unit tt.Unit) tt.UnitResult
	Order() []string
}

// New constructs an engine from the configuration file. An empty path
// yields the default pass sequence.
func New(configurationPath string) (*internal.Engine, error) {
	if configurationPath == "" {
		return internal.NewEngine(nil)
	}
	config, err := parseConfigurationFile(configurationPath)
	if err != nil {
		return nil, err
	}
	return internal.NewEngine(config)
}

// ProcessUnits runs every unit through the engine with a bounded
// worker pool. The result slice preserves input order; a failing unit
// still yields its record and never affects siblings.
func ProcessUnits(
	ctx context.Context,
	logger *zap.Logger,
	engine Normalizer,
	units []tt.Unit,
) ([]tt.UnitResult, error) {
	results := make([]tt.UnitResult, len(units))

	// mutex for recent units
	var recentUnitsMutex sync.Mutex
	recentUnits := make([]string, maxShowRecentUnits)

	showProgress := len(units) > 1
	var bar *progressbar.ProgressBar
	if showProgress {
		// make space for recent units
		for i := 0; i < maxShowRecentUnits+1; i++ {
			fmt.Println()
		}
		fmt.Printf("\033[%dA", maxShowRecentUnits+1)

		bar = progressbar.NewOptions(len(units),
			progressbar.OptionSetDescription("normalizing"),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}))
	}

	// update recent units
	updateRecentUnits := func(id string) {
		if !showProgress {
			return
		}
		recentUnitsMutex.Lock()
		defer recentUnitsMutex.Unlock()

		// update the list
		for j := maxShowRecentUnits - 1; j > 0; j-- {
			recentUnits[j] = recentUnits[j-1]
		}
		recentUnits[0] = id

		// move the cursor up
		fmt.Printf("\033[%dA", maxShowRecentUnits)

		// print the list
		for j := range recentUnits {
			if recentUnits[j] != "" {
				// \033[2K: clear the line
				// \r: move the cursor to the beginning of the line
				fmt.Printf("\033[2K\r%s\n", recentUnits[j])
			} else {
				fmt.Printf("\033[2K\r\n")
			}
		}
	}

	// limit the number of workers
	maxWorkers := runtime.NumCPU()
	sem := make(chan struct{}, maxWorkers)

	var wg sync.WaitGroup
	for i, unit := range units {
		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		default:
			sem <- struct{}{}
			wg.Add(1)
			go func(idx int, u tt.Unit) {
				defer wg.Done()
				defer func() { <-sem }()

				// show the start of unit processing
				updateRecentUnits(u.ID)

				results[idx] = engine.RunUnit(u)
				if logger != nil && results[idx].Status != tt.StatusSuccess {
					logger.Debug("unit did not complete the pipeline",
						zap.String("unit", u.ID),
						zap.String("status", string(results[idx].Status)))
				}
				if bar != nil {
					bar.Add(1)
				}
			}(i, unit)
		}
	}
	wg.Wait()

	if showProgress {
		fmt.Println()
	}
	return results, nil
}

// ProcessFiles normalizes every given path in turn.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine Normalizer,
	paths []string,
) ([]tt.UnitResult, error) {
	var allResults []tt.UnitResult
	for _, path := range paths {
		results, err := ProcessPath(ctx, logger, engine, path)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		allResults = append(allResults, results...)
	}

	return allResults, nil
}

// ProcessPath normalizes one source file or every source file under
// one directory. The unit id is the file path.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine Normalizer,
	path string,
) ([]tt.UnitResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		filepath.Walk(path, func(filePath string, fileInfo os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fileInfo.IsDir() && hasDesiredExtension(filePath) {
				files = append(files, filePath)
			}
			return nil
		})
	} else if hasDesiredExtension(path) {
		files = append(files, path)
	}

	units, err := readUnits(ctx, files)
	if err != nil {
		return nil, err
	}
	return ProcessUnits(ctx, logger, engine, units)
}

// readUnits loads source files concurrently, keeping file order.
func readUnits(ctx context.Context, files []string) ([]tt.Unit, error) {
	units := make([]tt.Unit, len(files))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			content, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("error reading %s: %w", file, err)
			}
			units[i] = tt.Unit{ID: file, Source: string(content)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

var desiredExtensions = map[string]bool{
	".py": true,
}

func hasDesiredExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)]
}

func parseConfigurationFile(configurationPath string) (*tt.Config, error) {
	var config tt.Config

	// Read the configuration file
	f, err := os.Open(configurationPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Parse the configuration file
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	if config.Version != "" {
		if err := checkSchemaVersion(config.Version); err != nil {
			return nil, err
		}
	}
	return &config, nil
}

func checkSchemaVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid configuration version %q: %w", version, err)
	}
	supported, err := semver.NewConstraint(configSchemaRange)
	if err != nil {
		return err
	}
	if !supported.Check(v) {
		return fmt.Errorf("configuration version %s outside supported range %s", version, configSchemaRange)
	}
	return nil
}
