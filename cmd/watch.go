package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"slices"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/spf13/cobra"

	"github.com/leafo/showlights/arrangement"
	"github.com/leafo/showlights/generate"
)

var (
	watchGenFlags generationFlags
	watchOutFlags outputFlags
	watchInterval time.Duration
	watchDelay    time.Duration
)

func init() {
	watchGenFlags.register(watchCmd.Flags())
	watchOutFlags.register(watchCmd)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "How often to check the arrangements for changes")
	watchCmd.Flags().DurationVar(&watchDelay, "delay", 500*time.Millisecond, "Quiet time after the last change before regenerating")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <fog-arrangement.xml>",
	Short: "Regenerate showlights whenever the arrangements change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := watchGenFlags.options(cmd.Flags())
		if err != nil {
			return err
		}

		source := arrangement.FileSource{}
		cache := arrangement.NewCache(source, nil)
		cache.Verbose = verbose
		gen := generate.NewGenerator(cache, args[0], watchOutFlags.beamSource, opts, watchGenFlags.rand(cmd.Flags()))

		paths := []string{args[0]}
		if watchOutFlags.beamSource != "" && watchOutFlags.beamSource != args[0] {
			paths = append(paths, watchOutFlags.beamSource)
		}

		// Edits saved during the first generation must count as changes
		versions, err := recordVersions(source, paths)
		if err != nil {
			return err
		}

		var mu sync.Mutex
		regenerate := func() {
			mu.Lock()
			defer mu.Unlock()
			if err := runGeneration(gen, watchOutFlags); err != nil {
				log.Printf("Error: %v", err)
			}
		}

		regenerate()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		debounced := debounce.New(watchDelay)
		log.Printf("Watching %d arrangement(s) for changes", len(paths))
		return watchFiles(ctx, source, versions, watchInterval, func() {
			debounced(regenerate)
		})
	},
}

// recordVersions returns the current version of each path
func recordVersions(source arrangement.Source, paths []string) (map[string]time.Time, error) {
	versions := make(map[string]time.Time, len(paths))
	for _, path := range paths {
		version, err := source.Version(path)
		if err != nil {
			return nil, err
		}
		versions[path] = version
	}
	return versions, nil
}

// watchFiles calls onChange whenever the version of a watched path differs
// from the one in versions, until the context is done. versions is updated
// in place.
func watchFiles(ctx context.Context, source arrangement.Source, versions map[string]time.Time, interval time.Duration, onChange func()) error {
	paths := make([]string, 0, len(versions))
	for path := range versions {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		changed := false
		for _, path := range paths {
			version, err := source.Version(path)
			if err != nil {
				log.Printf("Warning: %v", err)
				continue
			}
			if !version.Equal(versions[path]) {
				log.Printf("%s changed", path)
				versions[path] = version
				changed = true
			}
		}

		if changed {
			onChange()
		}
	}
}
