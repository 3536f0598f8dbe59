// Command mvtbuild builds Mapbox Vector Tiles from YAML descriptions of
// pre-encoded features, publishes them to a tile directory and serves that
// directory over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/multun/mvt"
	"github.com/multun/mvt/codec"
	"github.com/multun/mvt/promcollector"
	"github.com/multun/mvt/tilestore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:          "mvtbuild",
		Short:        "Build and serve Mapbox Vector Tiles",
		Version:      fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	logger := func(cmd *cobra.Command) *mvt.Logger {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		return mvt.NewLogger(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	cmd.AddCommand(newBuildCommand(logger))
	cmd.AddCommand(newInfoCommand())
	cmd.AddCommand(newServeCommand(logger))
	return cmd
}

func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(name)
}

func loadDescription(cmd *cobra.Command, name string) (*Description, error) {
	r, err := openInput(cmd, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadDescription(r)
}

func lookupCodec(name string) (codec.Codec, error) {
	c, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown codec %q (known: %v)", name, codec.Names())
	}
	return c, nil
}

func newBuildCommand(logger func(*cobra.Command) *mvt.Logger) *cobra.Command {
	var (
		input     string
		output    string
		extent    uint32
		codecName string
		storeDir  string
		tileName  string
		textfile  string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Encode a tile from a YAML description",
		Long: `Encode a tile from a YAML description and write it to a file, or publish
it into a z/x/y tile directory with --store and --tile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupCodec(codecName)
			if err != nil {
				return err
			}
			desc, err := loadDescription(cmd, input)
			if err != nil {
				return err
			}

			log := logger(cmd)
			opts := []mvt.Option{mvt.WithLogger(log)}
			var reg *prometheus.Registry
			if textfile != "" {
				reg = prometheus.NewRegistry()
				collector, err := promcollector.New(reg, "mvtbuild")
				if err != nil {
					return err
				}
				opts = append(opts, mvt.WithMetricsCollector(collector))
			}

			tile, err := desc.Tile(extent, opts...)
			if err != nil {
				return err
			}

			if storeDir != "" {
				err = publish(cmd.Context(), tile, c, storeDir, tileName, log)
			} else {
				err = writeTile(cmd, tile, c, output)
			}
			if err != nil {
				return err
			}

			if reg != nil {
				return prometheus.WriteToTextfile(textfile, reg)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "YAML description, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().Uint32Var(&extent, "extent", 0, "tile extent (default: description extent or 4096)")
	cmd.Flags().StringVar(&codecName, "codec", "identity", "compression codec: identity, gzip, zstd or lz4")
	cmd.Flags().StringVar(&storeDir, "store", "", "publish into this tile directory instead of --output")
	cmd.Flags().StringVar(&tileName, "tile", "", "tile coordinates z/x/y, required with --store")
	cmd.Flags().StringVar(&textfile, "metrics-textfile", "", "write Prometheus metrics to this file")
	cmd.MarkFlagsMutuallyExclusive("store", "output")
	cmd.MarkFlagsRequiredTogether("store", "tile")
	return cmd
}

func writeTile(cmd *cobra.Command, tile *mvt.Tile, c codec.Codec, output string) error {
	data, err := tile.ToBytes()
	if err != nil {
		return err
	}
	if data, err = c.Compress(data); err != nil {
		return fmt.Errorf("compress: %w", err)
	}
	if output == "" || output == "-" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(output, data, 0o644)
}

func publish(ctx context.Context, tile *mvt.Tile, c codec.Codec, dir, tileName string, log *mvt.Logger) error {
	key, err := tilestore.ParseKey(tileName)
	if err != nil {
		return err
	}
	pub := tilestore.NewPublisher(tilestore.NewLocalStore(dir), tilestore.PublisherOptions{
		Codec:  c,
		Logger: log,
	})
	n, err := pub.PublishOne(ctx, tilestore.Job{Key: key, Tile: tile})
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "tile published", "tile", pub.Name(key), "bytes", n, "codec", c.Name())
	return nil
}

func newInfoCommand() *cobra.Command {
	var (
		input     string
		codecName string
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print a summary of the tile a YAML description encodes to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupCodec(codecName)
			if err != nil {
				return err
			}
			desc, err := loadDescription(cmd, input)
			if err != nil {
				return err
			}
			tile, err := desc.Tile(0)
			if err != nil {
				return err
			}
			return printInfo(cmd.OutOrStdout(), desc, tile, c)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "YAML description, - for stdin")
	cmd.Flags().StringVar(&codecName, "codec", "gzip", "codec used to report the compressed size")
	return cmd
}

func printInfo(w io.Writer, desc *Description, tile *mvt.Tile, c codec.Codec) error {
	data, err := tile.ToBytes()
	if err != nil {
		return err
	}
	compressed, err := c.Compress(data)
	if err != nil {
		return fmt.Errorf("compress: %w", err)
	}

	fmt.Fprintf(w, "extent: %d\n", tile.Extent())
	fmt.Fprintf(w, "layers: %d\n", tile.NumLayers())
	for _, ld := range desc.Layers {
		fmt.Fprintf(w, "  %s: %d features\n", ld.Name, len(ld.Features))
	}
	fmt.Fprintf(w, "size: %d bytes\n", len(data))
	fmt.Fprintf(w, "%s: %d bytes\n", c.Name(), len(compressed))
	return nil
}

func newServeCommand(logger func(*cobra.Command) *mvt.Logger) *cobra.Command {
	var (
		dir        string
		addr       string
		codecName  string
		ext        string
		cacheBytes int64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a tile directory over HTTP",
		Long: `Serve tiles from a z/x/y tile directory at /{z}/{x}/{y}.{ext}.
Prometheus metrics are exposed at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := lookupCodec(codecName)
			if err != nil {
				return err
			}
			log := logger(cmd)
			store := tilestore.NewCachingStore(tilestore.NewLocalStore(dir), cacheBytes)
			reg := prometheus.NewRegistry()
			h, err := newServeMux(store, tilestore.HandlerOptions{Codec: c, Extension: ext, Logger: log}, reg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              addr,
				Handler:           h,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.InfoContext(ctx, "serving tiles", "addr", addr, "dir", dir, "codec", c.Name())

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "tile directory")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&codecName, "codec", "identity", "codec the tiles were published with")
	cmd.Flags().StringVar(&ext, "ext", tilestore.DefaultExtension, "tile file extension")
	cmd.Flags().Int64Var(&cacheBytes, "cache-bytes", 64<<20, "tile cache capacity in bytes")
	return cmd
}

// newServeMux routes tile requests to the store and exposes cache metrics.
func newServeMux(store *tilestore.CachingStore, opts tilestore.HandlerOptions, reg *prometheus.Registry) (http.Handler, error) {
	gauges := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "mvtbuild_tile_cache_hits_total",
			Help: "Tile reads served from the cache",
		}, func() float64 { return float64(store.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "mvtbuild_tile_cache_misses_total",
			Help: "Tile reads that went to the tile directory",
		}, func() float64 { return float64(store.Stats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "mvtbuild_tile_cache_bytes",
			Help: "Bytes held by the tile cache",
		}, func() float64 { return float64(store.Stats().Bytes) }),
	}
	for _, g := range gauges {
		if err := reg.Register(g); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", tilestore.NewHandler(store, opts))
	return mux, nil
}
