package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/perlin2d/internal/export"
	"github.com/MeKo-Tech/perlin2d/internal/noise"
	"github.com/MeKo-Tech/perlin2d/internal/raster"
	"github.com/MeKo-Tech/perlin2d/internal/server"
	"github.com/MeKo-Tech/perlin2d/internal/tile"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve noise tiles and point evaluations over HTTP",
	Long: `Serve renders missing tiles on demand and caches them under
<tiles-dir>/<seed label>/. Endpoints:

  GET  /tiles/z{z}_x{x}_y{y}[@2x].png   noise tile
  GET  /api/noise?x=&y=                 {"x","y","value","seed"}
  POST /api/reseed?seed=                reseed the shared table (empty restores the default)
  GET  /api/table                       current permutation
  GET  /api/status                      render activity
  GET  /healthz                         liveness

With --mbtiles, tiles are read from a prebuilt file instead.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("tiles-dir", "", "Directory for cached tiles (defaults to --output-dir)")
	serveCmd.Flags().String("mbtiles", "", "Serve tiles from this MBTiles file instead of rendering")

	serveCmd.Flags().Bool("generate-missing", true, "Generate missing tiles on-demand and cache them to disk")
	serveCmd.Flags().Bool("disable-cache", false, "Always regenerate tiles (still writes to disk)")
	serveCmd.Flags().Int("max-concurrent-generations", runtime.NumCPU(), "Max concurrent tile generations (default: number of CPUs)")
	serveCmd.Flags().Duration("generation-timeout", 30*time.Second, "Timeout per tile generation")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served tiles")

	serveCmd.Flags().Int("tile-size", 256, "Base tile size in pixels (@2x requests render twice the size)")
	serveCmd.Flags().String("png-compression", "speed", "PNG compression (default, speed, best, none)")
	serveCmd.Flags().Bool("grid", false, "Draw grid cell boundaries on tiles")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.tiles_dir", "tiles-dir")
	mustBind("serve.mbtiles", "mbtiles")
	mustBind("serve.generate_missing", "generate-missing")
	mustBind("serve.disable_cache", "disable-cache")
	mustBind("serve.max_concurrent_generations", "max-concurrent-generations")
	mustBind("serve.generation_timeout", "generation-timeout")
	mustBind("serve.cache_control", "cache-control")
	mustBind("serve.tile_size", "tile-size")
	mustBind("serve.png_compression", "png-compression")
	mustBind("serve.grid", "grid")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	tilesDir := viper.GetString("serve.tiles_dir")
	if tilesDir == "" {
		tilesDir = viper.GetString("output-dir")
	}
	mbtilesPath := viper.GetString("serve.mbtiles")

	shared := noise.NewSharedSeed(resolveSeed())
	api := server.NewNoiseAPI(shared, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/api/noise", withCORS(api.EvaluateHandler()))
	mux.Handle("/api/reseed", withCORS(api.ReseedHandler()))
	mux.Handle("/api/table", withCORS(api.TableHandler()))

	if mbtilesPath != "" {
		h, err := server.NewMBTilesHandler(server.MBTilesConfig{
			MBTilesPath:  mbtilesPath,
			CacheControl: viper.GetString("serve.cache_control"),
		}, logger)
		if err != nil {
			return err
		}
		defer h.Close()
		mux.Handle("/tiles/", withCORS(h.Handler()))
		mux.Handle("/api/metadata", withCORS(h.MetadataHandler()))
	} else {
		opts := raster.DefaultOptions()
		opts.Grid = viper.GetBool("serve.grid")
		od, err := server.NewOnDemandTiles(shared, server.OnDemandTilesConfig{
			TilesDir:                 tilesDir,
			CacheControl:             viper.GetString("serve.cache_control"),
			Layout:                   tile.Layout{TileSize: viper.GetInt("serve.tile_size"), BasePxPerGrid: float64(resolvePxPerGrid())},
			Raster:                   opts,
			Export:                   export.Options{Compression: viper.GetString("serve.png_compression")},
			MaxConcurrentGenerations: viper.GetInt("serve.max_concurrent_generations"),
			GenerationTimeout:        viper.GetDuration("serve.generation_timeout"),
			GenerateMissing:          viper.GetBool("serve.generate_missing"),
			DisableCache:             viper.GetBool("serve.disable_cache"),
		}, logger)
		if err != nil {
			return err
		}
		mux.Handle("/tiles/", withCORS(od.Handler()))
		mux.Handle("/api/status", withCORS(od.StatusHandler()))
	}

	logger.Info("noise server listening",
		"addr", addr,
		"tiles_dir", tilesDir,
		"mbtiles", mbtilesPath,
		"seed", shared.Label(),
	)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sigCh:
		logger.Info("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
