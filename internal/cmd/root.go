package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "perlin2d",
	Short: "Deterministic 2D Perlin noise images, tiles and queries",
	Long: `perlin2d evaluates single-octave 2D gradient noise over a seedable
permutation table.

It renders grayscale images and tile pyramids, serves tiles and point
evaluations over HTTP, and previews the field in the terminal. The same seed
always yields the same noise.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("seed", "", "Permutation seed (base-10 integer; empty uses the canonical table)")
	rootCmd.PersistentFlags().Int("px-per-grid", defaultPxPerGrid, "Grid cell size in pixels")
	rootCmd.PersistentFlags().String("output-dir", "./tiles", "Output directory for generated tiles")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"seed", "seed"},
		{"px_per_grid", "px-per-grid"},
		{"output-dir", "output-dir"},
		{"verbose", "verbose"},
	}
	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, rootCmd.PersistentFlags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PERLIN2D")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
