package cmd

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/Brownie44l1/fashion-api/internal/config"
	"github.com/Brownie44l1/fashion-api/internal/logger"
	"github.com/Brownie44l1/fashion-api/internal/model"
	"github.com/Brownie44l1/fashion-api/internal/preprocess"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cliOptions struct {
	configFile string
	resize     string
}

func NewCLI() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "fashionctl",
		Short:         "Classify garment images with a Fashion-MNIST model",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&opts.resize, "resize", "", "resize method: bilinear or nearest")

	root.AddCommand(newPredictCmd(opts), newPreprocessCmd(opts))
	return root
}

func loadConfig(opts *cliOptions) (*config.Config, error) {
	v := viper.New()
	if opts.resize != "" {
		v.Set("resize_method", opts.resize)
	}
	return config.Load(v, opts.configFile)
}

func readRaster(path string, maxPixels int) (*preprocess.RasterImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raster, _, err := preprocess.Decode(data, maxPixels)
	return raster, err
}

func newPredictCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predict IMAGE",
		Short: "Normalize an image and print the predicted class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log := logger.Init(cfg.AppLogLevel, true)

			raster, err := readRaster(args[0], cfg.MaxImagePixels)
			if err != nil {
				return err
			}
			tensor, err := cfg.Normalizer().Normalize(raster)
			if err != nil {
				return err
			}

			server, err := model.Load(cmd.Context(), cfg.LoadOptions(), log)
			if err != nil {
				return err
			}
			defer model.Shutdown()
			defer server.Close()

			result, err := model.Predict(tensor, server)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result, server.Metadata.Classes)
		},
	}
}

func printResult(w io.Writer, result *model.PredictionResult, labels model.Labels) error {
	class, err := labels.Label(result)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d: %s (%.2f%%)\n", result.Index, class, result.Confidence*100)
	for i, score := range result.Scores {
		fmt.Fprintf(w, "  %d: %-12s %6.2f%%\n", i, labels[i], score*100)
	}
	return nil
}

// writePNG encodes img to w and closes it. A failed close is reported, since
// the file may not be fully written.
func writePNG(w io.WriteCloser, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func newPreprocessCmd(opts *cliOptions) *cobra.Command {
	var output string

	c := &cobra.Command{
		Use:   "preprocess IMAGE",
		Short: "Write the normalized 28x28 tensor as a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			raster, err := readRaster(args[0], cfg.MaxImagePixels)
			if err != nil {
				return err
			}
			tensor, err := cfg.Normalizer().Normalize(raster)
			if err != nil {
				return err
			}

			lo, hi := tensor.MinMax()
			fmt.Fprintf(cmd.OutOrStdout(), "shape %v, range [%.4f, %.4f]\n", tensor.Shape, lo, hi)

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			return writePNG(f, tensor.Image())
		},
	}
	c.Flags().StringVarP(&output, "output", "o", "normalized.png", "output PNG path")
	return c
}
