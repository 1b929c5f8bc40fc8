package main

import (
	"encoding/json"
	"fmt"

	"dermascan/internal/imageio"
	"dermascan/internal/render"
	"dermascan/internal/ui"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var predictJSON bool

var predictCmd = &cobra.Command{
	Use:   "predict [file]",
	Short: "Analyze one image file and print the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runPredict,
}

func init() {
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "print the raw result as JSON")
}

func runPredict(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	img, err := imageio.ReadFile(args[0])
	if err != nil {
		return err
	}
	upload, err := img.ForUpload(rt.cfg.Upload.MaxDimension, rt.cfg.Upload.JPEGQuality)
	if err != nil {
		return err
	}
	rt.logger.Debug("uploading",
		zap.String("file", upload.Name),
		zap.Int("bytes", upload.Size()),
		zap.Int("width", upload.Width),
		zap.Int("height", upload.Height))

	res, err := rt.client.Predict(cmd.Context(), upload)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", img.Name, err)
	}

	out := cmd.OutOrStdout()
	if predictJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Fprintln(out, ui.RenderResult(render.NewResultView(res), 60))
	return nil
}
