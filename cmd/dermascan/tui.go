package main

import (
	"fmt"

	"dermascan/internal/camera"
	"dermascan/internal/config"
	"dermascan/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runTUI(cmd *cobra.Command) error {
	rt, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	opts := ui.Options{
		Endpoint:           rt.cfg.Endpoint,
		Camera:             cameraOptions(rt.cfg.Camera),
		FrameInterval:      rt.cfg.Camera.FrameInterval,
		UploadMaxDimension: rt.cfg.Upload.MaxDimension,
		JPEGQuality:        rt.cfg.Upload.JPEGQuality,
		StartDir:           rt.cfg.StartDir,
	}
	model := ui.NewAppModel(opts, rt.client, newCamera(rt.cfg.Camera), rt.logger.Named("ui")).
		WithContext(cmd.Context())

	rt.logger.Info("starting", zap.String("endpoint", rt.cfg.Endpoint))
	p := tea.NewProgram(model.AsTeaModel(), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		model.Controller.Shutdown()
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}

// newCamera picks the still-image camera when a file is configured,
// otherwise the capture device.
func newCamera(c config.CameraConfig) camera.Camera {
	if c.File != "" {
		return camera.NewStatic(c.File)
	}
	return camera.NewDevice()
}

func cameraOptions(c config.CameraConfig) camera.Options {
	return camera.Options{
		Facing:     camera.Facing(c.Facing),
		RearDevice: c.RearDevice,
		Device:     c.Device,
		Width:      c.Width,
		Height:     c.Height,
	}
}
