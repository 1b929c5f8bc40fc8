package ui

import (
	"context"
	"time"

	"dermascan/internal/camera"
	"dermascan/internal/controller"
	"dermascan/internal/imageio"
	"dermascan/internal/predict"
	"dermascan/internal/render"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const (
	defaultFrameInterval = 250 * time.Millisecond

	thumbCols = 40
	thumbRows = 14
)

// Options are the settings the UI needs from configuration.
type Options struct {
	Endpoint           string
	Camera             camera.Options
	FrameInterval      time.Duration
	UploadMaxDimension int
	JPEGQuality        int
	StartDir           string
}

// AppModel is the root model. It owns the controller and translates
// between Bubble Tea messages and controller events.
type AppModel struct {
	Mode       AppMode
	Controller *controller.Controller
	Predictor  predict.Predictor
	Camera     camera.Camera
	KeyHandler *KeyHandler
	Overlays   OverlayStack
	Options    Options

	spinner spinner.Model
	help    help.Model
	width   int
	height  int

	cameraToken uint64
	liveFrame   string

	thumbFor *imageio.Image
	thumb    string

	health    string
	healthErr bool

	ctx    context.Context
	logger *zap.Logger
}

// Ensure AppModel can be used as tea.Model via adapter.
var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel creates the root application model.
func NewAppModel(opts Options, p predict.Predictor, cam camera.Camera, logger *zap.Logger) *AppModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = defaultFrameInterval
	}
	return &AppModel{
		Mode:       ModeMain,
		Controller: controller.New(logger.Named("controller")),
		Predictor:  p,
		Camera:     cam,
		KeyHandler: NewKeyHandler(defaultKeybinds()),
		Options:    opts,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(Styles.Title)),
		help:       newHelpModel(),
		ctx:        context.Background(),
		logger:     logger,
	}
}

// defaultKeybinds wires keys to intents. Phase filters keep a key from
// firing where its action makes no sense.
func defaultKeybinds() *KeybindRegistry {
	msg := func(m tea.Msg) tea.Cmd { return func() tea.Msg { return m } }
	reg := NewKeybindRegistry()
	reg.Bind("u", msg(OpenFilePickerMsg{}), "upload")
	reg.BindForPhases("c", msg(OpenCameraMsg{}), "camera",
		controller.PhaseIdle, controller.PhasePreviewing)
	reg.BindForPhases("SPC", msg(CaptureMsg{}), "capture", controller.PhaseCapturing)
	reg.BindForPhases("enter", msg(CaptureMsg{}), "", controller.PhaseCapturing)
	reg.BindForPhases("enter", msg(AnalyzeMsg{}), "analyze",
		controller.PhaseIdle, controller.PhasePreviewing)
	reg.BindForPhases("a", msg(AnalyzeMsg{}), "",
		controller.PhaseIdle, controller.PhasePreviewing)
	reg.BindForPhases("esc", msg(CancelMsg{}), "cancel", controller.PhaseCapturing)
	reg.BindForPhases("esc", msg(CancelMsg{}), "abort", controller.PhaseAnalyzing)
	reg.BindForPhases("esc", msg(DismissNoticeMsg{}), "",
		controller.PhaseIdle, controller.PhasePreviewing)
	reg.Bind("x", msg(ClearMsg{}), "clear")
	reg.Bind("q", msg(QuitMsg{}), "quit")
	reg.Bind("ctrl+c", msg(QuitMsg{}), "")
	return reg
}

// WithContext sets the parent context for analyze requests.
func (m *AppModel) WithContext(ctx context.Context) *AppModel {
	if ctx != nil {
		m.ctx = ctx
	}
	return m
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}

// VisualState is the state View draws.
func (m *AppModel) VisualState() render.VisualState {
	return render.Compute(m.Controller.Snapshot())
}

// spinning reports whether a region shows the spinner.
func (m *AppModel) spinning() bool {
	switch m.Controller.Phase() {
	case controller.PhaseAnalyzing:
		return true
	case controller.PhaseCapturing:
		return m.liveFrame == ""
	}
	return false
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	if h, ok := a.Predictor.(HealthChecker); ok {
		return healthCmd(h)
	}
	return nil
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.help.Width = msg.Width
		cmd, _ := a.Overlays.UpdateTop(msg)
		return a, cmd
	case tea.KeyMsg:
		return a.handleKey(msg)
	case spinner.TickMsg:
		if !a.spinning() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case OpenFilePickerMsg:
		return a.handleOpenFilePicker()
	case FileChosenMsg:
		a.closeOverlay()
		return a, loadFileCmd(msg.Path)
	case fileLoadedMsg:
		return a.handleFileLoaded(msg)
	case OpenCameraMsg:
		return a.handleOpenCamera()
	case cameraOpenedMsg:
		return a.handleCameraOpened(msg)
	case frameTickMsg:
		return a.handleFrameTick(msg)
	case frameMsg:
		return a.handleFrame(msg)
	case CaptureMsg:
		return a.handleCapture()
	case capturedMsg:
		return a.handleCaptured(msg)
	case CancelMsg:
		return a.handleCancel()
	case AnalyzeMsg:
		return a.handleAnalyze()
	case analyzeDoneMsg:
		return a.handleAnalyzeDone(msg)
	case ClearMsg:
		a.Controller.Clear()
		a.liveFrame = ""
		return a, nil
	case DismissNoticeMsg:
		a.Controller.DismissNotice()
		return a, nil
	case healthMsg:
		a.health, a.healthErr = msg.status, msg.err != nil
		if msg.err != nil {
			a.logger.Warn("health probe failed", zap.Error(msg.err))
			a.health = "unreachable"
		}
		return a, nil
	case QuitMsg:
		a.Controller.Shutdown()
		return a, tea.Quit
	}

	// Anything else (e.g. directory listings) belongs to the open overlay.
	if cmd, ok := a.Overlays.UpdateTop(msg); ok {
		return a, cmd
	}
	return a, nil
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	return a.render()
}
