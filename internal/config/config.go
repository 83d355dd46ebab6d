// Package config loads the carousel settings from flags, CAROUSEL_* environment variables
// and an optional config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"carousel/carousel"
	"carousel/hal"
	"carousel/quarkgl"
	"carousel/video"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	configFile = configVar[string]{
		envKey:  "CAROUSEL_CONFIG",
		flagKey: "config",
		usage:   "Config file (yaml, toml or json)",
	}
	headless = configVar[bool]{
		envKey:  "CAROUSEL_HEADLESS",
		flagKey: "headless",
		usage:   "Run without a window",
	}
	hz = configVar[int]{
		envKey:       "CAROUSEL_HZ",
		flagKey:      "hz",
		defaultValue: 60,
		usage:        "Tick rate in headless mode",
	}
	ticks = configVar[uint64]{
		envKey:  "CAROUSEL_TICKS",
		flagKey: "ticks",
		usage:   "Stop after N ticks in headless mode (0 = run forever)",
	}
	snapshot = configVar[string]{
		envKey:  "CAROUSEL_SNAPSHOT",
		flagKey: "snapshot",
		usage:   "Write the last headless frame to this PNG file",
	}
	width = configVar[int]{
		envKey:       "CAROUSEL_WIDTH",
		flagKey:      "width",
		defaultValue: 960,
		usage:        "Viewport width",
	}
	height = configVar[int]{
		envKey:       "CAROUSEL_HEIGHT",
		flagKey:      "height",
		defaultValue: 540,
		usage:        "Viewport height",
	}
	videos = configVar[[]string]{
		envKey:       "CAROUSEL_VIDEOS",
		flagKey:      "videos",
		defaultValue: []string{"pattern:North", "pattern:East", "pattern:South", "pattern:West"},
		usage:        "Video sources: pattern:<label>, dir:<path>, live:<path>, file:<path> or a path",
	}
	fps = configVar[float64]{
		envKey:       "CAROUSEL_FPS",
		flagKey:      "fps",
		defaultValue: 30,
		usage:        "Frame rate of patterns and frame directories",
	}
	preroll = configVar[time.Duration]{
		envKey:  "CAROUSEL_PREROLL",
		flagKey: "preroll",
		usage:   "Time patterns spend buffering before they play",
	}
	loop = configVar[bool]{
		envKey:       "CAROUSEL_LOOP",
		flagKey:      "loop",
		defaultValue: true,
		usage:        "Loop frame directories",
	}
	paneWidth = configVar[int]{
		envKey:       "CAROUSEL_PANE_WIDTH",
		flagKey:      "pane-width",
		defaultValue: carousel.DefaultPaneWidth,
		usage:        "Video pane canvas width",
	}
	paneHeight = configVar[int]{
		envKey:       "CAROUSEL_PANE_HEIGHT",
		flagKey:      "pane-height",
		defaultValue: carousel.DefaultPaneHeight,
		usage:        "Video pane canvas height",
	}
	sphereDepth = configVar[float64]{
		envKey:       "CAROUSEL_SPHERE_DEPTH",
		flagKey:      "sphere-depth",
		defaultValue: carousel.DefaultSphereDepth,
		usage:        "Sphere diameter and camera far plane",
	}
	segmentsWidth = configVar[int]{
		envKey:       "CAROUSEL_SEGMENTS_WIDTH",
		flagKey:      "segments-width",
		defaultValue: carousel.DefaultSegmentsWidth,
		usage:        "Sphere horizontal segments",
	}
	segmentsHeight = configVar[int]{
		envKey:       "CAROUSEL_SEGMENTS_HEIGHT",
		flagKey:      "segments-height",
		defaultValue: carousel.DefaultSegmentsHeight,
		usage:        "Sphere vertical segments",
	}
	cameraDistance = configVar[float64]{
		envKey:       "CAROUSEL_CAMERA_DISTANCE",
		flagKey:      "camera-distance",
		defaultValue: carousel.DefaultCameraDistance,
		usage:        "Initial camera position along the view axis",
	}
	renderMode = configVar[string]{
		envKey:       "CAROUSEL_RENDER_MODE",
		flagKey:      "render-mode",
		defaultValue: "textured",
		usage:        "Sphere fill: textured, flat, wireframe or uv",
	}
	logLevel = configVar[string]{
		envKey:       "CAROUSEL_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
)

// Config is the resolved run configuration.
type Config struct {
	Headless bool          `json:"headless"`
	Hz       int           `json:"hz" validate:"gt=0,lte=1000"`
	Ticks    uint64        `json:"ticks"`
	Snapshot string        `json:"snapshot"`
	Width    int           `json:"width" validate:"gt=0"`
	Height   int           `json:"height" validate:"gt=0"`
	Videos   []string      `json:"videos" validate:"min=1,dive,required"`
	FPS      float64       `json:"fps" validate:"gt=0"`
	Preroll  time.Duration `json:"preroll" validate:"gte=0"`
	Loop     bool          `json:"loop"`

	PaneWidth      int     `json:"pane-width" validate:"gt=0"`
	PaneHeight     int     `json:"pane-height" validate:"gt=0"`
	SphereDepth    float64 `json:"sphere-depth" validate:"gt=0"`
	SegmentsWidth  int     `json:"segments-width" validate:"gte=3"`
	SegmentsHeight int     `json:"segments-height" validate:"gte=2"`
	CameraDistance float64 `json:"camera-distance" validate:"gte=0,ltfield=SphereDepth"`
	RenderMode     string  `json:"render-mode" validate:"oneof=textured flat wireframe uv"`

	LogLevel string `json:"log-level" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Load parses args (without the program name) and resolves every key. It returns
// pflag.ErrHelp when help was requested.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("carousel", pflag.ContinueOnError)
	v := viper.New()

	register(fs, configFile)
	register(fs, headless)
	register(fs, hz)
	register(fs, ticks)
	register(fs, snapshot)
	register(fs, width)
	register(fs, height)
	register(fs, videos)
	register(fs, fps)
	register(fs, preroll)
	register(fs, loop)
	register(fs, paneWidth)
	register(fs, paneHeight)
	register(fs, sphereDepth)
	register(fs, segmentsWidth)
	register(fs, segmentsHeight)
	register(fs, cameraDistance)
	register(fs, renderMode)
	register(fs, logLevel)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := v.BindPFlags(fs); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	bind(v, configFile)
	bind(v, headless)
	bind(v, hz)
	bind(v, ticks)
	bind(v, snapshot)
	bind(v, width)
	bind(v, height)
	bind(v, videos)
	bind(v, fps)
	bind(v, preroll)
	bind(v, loop)
	bind(v, paneWidth)
	bind(v, paneHeight)
	bind(v, sphereDepth)
	bind(v, segmentsWidth)
	bind(v, segmentsHeight)
	bind(v, cameraDistance)
	bind(v, renderMode)
	bind(v, logLevel)

	if path := v.GetString(configFile.flagKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Headless:       v.GetBool(headless.flagKey),
		Hz:             v.GetInt(hz.flagKey),
		Ticks:          v.GetUint64(ticks.flagKey),
		Snapshot:       v.GetString(snapshot.flagKey),
		Width:          v.GetInt(width.flagKey),
		Height:         v.GetInt(height.flagKey),
		Videos:         splitList(v.GetStringSlice(videos.flagKey)),
		FPS:            v.GetFloat64(fps.flagKey),
		Preroll:        v.GetDuration(preroll.flagKey),
		Loop:           v.GetBool(loop.flagKey),
		PaneWidth:      v.GetInt(paneWidth.flagKey),
		PaneHeight:     v.GetInt(paneHeight.flagKey),
		SphereDepth:    v.GetFloat64(sphereDepth.flagKey),
		SegmentsWidth:  v.GetInt(segmentsWidth.flagKey),
		SegmentsHeight: v.GetInt(segmentsHeight.flagKey),
		CameraDistance: v.GetFloat64(cameraDistance.flagKey),
		RenderMode:     strings.ToLower(v.GetString(renderMode.flagKey)),
		LogLevel:       strings.ToUpper(v.GetString(logLevel.flagKey)),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func register[T any](fs *pflag.FlagSet, c configVar[T]) {
	switch d := any(c.defaultValue).(type) {
	case bool:
		fs.Bool(c.flagKey, d, c.usage)
	case int:
		fs.Int(c.flagKey, d, c.usage)
	case uint64:
		fs.Uint64(c.flagKey, d, c.usage)
	case float64:
		fs.Float64(c.flagKey, d, c.usage)
	case string:
		fs.String(c.flagKey, d, c.usage)
	case []string:
		fs.StringSlice(c.flagKey, d, c.usage)
	case time.Duration:
		fs.Duration(c.flagKey, d, c.usage)
	default:
		panic(fmt.Sprintf("config: unsupported flag type %T", d))
	}
}

func bind[T any](v *viper.Viper, c configVar[T]) {
	_ = v.BindEnv(c.flagKey, c.envKey)
	v.SetDefault(c.flagKey, c.defaultValue)
}

// splitList accepts both repeated values and comma separated environment values.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate reports every invalid key.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("config: %s: %s", fe.Field(), message(fe)))
	}
	return errors.Join(errs...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must not exceed " + fe.Param()
	case "min":
		return "needs at least " + fe.Param() + " entries"
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "ltfield":
		return "must be less than sphere-depth"
	default:
		return "failed " + fe.Tag()
	}
}

// SlogLevel returns the parsed log level.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (c Config) HAL() hal.Config {
	return hal.Config{Width: c.Width, Height: c.Height, LogLevel: c.SlogLevel()}
}

func (c Config) HeadlessConfig() hal.HeadlessConfig {
	return hal.HeadlessConfig{Enabled: c.Headless, Hz: c.Hz, Ticks: c.Ticks, Snapshot: c.Snapshot}
}

func (c Config) VideoOptions() video.Options {
	return video.Options{FPS: c.FPS, Preroll: c.Preroll, Loop: c.Loop}
}

var renderModes = map[string]quarkgl.RenderMode{
	"textured":  quarkgl.RenderSolidTextured,
	"flat":      quarkgl.RenderSolidFlat,
	"wireframe": quarkgl.RenderWireframe,
	"uv":        quarkgl.RenderSolidVertexColor,
}

func (c Config) Carousel() carousel.Config {
	cc := carousel.DefaultConfig()
	cc.PaneWidth = c.PaneWidth
	cc.PaneHeight = c.PaneHeight
	cc.SphereDepth = c.SphereDepth
	cc.SegmentsWidth = c.SegmentsWidth
	cc.SegmentsHeight = c.SegmentsHeight
	cc.CameraDistance = c.CameraDistance
	if m, ok := renderModes[c.RenderMode]; ok {
		cc.RenderMode = m
	}
	return cc
}
