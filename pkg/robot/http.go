package robot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-bullseye/internal/httpc"
	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds every actuator round-trip.
const DefaultTimeout = 2 * time.Second

// Actuator endpoints.
const (
	PathControl       = "/control"
	PathControlMicros = "/control_micros"
	PathStatus        = "/status"
)

// maxErrorBody caps how much of an error reply is kept.
const maxErrorBody = 256

// Limits are the clamps applied right before transmission.
type Limits struct {
	TiltMin, TiltMax float64
	ServoMinUS       int
	ServoMaxUS       int
}

// LimitsFromConfig takes the transport clamps from the tracking config.
// Pan is always clamped to the servo's own 0-180° travel.
func LimitsFromConfig(cfg tracking.Config) Limits {
	return Limits{
		TiltMin:    cfg.TiltMin,
		TiltMax:    cfg.TiltMax,
		ServoMinUS: cfg.ServoMinUS,
		ServoMaxUS: cfg.ServoMaxUS,
	}
}

// ClampAngles applies the degree-form transport clamp.
func (l Limits) ClampAngles(pan, tilt float64) (float64, float64) {
	return clamp(pan, 0, tracking.ServoSpanDegrees), clamp(tilt, l.TiltMin, l.TiltMax)
}

// ClampPulses applies the pulse-form transport clamp.
func (l Limits) ClampPulses(panUS, tiltUS int) (int, int) {
	return clampInt(panUS, l.ServoMinUS, l.ServoMaxUS), clampInt(tiltUS, l.ServoMinUS, l.ServoMaxUS)
}

// HTTPController drives the ESP32 over its form-encoded HTTP API.
type HTTPController struct {
	BaseURL string
	Limits  Limits

	client *http.Client
}

// NewHTTPController creates a controller for the actuator at baseURL
// (for example "http://192.168.4.1") with a 2s timeout.
func NewHTTPController(baseURL string, limits Limits) *HTTPController {
	return &HTTPController{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Limits:  limits,
		client:  httpc.NewClient(DefaultTimeout),
	}
}

// SetAngles sends a degree command. Values go out with two decimals.
func (r *HTTPController) SetAngles(ctx context.Context, pan, tilt float64) (Reply, error) {
	pan, tilt = r.Limits.ClampAngles(pan, tilt)
	reply := Reply{Sent: tracking.Pose{Pan: pan, Tilt: tilt}}

	form := url.Values{}
	form.Set("pan", strconv.FormatFloat(pan, 'f', 2, 64))
	form.Set("tilt", strconv.FormatFloat(tilt, 'f', 2, 64))

	reported, err := r.post(ctx, PathControl, form)
	reply.Reported = reported
	return reply, err
}

// SetPulses sends a pulse-width command.
func (r *HTTPController) SetPulses(ctx context.Context, panUS, tiltUS int) (Reply, error) {
	panUS, tiltUS = r.Limits.ClampPulses(panUS, tiltUS)
	reply := Reply{Sent: tracking.Pose{PanUS: panUS, TiltUS: tiltUS}}

	form := url.Values{}
	form.Set("pan_us", strconv.Itoa(panUS))
	form.Set("tilt_us", strconv.Itoa(tiltUS))

	reported, err := r.post(ctx, PathControlMicros, form)
	reply.Reported = reported
	return reply, err
}

// Status asks the actuator where it is.
func (r *HTTPController) Status(ctx context.Context) (tracking.Reported, error) {
	resp, err := httpc.Get(ctx, r.client, r.BaseURL+PathStatus)
	if err != nil {
		return tracking.Reported{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return decodeReply(resp, PathStatus)
}

func (r *HTTPController) post(ctx context.Context, path string, form url.Values) (tracking.Reported, error) {
	resp, err := httpc.PostForm(ctx, r.client, r.BaseURL+path, form)
	if err != nil {
		return tracking.Reported{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return decodeReply(resp, path)
}

// decodeReply reads a reply; any of pan, tilt, pan_us, tilt_us may be present.
func decodeReply(resp *http.Response, path string) (tracking.Reported, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return tracking.Reported{}, &StatusError{
			StatusCode: resp.StatusCode,
			Endpoint:   path,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tracking.Reported{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return tracking.Reported{}, nil
	}

	var reported tracking.Reported
	if err := json.Unmarshal(body, &reported); err != nil {
		return tracking.Reported{}, fmt.Errorf("%w: %v", ErrBadReply, err)
	}
	return reported, nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
