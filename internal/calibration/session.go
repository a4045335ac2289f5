package calibration

import (
	"context"
	"fmt"
	"time"

	"github.com/immersive-av/immersive-server/internal/network"
)

// State is one step of the calibrator's state machine. Session.Run goes
// Reference(White) -> Reference(Black) -> Pattern(bit,dir) -> Decoding
// -> Fitting for each projector, then back to Idle. StateOverlap and
// StateExporting are defined, but Session never enters them; overlap
// detection and mask export run in cmd/calibrator after Run returns.
type State int

const (
	StateIdle State = iota
	StateReferenceWhite
	StateReferenceBlack
	StatePattern
	StateDecoding
	StateFitting
	StateOverlap
	StateExporting
)

func (s State) String() string {
	switch s {
	case StateReferenceWhite:
		return "reference-white"
	case StateReferenceBlack:
		return "reference-black"
	case StatePattern:
		return "pattern"
	case StateDecoding:
		return "decoding"
	case StateFitting:
		return "fitting"
	case StateOverlap:
		return "overlap"
	case StateExporting:
		return "exporting"
	default:
		return "idle"
	}
}

// Displayer shows one pattern frame on a projector; cmd/calibrator wires
// this to an output.Window/gpu.Output, kept out of this package since
// those already depend on it the other direction.
type Displayer interface {
	Display(pix []byte, width, height int) error
}

// ProjectorConfig is the per-projector input to a calibration Run.
type ProjectorConfig struct {
	Index     int
	Width     int
	Height    int
	Display   Displayer
	Threshold float64 // 0 = use DefaultContrastThreshold
}

// ProjectorResult is one projector's completed calibration.
type ProjectorResult struct {
	Index           int
	Correspondences []Correspondence
	Homography      Homography
	HomographyOK    bool
}

// Session drives the full multi-projector calibration sequence against
// a camera FrameSource.
type Session struct {
	camera      network.FrameSource
	progress    *Progress
	settle      time.Duration
	sampleCount int
	state       State
}

const (
	defaultSettle      = 150 * time.Millisecond
	defaultSampleCount = 8
)

// NewSession builds a Session reading frames from camera.
func NewSession(camera network.FrameSource, progress *Progress) *Session {
	return &Session{
		camera:      camera,
		progress:    progress,
		settle:      defaultSettle,
		sampleCount: defaultSampleCount,
	}
}

func (s *Session) setState(st State, detail string) {
	s.state = st
	if s.progress != nil {
		s.progress.Report(st, detail)
	}
}

// State returns the session's current state, for callers that want to
// report or persist progress externally.
func (s *Session) State() State { return s.state }

// Run executes the full calibration state machine for every projector
// in order, returning each projector's decoded correspondences and
// fitted homography. On camera disconnect mid-sequence it aborts and
// returns to Idle, preserving whatever correspondences had already been
// decoded for completed projectors.
func (s *Session) Run(ctx context.Context, projectors []ProjectorConfig) ([]ProjectorResult, error) {
	var results []ProjectorResult
	for _, pc := range projectors {
		res, err := s.runProjector(ctx, pc)
		if err != nil {
			s.setState(StateIdle, fmt.Sprintf("projector %d aborted: %v", pc.Index, err))
			return results, err
		}
		results = append(results, res)
	}
	s.setState(StateIdle, "calibration complete")
	return results, nil
}

func (s *Session) runProjector(ctx context.Context, pc ProjectorConfig) (ProjectorResult, error) {
	decoder := NewDecoder(pc.Width, pc.Height)
	if pc.Threshold > 0 {
		decoder.Threshold = pc.Threshold
	}

	white, err := s.showAndCapture(ctx, pc, solidPattern(255, pc.Width, pc.Height), StateReferenceWhite, "white reference")
	if err != nil {
		return ProjectorResult{}, err
	}
	black, err := s.showAndCapture(ctx, pc, solidPattern(0, pc.Width, pc.Height), StateReferenceBlack, "black reference")
	if err != nil {
		return ProjectorResult{}, err
	}
	decoder.SetReference(white, black)

	for _, p := range GeneratePatterns(pc.Width, pc.Height) {
		frame, err := s.showAndCapture(ctx, pc, RenderPattern(p, pc.Width, pc.Height), StatePattern,
			fmt.Sprintf("bit=%d dir=%d inverted=%v", p.Bit, p.Direction, p.Inverted))
		if err != nil {
			return ProjectorResult{}, err
		}
		decoder.AddCapture(p, frame)
	}

	s.setState(StateDecoding, fmt.Sprintf("projector %d", pc.Index))
	correspondences := decoder.Decode()

	s.setState(StateFitting, fmt.Sprintf("%d correspondences", len(correspondences)))
	h, _, ok := FitHomographyRANSAC(correspondences, nil)

	return ProjectorResult{
		Index:           pc.Index,
		Correspondences: correspondences,
		Homography:      h,
		HomographyOK:    ok,
	}, nil
}

// showAndCapture displays pix on pc.Display, waits the settle time, then
// averages s.sampleCount camera frames into a grayscale Frame.
func (s *Session) showAndCapture(ctx context.Context, pc ProjectorConfig, pix []byte, st State, detail string) (Frame, error) {
	s.setState(st, detail)
	if pc.Display != nil {
		if err := pc.Display.Display(pix, pc.Width, pc.Height); err != nil {
			return Frame{}, &Error{Operation: "display pattern", Details: detail, Err: err}
		}
	}

	select {
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-time.After(s.settle):
	}

	return s.captureAverage(ctx)
}

// captureAverage pulls s.sampleCount frames from the camera FrameSource,
// converts each to grayscale luminance, and averages them.
func (s *Session) captureAverage(ctx context.Context) (Frame, error) {
	var sum []float64
	var width, height int
	collected := 0
	deadline := time.After(2 * time.Second)

	for collected < s.sampleCount {
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-deadline:
			return Frame{}, &Error{Operation: "capture frame", Details: "camera timed out"}
		default:
		}

		f, ok := s.camera.TryReceive()
		if !ok {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if sum == nil {
			width, height = f.Width, f.Height
			sum = make([]float64, width*height)
		}
		for i := 0; i < width*height; i++ {
			r, g, b := float64(f.Pix[i*4+2]), float64(f.Pix[i*4+1]), float64(f.Pix[i*4])
			sum[i] += 0.299*r + 0.587*g + 0.114*b
		}
		collected++
	}

	for i := range sum {
		sum[i] /= float64(collected)
	}
	return Frame{Width: width, Height: height, Pix: sum}, nil
}

func solidPattern(level byte, width, height int) []byte {
	buf := make([]byte, width*height)
	for i := range buf {
		buf[i] = level
	}
	return buf
}
