package frames

import (
	"sync/atomic"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// MotionRecorder is notified of every evaluation of the motion of a frame.
type MotionRecorder interface {
	ObserveMotionEvaluation(variant string)
}

// Instrumented wraps a frame and counts the evaluations of its motion. It is
// a decorator, not a new kind of frame: it describes itself as the frame it
// wraps.
type Instrumented[I, T geometry.Frame] struct {
	ReferenceFrame[I, T]
	recorder    MotionRecorder
	evaluations atomic.Int64
}

// Instrument returns f counting its motion evaluations, optionally reporting
// them to recorder.
func Instrument[I, T geometry.Frame](f ReferenceFrame[I, T], recorder MotionRecorder) *Instrumented[I, T] {
	return &Instrumented[I, T]{ReferenceFrame: f, recorder: recorder}
}

func (f *Instrumented[I, T]) MotionOfThisFrame(t geometry.Instant) (physics.AcceleratedRigidMotion[I, T], error) {
	f.evaluations.Add(1)
	if f.recorder != nil {
		f.recorder.ObserveMotionEvaluation(f.Variant().String())
	}
	return f.ReferenceFrame.MotionOfThisFrame(t)
}

// MotionEvaluations returns the number of calls to MotionOfThisFrame so far.
func (f *Instrumented[I, T]) MotionEvaluations() int64 { return f.evaluations.Load() }
