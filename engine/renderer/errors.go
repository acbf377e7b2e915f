package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/triangle/engine/core"
	"github.com/spaghettifunk/triangle/engine/renderer/metadata"
)

var (
	ErrInitialization     = errors.New("initialization failed")
	ErrSwapchainCreation  = errors.New("swapchain creation failed")
	ErrShaderLoad         = errors.New("shader load failed")
	ErrPipelineCreation   = errors.New("pipeline creation failed")
	ErrFrameResources     = errors.New("frame resources creation failed")
	ErrCommandRecording   = errors.New("command buffer recording failed")
	ErrSynchronization    = errors.New("synchronization failed")
	ErrSurfaceAcquisition = errors.New("surface image acquisition failed")
	ErrSubmission         = errors.New("queue submission failed")
	ErrPresentation       = errors.New("presentation failed")
	ErrNotInitialized     = errors.New("renderer not initialized")
)

// StageError reports which stage of which component failed. Kind is one of
// the Err* sentinels above so callers can use errors.Is on it.
type StageError struct {
	Kind  error
	Stage string
	// Code is ResultSuccess when the failure did not come from a native call.
	Code metadata.Result
	// Index is the image index for per-image failures, -1 otherwise.
	Index int
	Err   error
}

func (e *StageError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Stage)
	if e.Index >= 0 {
		msg += fmt.Sprintf(" [%d]", e.Index)
	}
	if e.Code != metadata.ResultSuccess {
		msg += fmt.Sprintf(" (%s)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// stageError builds a StageError, pulls the native code out of err when there
// is one, and logs it.
func stageError(kind error, stage string, index int, err error) *StageError {
	se := &StageError{Kind: kind, Stage: stage, Index: index, Err: err}
	var re *metadata.ResultError
	if errors.As(err, &re) {
		se.Code = re.Result
	}
	core.LogError("%s", se.Error())
	return se
}

// resultError is stageError for calls that report a bare result code.
func resultError(kind error, stage string, result metadata.Result) *StageError {
	return stageError(kind, stage, -1, metadata.NewResultError(stage, result))
}
