package store

import (
	"errors"
	"fmt"
)

// Stage names the persistence step a save failed at.
type Stage string

const (
	StageRender   Stage = "render"
	StageBlob     Stage = "blob"
	StageMetadata Stage = "metadata"
	StageSteps    Stage = "steps"
	StageFiles    Stage = "files"
)

// PersistError is returned by Save when a sub-store write fails. Writes
// committed by earlier stages are not rolled back.
type PersistError struct {
	Stage    Stage
	ManualID string
	Err      error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("store: save %s: %s write failed: %v", e.ManualID, e.Stage, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsStage reports whether err is a PersistError for stage.
func IsStage(err error, stage Stage) bool {
	var pe *PersistError
	return errors.As(err, &pe) && pe.Stage == stage
}
