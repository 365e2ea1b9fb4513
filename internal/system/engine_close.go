package system

import (
	"errors"
)

// Close releases the snapshot store and remote clients. Open SQLite
// handles otherwise keep temp directories alive on Windows.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}

	var errs []error

	if e.Store != nil {
		if err := e.Store.Close(); err != nil {
			errs = append(errs, err)
		}
		e.Store = nil
	}

	if e.gcs != nil {
		if err := e.gcs.Close(); err != nil {
			errs = append(errs, err)
		}
		e.gcs = nil
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
