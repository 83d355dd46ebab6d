//go:build !cgo

package hal

import "errors"

func RunWindow(_ Config, _ NewApp) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1); use --headless")
}
