//go:build !linux

package localtarget

import (
	"github.com/pkg/errors"

	"memfuzz/internal/target"
)

// Target is a placeholder on platforms without ptrace support; Attach
// always fails, so no method is ever reached.
type Target struct{}

func Attach(pid int) (*Target, error) {
	return nil, errors.New("localtarget: local process attach requires linux")
}

func (t *Target) Read(addr target.Address, buf []byte) error  { return target.ErrNotSupported }
func (t *Target) Write(addr target.Address, buf []byte) error { return target.ErrNotSupported }
func (t *Target) Pause() error                                { return target.ErrNotSupported }
func (t *Target) Resume() error                               { return target.ErrNotSupported }
func (t *Target) Regions() ([]target.Region, error)           { return nil, target.ErrNotSupported }
func (t *Target) AddressWidth() int                           { return 64 }
func (t *Target) Close() error                                { return nil }
