// Package target defines the MemoryTarget capability: the one interface
// through which the expression engine and the scan driver touch an
// attached process's address space. The core depends only on this
// package; internal/localtarget (ptrace) and internal/remotetarget
// (websocket agent) are its two concrete realizations.
package target

import "github.com/pkg/errors"

// ErrNotSupported reports an operation the concrete target cannot
// perform, such as reading an unmapped address on an in-memory fake or
// pausing a target that has no stop mechanism.
var ErrNotSupported = errors.New("target: operation not supported")

// Address is a location in the target's address space. It is always
// carried at 64 bits; a 32-bit target simply never produces values
// above 2^32.
type Address uint64

// Protection is the r/w/x permission bits of a mapped region.
type Protection uint8

const (
	ProtRead Protection = 1 << iota
	ProtWrite
	ProtExec
)

// String renders the bits in /proc/<pid>/maps style: "rw-", "r-x", ...
func (p Protection) String() string {
	b := [3]byte{'-', '-', '-'}
	if p&ProtRead != 0 {
		b[0] = 'r'
	}
	if p&ProtWrite != 0 {
		b[1] = 'w'
	}
	if p&ProtExec != 0 {
		b[2] = 'x'
	}
	return string(b[:])
}

// Region is one contiguous mapped range of the target's address space.
type Region struct {
	Start Address
	Size  uint64
	Prot  Protection
	Name  string
}

// End is the first address past the region.
func (r Region) End() Address { return r.Start + Address(r.Size) }

// MemoryTarget abstracts an attached process's memory. Read and Write
// transfer exactly len(buf) bytes or fail. Pause stops the target so a
// scan or a DEREF evaluation sees a consistent snapshot; Resume lets it
// run again. Regions enumerates the mapped ranges in the order the scan
// visits them. AddressWidth reports 32 or 64, fixed at attach time.
type MemoryTarget interface {
	Read(addr Address, buf []byte) error
	Write(addr Address, buf []byte) error
	Pause() error
	Resume() error
	Regions() ([]Region, error)
	AddressWidth() int
	Close() error
}
