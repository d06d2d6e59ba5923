//go:build linux

// Package localtarget implements target.MemoryTarget by ptrace-attaching
// to a local Linux process. Reads and writes go through
// PTRACE_PEEKDATA/POKEDATA and region enumeration parses
// /proc/<pid>/maps, built on golang.org/x/sys/unix.
package localtarget

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/pkg/errors"

	"memfuzz/internal/target"
)

// Target attaches to one process via PTRACE_ATTACH and serves reads and
// writes through PTRACE_PEEKDATA/POKEDATA and region enumeration from
// /proc/<pid>/maps.
type Target struct {
	pid      int
	attached bool
}

// Attach ptrace-attaches to pid and waits for it to stop. The /proc
// entry is checked first so a missing pid fails with a clear error
// instead of an opaque ptrace errno.
func Attach(pid int) (*Target, error) {
	if _, err := os.Stat(fmt.Sprintf("/proc/%d", pid)); err != nil {
		return nil, errors.Wrapf(err, "localtarget: process %d not found", pid)
	}
	if err := unix.PtraceAttach(pid); err != nil {
		return nil, errors.Wrapf(err, "localtarget: ptrace attach %d", pid)
	}
	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return nil, errors.Wrapf(err, "localtarget: wait4 %d", pid)
	}
	return &Target{pid: pid, attached: true}, nil
}

func (t *Target) Read(addr target.Address, buf []byte) error {
	n, err := unix.PtracePeekData(t.pid, uintptr(addr), buf)
	if err != nil {
		return errors.Wrapf(err, "localtarget: read 0x%x", addr)
	}
	if n != len(buf) {
		return fmt.Errorf("localtarget: short read at 0x%x: got %d want %d", addr, n, len(buf))
	}
	return nil
}

func (t *Target) Write(addr target.Address, buf []byte) error {
	n, err := unix.PtracePokeData(t.pid, uintptr(addr), buf)
	if err != nil {
		return errors.Wrapf(err, "localtarget: write 0x%x", addr)
	}
	if n != len(buf) {
		return fmt.Errorf("localtarget: short write at 0x%x: wrote %d want %d", addr, n, len(buf))
	}
	return nil
}

func (t *Target) Pause() error {
	return unix.Kill(t.pid, unix.SIGSTOP)
}

func (t *Target) Resume() error {
	return unix.PtraceCont(t.pid, 0)
}

func (t *Target) Close() error {
	if !t.attached {
		return nil
	}
	t.attached = false
	return unix.PtraceDetach(t.pid)
}

// AddressWidth reports 64 unconditionally: PTRACE_PEEKDATA/POKEDATA
// operate in units of a native machine word, and this target only
// supports the amd64/arm64 hosts unix.PtracePeekData targets.
func (t *Target) AddressWidth() int { return 64 }

// Regions parses /proc/<pid>/maps into target.Region values, one per
// mapped line (address range, permissions, and the backing file or
// pseudo-path if any).
func (t *Target) Regions() ([]target.Region, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", t.pid))
	if err != nil {
		return nil, errors.Wrap(err, "localtarget: open maps")
	}
	defer f.Close()

	var regions []target.Region
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		addrRange := strings.SplitN(fields[0], "-", 2)
		if len(addrRange) != 2 {
			continue
		}
		start, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil {
			continue
		}

		perms := fields[1]
		var prot target.Protection
		if strings.Contains(perms, "r") {
			prot |= target.ProtRead
		}
		if strings.Contains(perms, "w") {
			prot |= target.ProtWrite
		}
		if strings.Contains(perms, "x") {
			prot |= target.ProtExec
		}

		name := ""
		if len(fields) >= 6 {
			name = fields[5]
		}

		regions = append(regions, target.Region{
			Start: target.Address(start),
			Size:  end - start,
			Prot:  prot,
			Name:  name,
		})
	}
	return regions, scanner.Err()
}
