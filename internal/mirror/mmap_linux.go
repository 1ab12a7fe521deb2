// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package mirror

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// newMirroredBytes reserves a 2*size byte region of address space and maps
// the same anonymous shared memory object into both halves, so that byte
// i and byte i+size are the same physical memory. This is the double
// mmap technique behind POSIX shm-backed ring buffers: reserve the full
// window with PROT_NONE so nothing else can claim it, then MAP_FIXED the
// same descriptor twice back to back.
//
// The alias can only sit at a page boundary, so a size that is not a
// whole number of pages reports errUnsupported and the caller falls back
// to the portable implementation.
func newMirroredBytes(size uint64) (unsafe.Pointer, func() error, error) {
	if size == 0 {
		return nil, nil, errUnsupported
	}

	pageSize := uint64(unix.Getpagesize())
	if size%pageSize != 0 {
		return nil, nil, errUnsupported
	}

	fd, err := unix.MemfdCreate("rivulet-ring", 0)
	if err != nil {
		return nil, nil, errUnsupported
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		return nil, nil, fmt.Errorf("mirror: ftruncate: %w", err)
	}

	base, _, errno := unix.Syscall6(unix.SYS_MMAP, 0, uintptr(2*size),
		unix.PROT_NONE, unix.MAP_ANONYMOUS|unix.MAP_PRIVATE, ^uintptr(0), 0)
	if errno != 0 {
		return nil, nil, fmt.Errorf("mirror: reserve address space: %w", errno)
	}

	first, _, errno := unix.Syscall6(unix.SYS_MMAP, base, uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_FIXED|unix.MAP_SHARED, uintptr(fd), 0)
	if errno != 0 || first != base {
		unix.Syscall(unix.SYS_MUNMAP, base, uintptr(2*size), 0)
		return nil, nil, fmt.Errorf("mirror: first mapping: %w", errno)
	}

	second, _, errno := unix.Syscall6(unix.SYS_MMAP, base+uintptr(size), uintptr(size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_FIXED|unix.MAP_SHARED, uintptr(fd), 0)
	if errno != 0 || second != base+uintptr(size) {
		unix.Syscall(unix.SYS_MUNMAP, base, uintptr(2*size), 0)
		return nil, nil, fmt.Errorf("mirror: mirrored mapping: %w", errno)
	}

	total := uintptr(2 * size)
	unmap := func() error {
		if _, _, errno := unix.Syscall(unix.SYS_MUNMAP, base, total, 0); errno != 0 {
			return fmt.Errorf("mirror: munmap: %w", errno)
		}
		return nil
	}

	return unsafe.Pointer(base), unmap, nil
}
