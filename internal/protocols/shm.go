package protocols

import (
	"encoding/binary"
	"fmt"

	"github.com/bnema/wlturbo/wl"
	"golang.org/x/sys/unix"
)

// ShmInterface is the wl_shm global
const ShmInterface = "wl_shm"

// wl_shm.format
const (
	ShmFormatARGB8888 uint32 = 0
	ShmFormatXRGB8888 uint32 = 1
)

// Shm is the wl_shm global
type Shm struct {
	wl.BaseProxy
}

// NewShm creates an unbound wl_shm proxy
func NewShm(ctx *wl.Context) *Shm {
	shm := &Shm{}
	shm.SetContext(ctx)
	ctx.Register(shm)
	return shm
}

// CreatePool shares size bytes of fd with the compositor
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	if fd < 0 {
		return nil, fmt.Errorf("invalid file descriptor: %d", fd)
	}

	pool := &ShmPool{}
	pool.SetContext(s.Context())
	pool.SetID(s.Context().AllocateID())
	s.Context().Register(pool)

	// Opcode 0: create_pool
	const opcode = 0

	// The fd travels as SCM_RIGHTS only, uintptr keeps it out of the body
	if err := s.Context().SendRequestWithFDs(s, opcode, []int{fd}, pool, uintptr(fd), size); err != nil {
		s.Context().Unregister(pool)
		return nil, err
	}
	return pool, nil
}

// Dispatch ignores the format announcements, XRGB8888 and ARGB8888 are mandatory
func (s *Shm) Dispatch(_ *wl.Event) {}

// ShmPool is a wl_shm_pool
type ShmPool struct {
	wl.BaseProxy
}

// CreateBuffer carves a buffer out of the pool
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (*Buffer, error) {
	buf := &Buffer{}
	buf.SetContext(p.Context())
	buf.SetID(p.Context().AllocateID())
	p.Context().Register(buf)

	// Opcode 0: create_buffer
	const opcode = 0
	if err := p.Context().SendRequest(p, opcode, buf, offset, width, height, stride, format); err != nil {
		p.Context().Unregister(buf)
		return nil, err
	}
	return buf, nil
}

// Destroy releases the pool; buffers created from it stay valid
func (p *ShmPool) Destroy() error {
	// Opcode 1: destroy
	const opcode = 1
	err := p.Context().SendRequest(p, opcode)
	p.Context().Unregister(p)
	return err
}

// Dispatch handles incoming events (pool has no events)
func (p *ShmPool) Dispatch(_ *wl.Event) {}

// Buffer is a wl_buffer
type Buffer struct {
	wl.BaseProxy
}

// Destroy destroys the buffer
func (b *Buffer) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := b.Context().SendRequest(b, opcode)
	b.Context().Unregister(b)
	return err
}

// Dispatch ignores release; solid buffers are never rewritten
func (b *Buffer) Dispatch(_ *wl.Event) {}

// SolidBuffer creates a 1x1 XRGB8888 buffer of color, meant to be stretched
// with a viewport.
func SolidBuffer(shm *Shm, color uint32) (*Buffer, error) {
	const size = 4

	fd, err := unix.MemfdCreate("waywall-solid", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd_create failed: %w", err)
	}
	defer func() { _ = unix.Close(fd) }()

	if err := unix.Ftruncate(fd, size); err != nil {
		return nil, fmt.Errorf("ftruncate failed: %w", err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	binary.LittleEndian.PutUint32(data, color)
	if err := unix.Munmap(data); err != nil {
		return nil, fmt.Errorf("munmap failed: %w", err)
	}

	pool, err := shm.CreatePool(fd, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	buf, err := pool.CreateBuffer(0, 1, 1, 4, ShmFormatXRGB8888)
	_ = pool.Destroy()
	if err != nil {
		return nil, fmt.Errorf("failed to create buffer: %w", err)
	}
	return buf, nil
}
