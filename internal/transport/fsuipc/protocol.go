package fsuipc

import (
	"fmt"
	"math/bits"

	"simbridge/internal/transport"
)

// BlockSize is the size of the shared request/response block.
const BlockSize = 64 * 1024

// Record identifiers inside the shared block.
const (
	idEnd   = 0
	idRead  = 1
	idWrite = 2
)

// NativePointerWidth is the destination field width the simulator expects
// from a process of this architecture.
const NativePointerWidth = bits.UintSize / 8

type slot int

type readRequest struct {
	offset uint16
	dest   []byte
}

// session batches read requests into one block, hands the block to the
// simulator and copies the answers out. Destinations travel as opaque tokens
// the simulator echoes back, never as addresses.
type session struct {
	width int
	cur   cursor
	reads []readRequest
}

func newSession(block []byte, width int) (*session, error) {
	if width != 4 && width != 8 {
		return nil, fmt.Errorf("%w: unsupported pointer width %d", transport.ErrProtocol, width)
	}
	return &session{width: width, cur: cursor{buf: block}}, nil
}

func (s *session) recordSize(length int) int {
	return 4 + 4 + 4 + s.width + length
}

// Read queues a read of length bytes at offset. The bytes are available
// through Bytes after a successful Process.
func (s *session) Read(offset uint16, length int) (slot, error) {
	if length <= 0 {
		return 0, fmt.Errorf("%w: invalid read length %d", transport.ErrProtocol, length)
	}
	// Leave room for the terminator.
	if err := s.cur.need(s.recordSize(length) + 4); err != nil {
		return 0, fmt.Errorf("read 0x%04X: %w", offset, err)
	}

	id := slot(len(s.reads))
	s.cur.putU32(idRead)
	s.cur.putU32(uint32(offset))
	s.cur.putU32(uint32(length))
	// The server echoes the destination field back without dereferencing it.
	s.cur.putUint(tokenFor(id), s.width)
	s.cur.zero(length)

	s.reads = append(s.reads, readRequest{offset: offset, dest: make([]byte, length)})
	return id, nil
}

// Process terminates the request batch, signals the simulator and walks the
// response records from the start of the block.
func (s *session) Process(signal func() error) error {
	if err := s.cur.putU32(idEnd); err != nil {
		return err
	}
	if err := signal(); err != nil {
		return err
	}

	resp := cursor{buf: s.cur.buf}
	for {
		id, err := resp.u32()
		if err != nil {
			return fmt.Errorf("response header: %w", err)
		}

		switch id {
		case idEnd:
			return nil
		case idRead:
			if err := s.copyRead(&resp); err != nil {
				return err
			}
		case idWrite:
			if _, err := resp.u32(); err != nil {
				return err
			}
			length, err := resp.u32()
			if err != nil {
				return err
			}
			if _, err := resp.take(int(length)); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unexpected record id %d", transport.ErrProtocol, id)
		}
	}
}

func (s *session) copyRead(resp *cursor) error {
	offset, err := resp.u32()
	if err != nil {
		return err
	}
	length, err := resp.u32()
	if err != nil {
		return err
	}
	token, err := resp.uint(s.width)
	if err != nil {
		return err
	}
	data, err := resp.take(int(length))
	if err != nil {
		return err
	}

	id, ok := slotFor(token, len(s.reads))
	if !ok {
		return fmt.Errorf("%w: unknown destination token %d", transport.ErrProtocol, token)
	}
	dest := s.reads[id].dest
	if int(length) != len(dest) {
		return fmt.Errorf("%w: offset 0x%04X returned %d bytes, want %d", transport.ErrProtocol, offset, length, len(dest))
	}
	copy(dest, data)
	return nil
}

// Bytes returns the destination buffer for a queued read.
func (s *session) Bytes(id slot) []byte {
	if int(id) < 0 || int(id) >= len(s.reads) {
		return nil
	}
	return s.reads[id].dest
}

// Tokens start at one so a zeroed destination never matches a request.
func tokenFor(id slot) uint64 {
	return uint64(id) + 1
}

func slotFor(token uint64, n int) (slot, bool) {
	if token == 0 || token > uint64(n) {
		return 0, false
	}
	return slot(token - 1), true
}
