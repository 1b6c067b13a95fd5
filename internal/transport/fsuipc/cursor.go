package fsuipc

import (
	"encoding/binary"
	"fmt"

	"simbridge/internal/transport"
)

// cursor walks a fixed byte block, failing instead of reading or writing
// past its end.
type cursor struct {
	buf []byte
	pos int
}

func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

func (c *cursor) need(n int) error {
	if n < 0 || c.remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, %d left", transport.ErrProtocol, n, c.pos, c.remaining())
	}
	return nil
}

func (c *cursor) putU32(v uint32) error {
	if err := c.need(4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(c.buf[c.pos:], v)
	c.pos += 4
	return nil
}

func (c *cursor) putUint(v uint64, width int) error {
	if err := c.need(width); err != nil {
		return err
	}
	switch width {
	case 4:
		binary.LittleEndian.PutUint32(c.buf[c.pos:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(c.buf[c.pos:], v)
	default:
		return fmt.Errorf("%w: unsupported pointer width %d", transport.ErrProtocol, width)
	}
	c.pos += width
	return nil
}

func (c *cursor) zero(n int) error {
	if err := c.need(n); err != nil {
		return err
	}
	clear(c.buf[c.pos : c.pos+n])
	c.pos += n
	return nil
}

func (c *cursor) u32() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

func (c *cursor) uint(width int) (uint64, error) {
	if err := c.need(width); err != nil {
		return 0, err
	}
	var v uint64
	switch width {
	case 4:
		v = uint64(binary.LittleEndian.Uint32(c.buf[c.pos:]))
	case 8:
		v = binary.LittleEndian.Uint64(c.buf[c.pos:])
	default:
		return 0, fmt.Errorf("%w: unsupported pointer width %d", transport.ErrProtocol, width)
	}
	c.pos += width
	return v, nil
}

func (c *cursor) take(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}
