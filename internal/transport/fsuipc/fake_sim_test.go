package fsuipc

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
)

// fakeSim answers request batches from an in-memory offset space, filling the
// shared block in place like the real server does.
type fakeSim struct {
	mu      sync.Mutex
	width   int
	block   []byte
	mem     []byte
	fail    error
	closed  bool
	signals int
}

func newFakeSim(width int) *fakeSim {
	return &fakeSim{
		width: width,
		block: make([]byte, BlockSize),
		mem:   make([]byte, 0x10000),
	}
}

func (f *fakeSim) Buffer() []byte {
	return f.block
}

func (f *fakeSim) Signal() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals++
	if f.fail != nil {
		return f.fail
	}

	pos := 0
	for {
		id := binary.LittleEndian.Uint32(f.block[pos:])
		if id != idRead {
			return nil
		}
		off := int(binary.LittleEndian.Uint32(f.block[pos+4:]))
		n := int(binary.LittleEndian.Uint32(f.block[pos+8:]))
		data := pos + 12 + f.width
		copy(f.block[data:data+n], f.mem[off:off+n])
		pos = data + n
	}
}

func (f *fakeSim) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("already closed")
	}
	f.closed = true
	return nil
}

func (f *fakeSim) putF64(off int, v float64) {
	binary.LittleEndian.PutUint64(f.mem[off:], math.Float64bits(v))
}

func (f *fakeSim) putF32(off int, v float32) {
	binary.LittleEndian.PutUint32(f.mem[off:], math.Float32bits(v))
}

func (f *fakeSim) putU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(f.mem[off:], v)
}

func (f *fakeSim) putI16(off int, v int16) {
	binary.LittleEndian.PutUint16(f.mem[off:], uint16(v))
}

func (f *fakeSim) putString(off int, s string) {
	copy(f.mem[off:], s)
}

// loadAircraft fills the offsets read each tick with a plausible state.
func (f *fakeSim) loadAircraft() {
	f.putF64(0x0560, 51.4706)
	f.putF64(0x0568, -0.461941)
	f.putF64(0x0570, 35000)
	f.putU32(0x02B4, 65536*200)
	f.putF64(0x0578, -10)
	f.putF32(0x0AF4, 1000)
	f.putI16(0x02C8, -256*100)
	f.putU32(0x0366, 0)
	f.putString(0x3160, "b738 zibo mod")
	f.putString(0x3D00, "baw123")
}
