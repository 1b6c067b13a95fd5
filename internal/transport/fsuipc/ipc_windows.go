//go:build windows

package fsuipc

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"simbridge/internal/transport"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procFindWindowExA          = user32.NewProc("FindWindowExA")
	procRegisterWindowMessageA = user32.NewProc("RegisterWindowMessageA")
	procSendMessageTimeoutA    = user32.NewProc("SendMessageTimeoutA")
	procGlobalAddAtomA         = kernel32.NewProc("GlobalAddAtomA")
	procGlobalDeleteAtom       = kernel32.NewProc("GlobalDeleteAtom")
)

const (
	windowClass   = "UIPCMAIN"
	messageName   = "FsasmLib:IPC"
	messageOK     = 1 // FS6IPC_MESSAGE_SUCCESS
	smtoBlock     = 0x0001
	signalTimeout = 2000 // ms
)

var mappingCounter atomic.Uint32

type sharedBlock struct {
	hwnd    uintptr
	msg     uintptr
	atom    uintptr
	mapping windows.Handle
	view    uintptr
	buf     []byte
}

func openIPC() (ipc, error) {
	class, err := windows.BytePtrFromString(windowClass)
	if err != nil {
		return nil, err
	}
	hwnd, _, _ := procFindWindowExA.Call(0, 0, uintptr(unsafe.Pointer(class)), 0)
	if hwnd == 0 {
		return nil, errors.New("simulator window not found")
	}

	msgName, err := windows.BytePtrFromString(messageName)
	if err != nil {
		return nil, err
	}
	msg, _, callErr := procRegisterWindowMessageA.Call(uintptr(unsafe.Pointer(msgName)))
	if msg == 0 {
		return nil, fmt.Errorf("register window message: %w", callErr)
	}

	b := &sharedBlock{hwnd: hwnd, msg: msg}
	name := fmt.Sprintf("%s:%X:%X", messageName, windows.GetCurrentProcessId(), mappingCounter.Add(1))

	atomName, err := windows.BytePtrFromString(name)
	if err != nil {
		return nil, err
	}
	b.atom, _, callErr = procGlobalAddAtomA.Call(uintptr(unsafe.Pointer(atomName)))
	if b.atom == 0 {
		return nil, fmt.Errorf("add atom: %w", callErr)
	}

	mappingName, err := windows.UTF16PtrFromString(name)
	if err != nil {
		b.Close()
		return nil, err
	}
	b.mapping, err = windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE, 0, BlockSize, mappingName)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("create file mapping: %w", err)
	}

	b.view, err = windows.MapViewOfFile(b.mapping, windows.FILE_MAP_WRITE, 0, 0, BlockSize)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("map view: %w", err)
	}
	b.buf = unsafe.Slice((*byte)(unsafe.Pointer(b.view)), BlockSize)
	return b, nil
}

func (b *sharedBlock) Buffer() []byte {
	return b.buf
}

func (b *sharedBlock) Signal() error {
	var result uintptr
	ok, _, callErr := procSendMessageTimeoutA.Call(b.hwnd, b.msg, b.atom, 0, smtoBlock, signalTimeout, uintptr(unsafe.Pointer(&result)))
	if ok == 0 {
		return fmt.Errorf("%w: send message: %v", transport.ErrProtocol, callErr)
	}
	if result != messageOK {
		return fmt.Errorf("%w: request rejected (result %d)", transport.ErrProtocol, result)
	}
	return nil
}

func (b *sharedBlock) Close() error {
	var errs []error
	if b.atom != 0 {
		procGlobalDeleteAtom.Call(b.atom)
		b.atom = 0
	}
	if b.view != 0 {
		b.buf = nil
		if err := windows.UnmapViewOfFile(b.view); err != nil {
			errs = append(errs, fmt.Errorf("unmap view: %w", err))
		}
		b.view = 0
	}
	if b.mapping != 0 {
		if err := windows.CloseHandle(b.mapping); err != nil {
			errs = append(errs, fmt.Errorf("close mapping: %w", err))
		}
		b.mapping = 0
	}
	return errors.Join(errs...)
}
