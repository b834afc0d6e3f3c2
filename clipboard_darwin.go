// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build darwin

package nativeclipboard

import (
	"context"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
)

const appKitPath = "/System/Library/Frameworks/AppKit.framework/AppKit"

// pasteboard holds the AppKit classes, selectors and type constants the
// backend sends messages with.
var pasteboard struct {
	class     objc.Class
	dataClass objc.Class

	general     objc.SEL
	dataForType objc.SEL
	clear       objc.SEL
	setData     objc.SEL
	changeCount objc.SEL
	dataWith    objc.SEL
	bytes       objc.SEL
	length      objc.SEL

	typeString objc.ID
	typePNG    objc.ID
}

func initialize() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	appkit, err := purego.Dlopen(appKitPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("%w: load AppKit: %v", ErrUnavailable, err)
	}

	pb := &pasteboard
	pb.class = objc.GetClass("NSPasteboard")
	pb.dataClass = objc.GetClass("NSData")
	pb.general = objc.RegisterName("generalPasteboard")
	pb.dataForType = objc.RegisterName("dataForType:")
	pb.clear = objc.RegisterName("clearContents")
	pb.setData = objc.RegisterName("setData:forType:")
	pb.changeCount = objc.RegisterName("changeCount")
	pb.dataWith = objc.RegisterName("dataWithBytes:length:")
	pb.bytes = objc.RegisterName("bytes")
	pb.length = objc.RegisterName("length")

	// The pasteboard type names are exported NSString pointers.
	for _, c := range []struct {
		name string
		dst  *objc.ID
	}{
		{"NSPasteboardTypeString", &pb.typeString},
		{"NSPasteboardTypePNG", &pb.typePNG},
	} {
		sym, err := purego.Dlsym(appkit, c.name)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnavailable, c.name, err)
		}
		*c.dst = objc.ID(*(*uintptr)(unsafe.Pointer(sym)))
	}
	return nil
}

func generalPasteboard() objc.ID {
	return objc.ID(pasteboard.class).Send(pasteboard.general)
}

func pasteboardType(t Format) (objc.ID, error) {
	switch t {
	case Text:
		return pasteboard.typeString, nil
	case Image:
		return pasteboard.typePNG, nil
	default:
		return 0, ErrUnsupported
	}
}

func changeCount() int64 {
	pb := generalPasteboard()
	if pb == 0 {
		return -1
	}
	return objc.Send[int64](pb, pasteboard.changeCount)
}

func read(t Format) ([]byte, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	typ, err := pasteboardType(t)
	if err != nil {
		return nil, err
	}
	pb := generalPasteboard()
	if pb == 0 {
		return nil, ErrUnavailable
	}

	data := pb.Send(pasteboard.dataForType, typ)
	if data == 0 {
		return nil, fmt.Errorf("%w: no %s on the pasteboard", ErrUnavailable, t)
	}
	length := objc.Send[uint64](data, pasteboard.length)
	if length == 0 {
		return nil, nil
	}
	p := data.Send(pasteboard.bytes)
	if p == 0 {
		return nil, ErrUnavailable
	}

	out := make([]byte, length)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(p)), length))
	return out, nil
}

func write(t Format, buf []byte) (<-chan struct{}, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	typ, err := pasteboardType(t)
	if err != nil {
		return nil, err
	}
	pb := generalPasteboard()
	if pb == 0 {
		return nil, ErrUnavailable
	}

	pb.Send(pasteboard.clear)
	if len(buf) > 0 {
		data := objc.ID(pasteboard.dataClass).Send(pasteboard.dataWith, unsafe.Pointer(&buf[0]), uint64(len(buf)))
		if data == 0 {
			return nil, ErrUnavailable
		}
		if ok := objc.Send[bool](pb, pasteboard.setData, data, typ); !ok {
			return nil, fmt.Errorf("%w: pasteboard rejected %s", ErrUnavailable, t)
		}
	}

	return notifyChange(objc.Send[int64](pb, pasteboard.changeCount), config.PollInterval), nil
}

// notifyChange fires once the pasteboard change count moves past initial.
func notifyChange(initial int64, interval time.Duration) <-chan struct{} {
	changed := make(chan struct{}, 1)
	go func() {
		for {
			time.Sleep(interval)
			if c := changeCount(); c != -1 && c != initial {
				changed <- struct{}{}
				close(changed)
				return
			}
		}
	}()
	return changed
}

func watch(ctx context.Context, t Format) <-chan []byte {
	recv := make(chan []byte, 1)
	interval := CurrentConfig().PollInterval
	last := changeCount()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				close(recv)
				return
			case <-ticker.C:
				cur := changeCount()
				if cur == last {
					continue
				}
				last = cur
				b, err := readLocked(t)
				if err != nil || b == nil {
					continue
				}
				select {
				case recv <- b:
				case <-ctx.Done():
					close(recv)
					return
				}
			}
		}
	}()

	return recv
}
