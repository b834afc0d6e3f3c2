// Copyright 2025 Ayman Bagabas
// SPDX-License-Identifier: MIT

//go:build (linux && !android) || freebsd

package nativeclipboard

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"
)

// X11 types
type (
	xDisplay uintptr
	xWindow  uintptr
	xAtom    uintptr
	xTime    uintptr
)

// X11 constants
const (
	xNone             = 0
	xCurrentTime      = 0
	xAnyPropertyType  = 0
	xPropModeReplace  = 0
	xSuccess          = 0
	xSelectionClear   = 29
	xSelectionRequest = 30
	xSelectionNotify  = 31

	selectionProperty = "NATIVECLIPBOARD_DATA"
)

// xEvent is the XEvent union, sized to its largest member.
type xEvent struct {
	typ int32
	pad [23]uintptr
}

type xSelectionEvent struct {
	typ       int32
	_         int32
	serial    uintptr
	sendEvent int32
	_         int32
	display   xDisplay
	requestor xWindow
	selection xAtom
	target    xAtom
	property  xAtom
	time      xTime
}

type xSelectionRequestEvent struct {
	typ       int32
	_         int32
	serial    uintptr
	sendEvent int32
	_         int32
	display   xDisplay
	owner     xWindow
	requestor xWindow
	selection xAtom
	target    xAtom
	property  xAtom
	time      xTime
}

// Xlib entry points, bound at initialization.
var (
	xOpenDisplay        func(name uintptr) xDisplay
	xCloseDisplay       func(d xDisplay)
	xDefaultRootWindow  func(d xDisplay) xWindow
	xCreateSimpleWindow func(d xDisplay, parent xWindow, x, y int32, width, height, borderWidth uint32, border, background uintptr) xWindow
	xDestroyWindow      func(d xDisplay, w xWindow)
	xInternAtom         func(d xDisplay, name string, onlyIfExists int32) xAtom
	xSetSelectionOwner  func(d xDisplay, selection xAtom, owner xWindow, t xTime)
	xGetSelectionOwner  func(d xDisplay, selection xAtom) xWindow
	xNextEvent          func(d xDisplay, ev *xEvent)
	xPending            func(d xDisplay) int32
	xChangeProperty     func(d xDisplay, w xWindow, property, typ xAtom, format, mode int32, data *byte, nelements int32) int32
	xSendEvent          func(d xDisplay, w xWindow, propagate int32, mask int64, ev *xEvent) int32
	xGetWindowProperty  func(d xDisplay, w xWindow, property xAtom, offset, length int64, del int32, reqType xAtom, actualType *xAtom, actualFormat *int32, nitems, bytesAfter *uint64, prop **byte) int32
	xFree               func(p unsafe.Pointer)
	xDeleteProperty     func(d xDisplay, w xWindow, property xAtom)
	xConvertSelection   func(d xDisplay, selection, target, property xAtom, requestor xWindow, t xTime)
	xFlush              func(d xDisplay)
)

var libX11Paths = []string{
	"libX11.so.6",
	"libX11.so",
	"/usr/local/lib/libX11.so.6",
	"/usr/local/lib/libX11.so",
	"/usr/X11R6/lib/libX11.so.6",
	"/usr/X11R6/lib/libX11.so",
}

var helpmsg = `%w: failed to initialize the X11 display. Installing libX11 may help:

	# Debian/Ubuntu
	apt install -y libx11-6

	# Fedora/RHEL
	dnf install -y libX11

	# FreeBSD
	pkg install xorg-libraries

Headless machines also need a virtual frame buffer:

	Xvfb :99 -screen 0 1024x768x24 > /dev/null 2>&1 &
	export DISPLAY=:99.0
`

func initialize() error {
	var (
		lib uintptr
		err error
	)
	for _, path := range libX11Paths {
		if lib, err = purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_GLOBAL); err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf(helpmsg, ErrUnavailable)
	}

	purego.RegisterLibFunc(&xOpenDisplay, lib, "XOpenDisplay")
	purego.RegisterLibFunc(&xCloseDisplay, lib, "XCloseDisplay")
	purego.RegisterLibFunc(&xDefaultRootWindow, lib, "XDefaultRootWindow")
	purego.RegisterLibFunc(&xCreateSimpleWindow, lib, "XCreateSimpleWindow")
	purego.RegisterLibFunc(&xDestroyWindow, lib, "XDestroyWindow")
	purego.RegisterLibFunc(&xInternAtom, lib, "XInternAtom")
	purego.RegisterLibFunc(&xSetSelectionOwner, lib, "XSetSelectionOwner")
	purego.RegisterLibFunc(&xGetSelectionOwner, lib, "XGetSelectionOwner")
	purego.RegisterLibFunc(&xNextEvent, lib, "XNextEvent")
	purego.RegisterLibFunc(&xPending, lib, "XPending")
	purego.RegisterLibFunc(&xChangeProperty, lib, "XChangeProperty")
	purego.RegisterLibFunc(&xSendEvent, lib, "XSendEvent")
	purego.RegisterLibFunc(&xGetWindowProperty, lib, "XGetWindowProperty")
	purego.RegisterLibFunc(&xFree, lib, "XFree")
	purego.RegisterLibFunc(&xDeleteProperty, lib, "XDeleteProperty")
	purego.RegisterLibFunc(&xConvertSelection, lib, "XConvertSelection")
	purego.RegisterLibFunc(&xFlush, lib, "XFlush")

	d, err := openDisplay(config)
	if err != nil {
		return fmt.Errorf(helpmsg, ErrUnavailable)
	}
	xCloseDisplay(d)
	return nil
}

// openDisplay connects to the X server named by $DISPLAY.
func openDisplay(cfg Config) (xDisplay, error) {
	for i := 0; i < cfg.OpenRetries; i++ {
		if d := xOpenDisplay(0); d != 0 {
			return d, nil
		}
		time.Sleep(cfg.RetryDelay)
	}
	return 0, fmt.Errorf("%w: cannot open X display", ErrUnavailable)
}

func targetName(t Format) (string, error) {
	switch t {
	case Text:
		return "UTF8_STRING", nil
	case Image:
		return "image/png", nil
	default:
		return "", ErrUnsupported
	}
}

func read(t Format) ([]byte, error) {
	name, err := targetName(t)
	if err != nil {
		return nil, err
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	d, err := openDisplay(config)
	if err != nil {
		return nil, err
	}
	defer xCloseDisplay(d)

	w := xCreateSimpleWindow(d, xDefaultRootWindow(d), 0, 0, 1, 1, 0, 0, 0)
	defer xDestroyWindow(d, w)

	sel := xInternAtom(d, "CLIPBOARD", 0)
	prop := xInternAtom(d, selectionProperty, 0)
	incr := xInternAtom(d, "INCR", 0)
	target := xInternAtom(d, name, 1)
	if target == xNone {
		return nil, fmt.Errorf("%w: no %s on the clipboard", ErrUnavailable, t)
	}

	xConvertSelection(d, sel, target, prop, w, xCurrentTime)
	xFlush(d)

	// The owner may never answer, so don't block in XNextEvent.
	var ev xEvent
	notified := waitFor(config.ReadTimeout, pollStep, func() bool {
		for xPending(d) > 0 {
			xNextEvent(d, &ev)
			if ev.typ == xSelectionNotify {
				return true
			}
		}
		return false
	})
	if !notified {
		return nil, fmt.Errorf("%w: clipboard owner did not answer within %s", ErrUnavailable, config.ReadTimeout)
	}

	sev := (*xSelectionEvent)(unsafe.Pointer(&ev))
	if sev.property == xNone || sev.selection != sel || sev.property != prop {
		return nil, fmt.Errorf("%w: no %s on the clipboard", ErrUnavailable, t)
	}

	var (
		actual     xAtom
		format     int32
		nitems     uint64
		bytesAfter uint64
		data       *byte
	)
	ret := xGetWindowProperty(sev.display, sev.requestor, sev.property,
		0, 1<<30, 0, xAnyPropertyType,
		&actual, &format, &nitems, &bytesAfter, &data)
	if ret != xSuccess || data == nil {
		return nil, ErrUnavailable
	}
	defer xFree(unsafe.Pointer(data))
	defer xDeleteProperty(sev.display, sev.requestor, sev.property)

	if err := checkPropertyType(actual, incr); err != nil {
		return nil, err
	}
	if nitems == 0 {
		return nil, nil
	}
	out := make([]byte, nitems)
	copy(out, unsafe.Slice(data, nitems))
	return out, nil
}

// pollStep is how often read looks for the owner's reply.
const pollStep = 5 * time.Millisecond

// waitFor calls ready every step until it reports true or timeout passes.
func waitFor(timeout, step time.Duration, ready func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if ready() {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(step)
	}
}

// checkPropertyType rejects INCR replies. Owners send those for data too
// large for one property and expect an incremental transfer.
func checkPropertyType(actual, incr xAtom) error {
	if actual == incr {
		return fmt.Errorf("%w: incremental selection transfer", ErrUnsupported)
	}
	return nil
}

// write takes ownership of the CLIPBOARD selection and serves requests for
// it from a goroutine until another client claims the selection, at which
// point the returned channel is closed.
func write(t Format, buf []byte) (<-chan struct{}, error) {
	name, err := targetName(t)
	if err != nil {
		return nil, err
	}

	cfg := config
	data := bytes.Clone(buf)
	ready := make(chan error, 1)
	done := make(chan struct{}, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		d, err := openDisplay(cfg)
		if err != nil {
			ready <- err
			return
		}
		defer xCloseDisplay(d)

		w := xCreateSimpleWindow(d, xDefaultRootWindow(d), 0, 0, 1, 1, 0, 0, 0)
		defer xDestroyWindow(d, w)

		sel := xInternAtom(d, "CLIPBOARD", 0)
		targets := xInternAtom(d, "TARGETS", 0)
		atomType := xInternAtom(d, "ATOM", 0)
		target := xInternAtom(d, name, 0)

		xSetSelectionOwner(d, sel, w, xCurrentTime)
		if xGetSelectionOwner(d, sel) != w {
			ready <- fmt.Errorf("%w: could not take the selection", ErrUnavailable)
			return
		}
		ready <- nil

		var ev xEvent
		for {
			xNextEvent(d, &ev)
			switch ev.typ {
			case xSelectionClear:
				return
			case xSelectionRequest:
				req := (*xSelectionRequestEvent)(unsafe.Pointer(&ev))
				if req.selection != sel {
					continue
				}
				serveRequest(req, target, targets, atomType, data)
			}
		}
	}()

	if err := <-ready; err != nil {
		return nil, err
	}
	return done, nil
}

// serveRequest answers one SelectionRequest with our data or the list of
// targets we offer.
func serveRequest(req *xSelectionRequestEvent, target, targets, atomType xAtom, data []byte) {
	var ev xEvent
	reply := (*xSelectionEvent)(unsafe.Pointer(&ev))
	*reply = xSelectionEvent{
		typ:       xSelectionNotify,
		display:   req.display,
		requestor: req.requestor,
		selection: req.selection,
		target:    req.target,
		property:  req.property,
		time:      req.time,
	}

	switch {
	case req.target == targets:
		offered := []xAtom{targets, target}
		xChangeProperty(req.display, req.requestor, req.property,
			atomType, 32, xPropModeReplace, (*byte)(unsafe.Pointer(&offered[0])), int32(len(offered)))
	case req.target == target && len(data) > 0:
		xChangeProperty(req.display, req.requestor, req.property,
			target, 8, xPropModeReplace, &data[0], int32(len(data)))
	default:
		reply.property = xNone
	}

	xSendEvent(req.display, req.requestor, 0, 0, &ev)
	xFlush(req.display)
}

// watch polls the selection content; X11 has no cheap change counter.
func watch(ctx context.Context, t Format) <-chan []byte {
	recv := make(chan []byte, 1)
	interval := CurrentConfig().PollInterval
	last, _ := readLocked(t)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(recv)
				return
			case <-ticker.C:
				b, err := readLocked(t)
				if err != nil {
					log().Debug("clipboard poll failed", zap.Stringer("format", t), zap.Error(err))
					continue
				}
				if b == nil || bytes.Equal(last, b) {
					continue
				}
				last = b
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
