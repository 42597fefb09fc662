//go:build windows

package unixsig

import "errors"

var errUnsupported = errors.New("signal-based parking is not supported on windows")

func signalStop(int) error { return errUnsupported }

func signalCont(int) error { return errUnsupported }

func processStopped(int) (bool, error) { return false, errUnsupported }
