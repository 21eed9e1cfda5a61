/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2019-2026 Wind River Systems, Inc. */

package common

import (
	"fmt"
	"strings"

	perrors "github.com/pkg/errors"
)

// BaseError defines the common error reporting struct for all other errors
// defined in this package
type BaseError struct {
	message string
}

// Error implements the Error interface for all structures that are derived
// from this one.
func (in BaseError) Error() string {
	return in.message
}

// ErrCommandFailed defines an error to be used when reporting that a live
// operation against the kernel or an external tool (ip, ovs-vsctl, ethtool,
// modprobe, efibootmgr) did not complete successfully.
type ErrCommandFailed struct {
	BaseError
	Command string
	Output  string
}

// ErrDeviceNotFound defines an error to be used when reporting that a network
// or block device does not exist on the system.
type ErrDeviceNotFound struct {
	BaseError
}

// ErrDeviceExists defines an error to be used when a device creation was
// requested for a name that is already in use.
type ErrDeviceExists struct {
	BaseError
}

// ErrDeviceTimeout defines an error to be used when a newly created device
// failed to materialize within the allotted number of polls.
type ErrDeviceTimeout struct {
	BaseError
}

// ErrNotMember defines an error to be used when a slave removal was requested
// for a device which is not enslaved to the master.
type ErrNotMember struct {
	BaseError
}

// ErrInvalidArgument defines an error to be used when a caller supplied a
// value outside of its permitted range (e.g., a VLAN id).
type ErrInvalidArgument struct {
	BaseError
}

// ErrPersistence defines an error to be used when the node attribute store
// could not be loaded or saved.
type ErrPersistence struct {
	BaseError
}

// NewCommandFailed defines a constructor for the ErrCommandFailed error type.
// The output is trimmed and appended to the message if present.
func NewCommandFailed(command string, output string, cause error) error {
	output = strings.TrimSpace(output)
	msg := fmt.Sprintf("command %q failed", command)
	if cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, cause.Error())
	}
	if output != "" {
		msg = fmt.Sprintf("%s: %s", msg, output)
	}
	return ErrCommandFailed{BaseError{msg}, command, output}
}

// NewDeviceNotFound defines a constructor for the ErrDeviceNotFound error
// type.
func NewDeviceNotFound(name string) error {
	return ErrDeviceNotFound{BaseError{fmt.Sprintf("device %q does not exist", name)}}
}

// NewDeviceExists defines a constructor for the ErrDeviceExists error type.
func NewDeviceExists(name string) error {
	return ErrDeviceExists{BaseError{fmt.Sprintf("device %q already exists", name)}}
}

// NewDeviceTimeout defines a constructor for the ErrDeviceTimeout error type.
func NewDeviceTimeout(name string, kind string) error {
	return ErrDeviceTimeout{BaseError{fmt.Sprintf("%s %q was not created", kind, name)}}
}

// NewNotMember defines a constructor for the ErrNotMember error type.
func NewNotMember(slave, master string) error {
	return ErrNotMember{BaseError{fmt.Sprintf("%s is not a member of %s", slave, master)}}
}

// NewInvalidArgument defines a constructor for the ErrInvalidArgument error
// type.
func NewInvalidArgument(msg string) error {
	return ErrInvalidArgument{BaseError{msg}}
}

// NewPersistence defines a constructor for the ErrPersistence error type.
func NewPersistence(msg string) error {
	return ErrPersistence{BaseError{msg}}
}

// IsDeviceNotFound returns true if the root cause of an error is an
// ErrDeviceNotFound.
func IsDeviceNotFound(err error) bool {
	_, ok := perrors.Cause(err).(ErrDeviceNotFound)
	return ok
}

// IsDeviceTimeout returns true if the root cause of an error is an
// ErrDeviceTimeout.
func IsDeviceTimeout(err error) bool {
	_, ok := perrors.Cause(err).(ErrDeviceTimeout)
	return ok
}

// IsCommandFailed returns true if the root cause of an error is an
// ErrCommandFailed.
func IsCommandFailed(err error) bool {
	_, ok := perrors.Cause(err).(ErrCommandFailed)
	return ok
}
