package ice

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// ErrorMarker starts every answer in which a module reports a failed operation.
const ErrorMarker = "I2C Error"

const selectPrefix = "#slave "

// Slave is the slot address of a module on the channel
type Slave int

// NoSlave means no module has been selected since the port opened.
const NoSlave Slave = -1

// Valid reports whether s is a usable address
func (s Slave) Valid() bool {
	return s >= 0
}

func (s Slave) String() string {
	if s == NoSlave {
		return "none"
	}
	return strconv.Itoa(int(s))
}

// SelectCommand returns the command that switches the channel to addr.
func SelectCommand(addr Slave) string {
	return selectPrefix + strconv.Itoa(int(addr))
}

// IsDeviceError reports whether payload carries the error marker.
func IsDeviceError(payload string) bool {
	return strings.HasPrefix(payload, ErrorMarker)
}

// Response is the answer to one command.
type Response struct {
	ID      uuid.UUID
	Command string
	Slave   Slave
	Payload string
}

// DeviceError reports whether the module answered with the error marker
func (r Response) DeviceError() bool {
	return IsDeviceError(r.Payload)
}

// trimPayload strips the line terminator and any trailing blanks.
func trimPayload(payload string) string {
	return strings.TrimRightFunc(payload, unicode.IsSpace)
}

// Result is handed to callbacks: either a Response or an error, never both
// meaningful. When Err is set Response only identifies the command.
type Result struct {
	Response
	Err error
}

// OK reports whether the command succeeded
func (r Result) OK() bool {
	return r.Err == nil
}
