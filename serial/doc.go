// Package serial is the Linux termios layer under go-ice: opening a tty in raw
// mode, port discovery under /dev and USB metadata from sysfs.
//
// # Basic Usage
//
//	port, err := serial.Open("/dev/ttyACM0",
//	    serial.WithBaudRate(115200),
//	    serial.WithReadTimeout(100*time.Millisecond),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
// Read returns 0, nil when the read timeout elapses without data, so callers
// poll with their own deadline.
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s Serial=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID, info.SerialNumber)
//	}
//
// # USB Device Management
//
//	err := serial.ResetUSBDevice("/dev/ttyACM0")
//	err = serial.ResetUSBDeviceBySerial("ICE0042")
//
// Requires the usbreset utility from usbutils and root permissions.
//
// # Errors
//
// Open maps errno values onto ErrDeviceNotFound, ErrPermissionDenied and
// ErrDeviceInUse; use errors.Is to test for them.
package serial
