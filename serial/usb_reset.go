package serial

import (
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// reenumerateDelay is how long ResetUSBDevice waits for the device to come back.
var reenumerateDelay = 2 * time.Second

// ResetUSBDevice performs a USB-level reset of the device behind portPath.
// An ICE box that stops answering on the control channel usually recovers
// after a reset without a power cycle.
//
// Requires the usbreset utility (usbutils) and root permissions.
// The port path may change after the device re-enumerates.
func ResetUSBDevice(portPath string) error {
	info, err := GetPortInfo(portPath)
	if err != nil {
		return errors.Wrap(err, "get port info")
	}

	if info.BusNumber == "" || info.DeviceNumber == "" {
		return ErrUSBInfoNotAvailable
	}

	if !IsUSBResetAvailable() {
		return ErrUSBResetNotAvailable
	}

	usbPath, err := usbDevicePath(info.BusNumber, info.DeviceNumber)
	if err != nil {
		return err
	}

	cmd := exec.Command("usbreset", usbPath)
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "usbreset failed (output: %s)", string(output))
	}

	time.Sleep(reenumerateDelay)
	return nil
}

// ResetUSBDeviceBySerial resets the USB device with the given serial number.
// Serial numbers survive re-enumeration, port paths do not.
func ResetUSBDeviceBySerial(serialNumber string) error {
	ports, err := ListPorts()
	if err != nil {
		return err
	}

	for _, portPath := range ports {
		info, err := GetPortInfo(portPath)
		if err != nil {
			continue
		}
		if info.SerialNumber == serialNumber {
			return ResetUSBDevice(portPath)
		}
	}

	return fmt.Errorf("device with serial %s not found", serialNumber)
}

// IsUSBResetAvailable checks if usbreset utility is available in PATH
func IsUSBResetAvailable() bool {
	_, err := exec.LookPath("usbreset")
	return err == nil
}

// usbDevicePath formats bus and device numbers as usbreset expects them (BBB/DDD).
func usbDevicePath(bus, device string) (string, error) {
	b, err := strconv.Atoi(bus)
	if err != nil {
		return "", errors.Wrapf(ErrUSBInfoNotAvailable, "bus number %q", bus)
	}
	d, err := strconv.Atoi(device)
	if err != nil {
		return "", errors.Wrapf(ErrUSBInfoNotAvailable, "device number %q", device)
	}
	return fmt.Sprintf("%03d/%03d", b, d), nil
}
