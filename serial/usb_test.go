package serial

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadSysfsFile(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		expected string
		setup    func(string) error
	}{
		{
			name:     "normal file",
			expected: "1234",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("1234\n"), 0644)
			},
		},
		{
			name:     "file with spaces",
			expected: "test value",
			setup: func(path string) error {
				return os.WriteFile(path, []byte("  test value  \n"), 0644)
			},
		},
		{
			name:     "nonexistent file",
			expected: "",
			setup:    func(path string) error { return nil },
		},
		{
			name:     "empty file",
			expected: "",
			setup: func(path string) error {
				return os.WriteFile(path, []byte(""), 0644)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tmpDir, tt.name)
			if err := tt.setup(testFile); err != nil {
				t.Fatalf("Setup failed: %v", err)
			}

			result := readSysfsFile(testFile)
			if result != tt.expected {
				t.Errorf("readSysfsFile() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

// fakeSysfs builds class/tty/<tty>/device pointing at target below a temporary
// sysfs root and swaps sysfsRoot for the duration of the test.
func fakeSysfs(t *testing.T, tty string, target func(root string) string) (devicePath, interfacePath string) {
	t.Helper()
	root := t.TempDir()

	devicePath = filepath.Join(root, "devices", "usb5", "5-2.3.1")
	interfacePath = filepath.Join(devicePath, "5-2.3.1:1.0")
	classTtyPath := filepath.Join(root, "class", "tty", tty)

	if err := os.MkdirAll(target(root), 0755); err != nil {
		t.Fatalf("Failed to create directory structure: %v", err)
	}
	if err := os.MkdirAll(classTtyPath, 0755); err != nil {
		t.Fatalf("Failed to create class/tty directory: %v", err)
	}

	deviceFiles := map[string]string{
		"idVendor":     "2e8a",
		"idProduct":    "000a",
		"serial":       "ICE0042",
		"manufacturer": "Raspberry Pi",
		"product":      "ICE Controller",
		"busnum":       "5",
		"devnum":       "7",
	}
	for filename, content := range deviceFiles {
		if err := os.WriteFile(filepath.Join(devicePath, filename), []byte(content+"\n"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", filename, err)
		}
	}
	if err := os.WriteFile(filepath.Join(interfacePath, "bInterfaceNumber"), []byte("00\n"), 0644); err != nil {
		t.Fatalf("Failed to write interface number: %v", err)
	}
	if err := os.Symlink(target(root), filepath.Join(classTtyPath, "device")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	orig := sysfsRoot
	sysfsRoot = root
	t.Cleanup(func() { sysfsRoot = orig })
	return devicePath, interfacePath
}

func TestEnrichUSBInfo(t *testing.T) {
	tests := []struct {
		name   string
		tty    string
		target func(root string) string
	}{
		{
			name: "ttyUSB below interface",
			tty:  "ttyUSB0",
			target: func(root string) string {
				return filepath.Join(root, "devices", "usb5", "5-2.3.1", "5-2.3.1:1.0", "ttyUSB0")
			},
		},
		{
			name: "ttyACM on interface",
			tty:  "ttyACM0",
			target: func(root string) string {
				return filepath.Join(root, "devices", "usb5", "5-2.3.1", "5-2.3.1:1.0")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeSysfs(t, tt.tty, tt.target)

			info := &PortInfo{Name: tt.tty, Path: "/dev/" + tt.tty}
			enrichUSBInfo(info)

			fields := []struct {
				name     string
				got      string
				expected string
			}{
				{"VendorID", info.VendorID, "2e8a"},
				{"ProductID", info.ProductID, "000a"},
				{"SerialNumber", info.SerialNumber, "ICE0042"},
				{"InterfaceNumber", info.InterfaceNumber, "00"},
				{"BusNumber", info.BusNumber, "5"},
				{"DeviceNumber", info.DeviceNumber, "7"},
				{"Manufacturer", info.Manufacturer, "Raspberry Pi"},
				{"Product", info.Product, "ICE Controller"},
			}
			for _, f := range fields {
				if f.got != f.expected {
					t.Errorf("%s = %q, expected %q", f.name, f.got, f.expected)
				}
			}
			if !info.IsUSB() {
				t.Error("IsUSB() should be true")
			}
		})
	}
}

func TestEnrichUSBInfoGracefulFailure(t *testing.T) {
	orig := sysfsRoot
	sysfsRoot = t.TempDir()
	defer func() { sysfsRoot = orig }()

	info := &PortInfo{Name: "ttyUSB999", Path: "/dev/ttyUSB999"}
	enrichUSBInfo(info)

	if info.VendorID != "" || info.ProductID != "" || info.SerialNumber != "" {
		t.Errorf("USB fields should be empty, got %+v", info)
	}
}

func TestUSBDevicePath(t *testing.T) {
	tests := []struct {
		bus      string
		device   string
		expected string
		wantErr  bool
	}{
		{"5", "7", "005/007", false},
		{"1", "2", "001/002", false},
		{"123", "456", "123/456", false},
		{"1", "10", "001/010", false},
		{"x", "1", "", true},
		{"1", "", "", true},
	}

	for _, tt := range tests {
		got, err := usbDevicePath(tt.bus, tt.device)
		if tt.wantErr {
			if !errors.Is(err, ErrUSBInfoNotAvailable) {
				t.Errorf("usbDevicePath(%q, %q) error = %v, expected ErrUSBInfoNotAvailable", tt.bus, tt.device, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("usbDevicePath(%q, %q) unexpected error: %v", tt.bus, tt.device, err)
		}
		if got != tt.expected {
			t.Errorf("usbDevicePath(%q, %q) = %q, expected %q", tt.bus, tt.device, got, tt.expected)
		}
	}
}

func TestResetUSBDeviceNotUSB(t *testing.T) {
	err := ResetUSBDevice("/dev/null")
	if !errors.Is(err, ErrUSBInfoNotAvailable) {
		t.Errorf("Expected ErrUSBInfoNotAvailable, got %v", err)
	}
}

func TestResetUSBDeviceBySerialNotFound(t *testing.T) {
	err := ResetUSBDeviceBySerial("NONEXISTENT_SERIAL")
	if err == nil {
		t.Fatal("Expected error for nonexistent serial number")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected 'not found' error, got: %v", err)
	}
}
