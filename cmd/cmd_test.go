package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/allbin/go-ice"
)

func TestParseSignalState(t *testing.T) {
	tests := []struct {
		input   string
		want    bool
		wantErr bool
	}{
		{"high", true, false},
		{"ON", true, false},
		{"1", true, false},
		{"low", false, false},
		{"Off", false, false},
		{"false", false, false},
		{"maybe", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseSignalState(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSignalState(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseSignalState(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPrintable(t *testing.T) {
	if got := printable("ok\r\n\x00"); got != "ok···" {
		t.Errorf("printable() = %q", got)
	}
}

func TestFilterPorts(t *testing.T) {
	ports := []string{"/dev/ttyACM0", "/dev/ttyUSB1", "/dev/ttyS0", "/dev/ttySAC0", "/dev/ttyAMA0"}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", ports},
		{"all", ports},
		{"usb", []string{"/dev/ttyACM0", "/dev/ttyUSB1"}},
		{"standard", []string{"/dev/ttyS0"}},
		{"arm", []string{"/dev/ttyAMA0"}},
		{"bogus", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got := filterPorts(ports, tt.filter)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("filterPorts(%q) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestGetPortType(t *testing.T) {
	tests := map[string]string{
		"ttyACM0":  "USB CDC/ACM",
		"ttyUSB3":  "USB Serial",
		"ttyS1":    "Standard Serial",
		"ttyAMA0":  "ARM Serial",
		"ttyTHS1":  "Tegra Serial",
		"rfcomm0":  "Serial Port",
		"ttySAC2":  "Samsung Serial",
		"ttymxc1":  "i.MX Serial",
		"ttyO2":    "OMAP Serial",
		"ttyGS0":   "Serial Port",
		"ttyXRUSB": "Serial Port",
	}
	for name, want := range tests {
		if got := getPortType(name); got != want {
			t.Errorf("getPortType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "device error shows payload",
			err:  &ice.DispatchError{Kind: ice.KindProtocol, Command: "temp?", Slave: 1, Payload: "I2C Error: nack\r\n"},
			want: "I2C Error: nack",
		},
		{
			name: "transport error shows cause",
			err:  &ice.DispatchError{Kind: ice.KindTransport, Command: "temp?", Slave: 1, Err: errors.New("timeout")},
			want: "timeout",
		},
		{
			name: "other errors unchanged",
			err:  ice.ErrNotConnected,
			want: ice.ErrNotConnected.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeError(tt.err); got != tt.want {
				t.Errorf("describeError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadCommands(t *testing.T) {
	got, err := readCommands(strings.NewReader("temp?\n\n  laser on \r\nlaser?"))
	if err != nil {
		t.Fatalf("readCommands: %v", err)
	}
	want := []string{"temp?", "laser on", "laser?"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("readCommands() = %q, want %q", got, want)
	}
}

func TestPortArg(t *testing.T) {
	t.Cleanup(viper.Reset)

	if got, err := portArg([]string{"/dev/ttyACM1"}); err != nil || got != "/dev/ttyACM1" {
		t.Errorf("portArg(arg) = %q, %v", got, err)
	}

	viper.Set("port", "")
	if _, err := portArg(nil); !errors.Is(err, errNoPort) {
		t.Errorf("portArg(nil) error = %v, want errNoPort", err)
	}

	viper.Set("port", "/dev/ttyACM2")
	if got, err := portArg(nil); err != nil || got != "/dev/ttyACM2" {
		t.Errorf("portArg(nil) = %q, %v", got, err)
	}
}
