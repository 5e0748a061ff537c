/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allbin/go-ice"
	"github.com/allbin/go-ice/serial"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List serial ports an ICE controller may be attached to",
	Long: `List the communication-capable serial ports on the system.

ICE controllers usually enumerate as USB CDC/ACM devices (ttyACM*) or
behind a USB serial adapter (ttyUSB*). Virtual terminals and
pseudo-terminals are excluded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		line, err := newLine(zap.NewNop())
		if err != nil {
			return err
		}
		ctrl, err := ice.New(line)
		if err != nil {
			return err
		}

		ports, err := ctrl.SerialPorts()
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}

		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")

		filtered := filterPorts(ports, filterType)
		if len(filtered) == 0 {
			if filterType != "" {
				fmt.Println(mutedStyle.Render("No serial ports found matching filter: " + filterType))
			} else {
				fmt.Println(mutedStyle.Render("No serial ports found"))
			}
			return nil
		}

		if tableFormat {
			fmt.Printf("%s\n\n", infoStyle.Render(fmt.Sprintf("Found %d serial port(s):", len(filtered))))
			fmt.Println(portTable(filtered).View())
		} else {
			for _, port := range filtered {
				fmt.Println(port)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []string, filterType string) []string {
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		name := strings.ToLower(port[strings.LastIndex(port, "/")+1:])
		switch strings.ToLower(filterType) {
		case "usb":
			if strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm") {
				filtered = append(filtered, port)
			}
		case "standard":
			if strings.HasPrefix(name, "ttys") && !strings.HasPrefix(name, "ttysac") {
				filtered = append(filtered, port)
			}
		case "arm":
			if strings.HasPrefix(name, "ttyama") {
				filtered = append(filtered, port)
			}
		}
	}
	return filtered
}

const (
	columnPort    = "port"
	columnType    = "type"
	columnUSB     = "usb"
	columnSerial  = "serial"
	columnProduct = "product"
)

// portTable renders the ports with their USB identity
func portTable(ports []string) table.Model {
	columns := []table.Column{
		table.NewColumn(columnPort, "Port", 16),
		table.NewColumn(columnType, "Type", 16),
		table.NewColumn(columnUSB, "VID:PID", 11),
		table.NewColumn(columnSerial, "Serial", 16),
		table.NewFlexColumn(columnProduct, "Product", 1),
	}

	rows := make([]table.Row, 0, len(ports))
	for _, port := range ports {
		data := table.RowData{columnPort: port}

		info, err := serial.GetPortInfo(port)
		if err != nil {
			data[columnType] = "Unknown"
			data[columnProduct] = fmt.Sprintf("Error: %v", err)
			rows = append(rows, table.NewRow(data))
			continue
		}

		data[columnType] = getPortType(info.Name)
		if info.VendorID != "" {
			data[columnUSB] = info.VendorID + ":" + info.ProductID
		}
		data[columnSerial] = info.SerialNumber
		data[columnProduct] = strings.TrimSpace(info.Manufacturer + " " + info.Product)
		rows = append(rows, table.NewRow(data))
	}

	return table.New(columns).
		WithRows(rows).
		WithTargetWidth(90).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99")))
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttysac"):
		return "Samsung Serial"
	case strings.HasPrefix(name, "ttyths"):
		return "Tegra Serial"
	case strings.HasPrefix(name, "ttyo"):
		return "OMAP Serial"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	default:
		return "Serial Port"
	}
}
