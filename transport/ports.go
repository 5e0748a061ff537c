package transport

import (
	"go.uber.org/zap"

	"github.com/allbin/go-ice/serial"
)

// PortInfo describes a port a Line can connect to.
type PortInfo struct {
	Name         string
	Path         string
	Description  string
	VendorID     string
	ProductID    string
	SerialNumber string
}

var (
	listPorts   = serial.ListPorts
	getPortInfo = serial.GetPortInfo
)

// ListPorts returns the serial ports present on the host
func (l *Line) ListPorts() ([]PortInfo, error) {
	paths, err := listPorts()
	if err != nil {
		return nil, err
	}

	ports := make([]PortInfo, 0, len(paths))
	for _, path := range paths {
		info, err := getPortInfo(path)
		if err != nil {
			l.logger.Debug("skipping port", zap.String("port", path), zap.Error(err))
			continue
		}
		ports = append(ports, PortInfo{
			Name:         info.Name,
			Path:         info.Path,
			Description:  info.Description,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			SerialNumber: info.SerialNumber,
		})
	}
	return ports, nil
}
