// Package serialport enumerates the serial devices an MCU profile's port
// field can point at. Enumeration only: the port stays plain metadata and
// nothing here ever opens a device.
package serialport

import (
	"fmt"
	"sort"

	"go.bug.st/serial"
)

// Lister reports the serial ports currently visible on the host.
type Lister interface {
	List() ([]string, error)
}

// SystemLister asks the operating system for the real port list.
type SystemLister struct{}

// List returns the available port names in sorted order.
func (SystemLister) List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	sort.Strings(ports)
	if ports == nil {
		ports = []string{}
	}
	return ports, nil
}
