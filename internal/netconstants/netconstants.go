package netconstants

import (
	"fmt"
	"net"
	"strconv"
)

const (
	DefaultEndpointPort       = 6120
	DefaultEndpointServerName = "vmpower-endpoint"
)

// AddressFromHostPort builds an endpoint address from the separate host and port,
// as accepted on the command line.
func AddressFromHostPort(host string, port uint16, secure bool) string {
	scheme := "http"
	if secure {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s", scheme, net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10)))
}
