package riak

import (
	"fmt"
	"net"
	"strconv"

	"github.com/pior/riak/pb"
)

// Endpoint is the address of one store node.
type Endpoint struct {
	Host string
	Port int
}

// DefaultEndpoint is used when no endpoint is configured.
var DefaultEndpoint = Endpoint{Host: "localhost", Port: pb.DefaultPort}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// ParseEndpoint parses "host:port" or "host". A missing port defaults to 8087.
func ParseEndpoint(s string) (Endpoint, error) {
	if s == "" {
		return Endpoint{}, fmt.Errorf("riak: empty endpoint")
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port: the whole string is the host.
		if _, _, err2 := net.SplitHostPort(s + ":0"); err2 != nil {
			return Endpoint{}, fmt.Errorf("riak: invalid endpoint %q: %w", s, err)
		}
		return Endpoint{Host: s, Port: pb.DefaultPort}, nil
	}

	if host == "" {
		return Endpoint{}, fmt.Errorf("riak: invalid endpoint %q: missing host", s)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("riak: invalid endpoint %q: bad port", s)
	}
	return Endpoint{Host: host, Port: port}, nil
}

// ParseEndpoints parses a list of endpoints, see ParseEndpoint.
func ParseEndpoints(addrs ...string) ([]Endpoint, error) {
	endpoints := make([]Endpoint, 0, len(addrs))
	for _, addr := range addrs {
		e, err := ParseEndpoint(addr)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, nil
}
