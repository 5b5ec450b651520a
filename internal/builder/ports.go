package builder

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/creamcroissant/boxbuild/internal/protocol"
)

// ErrPortsExhausted 表示辅助程序端口范围已用尽。
var ErrPortsExhausted = errors.New("builder: helper port range exhausted / 辅助端口已用尽")

const (
	defaultPortStart = 30000
	defaultPortSpan  = 10000
	maxPort          = 65535
)

// PortRange bounds the local ports handed to helper processes and mapping
// inbounds. With Probe set, ports already bound on the host are skipped.
type PortRange struct {
	Start int
	End   int
	Probe bool
}

// portAllocator hands out ports sequentially, so two builds with the same
// inputs allocate the same ports.
type portAllocator struct {
	start    int
	next     int
	end      int
	reserved map[int]struct{}
	probe    func(port int) bool
}

func newPortAllocator(r PortRange, reserved ...int) *portAllocator {
	start := r.Start
	if start <= 0 || start > maxPort {
		start = defaultPortStart
	}
	end := r.End
	if end < start || end > maxPort {
		end = min(start+defaultPortSpan, maxPort)
	}
	a := &portAllocator{
		start:    start,
		next:     start,
		end:      end,
		reserved: make(map[int]struct{}, len(reserved)),
	}
	for _, port := range reserved {
		if port > 0 {
			a.reserved[port] = struct{}{}
		}
	}
	if r.Probe {
		a.probe = portFree
	}
	return a
}

func (a *portAllocator) allocate() (int, error) {
	for ; a.next <= a.end; a.next++ {
		port := a.next
		if _, taken := a.reserved[port]; taken {
			continue
		}
		if a.probe != nil && !a.probe(port) {
			continue
		}
		a.reserved[port] = struct{}{}
		a.next++
		return port, nil
	}
	return 0, fmt.Errorf("%w: %d-%d", ErrPortsExhausted, a.start, a.end)
}

func portFree(port int) bool {
	listener, err := net.Listen("tcp", net.JoinHostPort(protocol.Localhost, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}
