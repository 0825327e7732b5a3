package quic

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// listenPacketReusePort opens a UDP socket with SO_REUSEPORT set, letting
// multiple dispatcher processes (or multiple endpoints in one process)
// share the same port and have the kernel load-balance datagrams across
// them, instead of this package's own worker pool being the only fan-out
// stage.
func listenPacketReusePort(addr string) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}
	return lc.ListenPacket(context.Background(), "udp", addr)
}
