// Package modbustest provides an in-process Modbus TCP device for tests.
package modbustest

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
)

const registerCount = 16

// Server answers read/write register requests from two banks of
// registerCount registers.
type Server struct {
	listener net.Listener

	mu      sync.Mutex
	input   [registerCount]uint16
	holding [registerCount]uint16
	writes  int
	conns   map[net.Conn]struct{}

	wg sync.WaitGroup
}

// NewServer starts listening on a loopback port.
func NewServer() (*Server, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	s := &Server{listener: l, conns: make(map[net.Conn]struct{})}
	s.wg.Add(1)
	go s.accept()
	return s, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close stops the listener and drops every open connection.
func (s *Server) Close() {
	s.listener.Close()
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Server) SetInput(addr int, v uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input[addr] = v
}

func (s *Server) Holding(addr int) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holding[addr]
}

// Writes counts write requests served so far.
func (s *Server) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Server) accept() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serve(conn)
	}
}

func (s *Server) serve(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	for {
		header := make([]byte, 7)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		length := int(binary.BigEndian.Uint16(header[4:6]))
		if length < 2 {
			return
		}
		pdu := make([]byte, length-1)
		if _, err := io.ReadFull(conn, pdu); err != nil {
			return
		}

		resp := s.handle(pdu)

		out := make([]byte, 7+len(resp))
		copy(out, header[:4])
		binary.BigEndian.PutUint16(out[4:6], uint16(len(resp)+1))
		out[6] = header[6]
		copy(out[7:], resp)
		if _, err := conn.Write(out); err != nil {
			return
		}
	}
}

func exception(fc, code byte) []byte {
	return []byte{fc | 0x80, code}
}

func (s *Server) handle(pdu []byte) []byte {
	fc := pdu[0]
	if len(pdu) < 5 {
		return exception(fc, 0x03)
	}
	addr := int(binary.BigEndian.Uint16(pdu[1:3]))
	n := int(binary.BigEndian.Uint16(pdu[3:5]))

	s.mu.Lock()
	defer s.mu.Unlock()

	switch fc {
	case 0x03, 0x04:
		if n == 0 || addr+n > registerCount {
			return exception(fc, 0x02)
		}
		bank := s.holding[:]
		if fc == 0x04 {
			bank = s.input[:]
		}
		resp := make([]byte, 2+2*n)
		resp[0] = fc
		resp[1] = byte(2 * n)
		for i := 0; i < n; i++ {
			binary.BigEndian.PutUint16(resp[2+2*i:], bank[addr+i])
		}
		return resp

	case 0x06:
		if addr >= registerCount {
			return exception(fc, 0x02)
		}
		s.holding[addr] = uint16(n)
		s.writes++
		return pdu[:5]

	case 0x10:
		if n == 0 || addr+n > registerCount || len(pdu) < 6+2*n {
			return exception(fc, 0x02)
		}
		for i := 0; i < n; i++ {
			s.holding[addr+i] = binary.BigEndian.Uint16(pdu[6+2*i:])
		}
		s.writes++
		return pdu[:5]

	default:
		return exception(fc, 0x01)
	}
}
