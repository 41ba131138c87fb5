package modbus

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomblanch118/DAB/internal/modbus/modbustest"
)

func TestEncodeReadInputRegisters(t *testing.T) {
	f := ReadInputRegistersRequest(1, 0, 3)
	f.TransactionID = 0x0102

	want := []byte{0x01, 0x02, 0x00, 0x00, 0x00, 0x06, 0x01, 0x04, 0x00, 0x00, 0x00, 0x03}
	if got := f.Encode(); !bytes.Equal(got, want) {
		t.Errorf("Encode() = % X, want % X", got, want)
	}
}

func TestEncodeWriteMultipleRegisters(t *testing.T) {
	f := WriteMultipleRegistersRequest(1, 0, []uint16{0xFF, 0x00, 0xC8, 0x01})
	got := f.Encode()

	if got[7] != FuncCodeWriteMultipleRegisters {
		t.Fatalf("function code = 0x%02X", got[7])
	}
	// start(2) + quantity(2) + byte count(1) + 4 registers
	if f.Length != uint16(2+5+8) {
		t.Errorf("Length = %d, want 15", f.Length)
	}
	if got[12] != 8 {
		t.Errorf("byte count = %d, want 8", got[12])
	}
	if !bytes.Equal(got[13:], []byte{0x00, 0xFF, 0x00, 0x00, 0x00, 0xC8, 0x00, 0x01}) {
		t.Errorf("values = % X", got[13:])
	}
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"short", []byte{0, 1, 0, 0, 0, 2, 1}, true},
		{"bad protocol", []byte{0, 1, 0, 7, 0, 2, 1, 4}, true},
		{"bad length", []byte{0, 1, 0, 0, 0, 9, 1, 4, 2, 0, 1}, true},
		{"ok", []byte{0, 1, 0, 0, 0, 5, 1, 4, 2, 0, 0xA8}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := DecodeFrame(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeFrame() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			regs, err := f.ParseRegisterResponse()
			if err != nil || len(regs) != 1 || regs[0] != 0xA8 {
				t.Errorf("ParseRegisterResponse() = %v, %v", regs, err)
			}
		})
	}
}

func TestExceptionResponse(t *testing.T) {
	f, err := DecodeFrame([]byte{0, 1, 0, 0, 0, 3, 1, 0x84, 0x02})
	if err != nil {
		t.Fatalf("DecodeFrame() failed: %v", err)
	}

	var exc *ExceptionError
	if _, err := f.ParseRegisterResponse(); !errors.As(err, &exc) {
		t.Fatalf("ParseRegisterResponse() error = %v, want ExceptionError", err)
	}
	if exc.FunctionCode != FuncCodeReadInputRegisters || exc.Code != 0x02 {
		t.Errorf("exception = %+v", exc)
	}
}

func TestClientAgainstDevice(t *testing.T) {
	srv, err := modbustest.NewServer()
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	defer srv.Close()

	srv.SetInput(0, 0xA8)
	srv.SetInput(2, '*')

	ctx := context.Background()
	c := NewClient(srv.Addr(), time.Second)
	defer c.Close()

	regs, err := c.ReadInputRegisters(ctx, 1, 0, 3)
	if err != nil {
		t.Fatalf("ReadInputRegisters() failed: %v", err)
	}
	if regs[0] != 0xA8 || regs[1] != 0 || regs[2] != '*' {
		t.Errorf("inputs = %v", regs)
	}
	if !c.IsConnected() {
		t.Error("client should stay connected")
	}

	if err := c.WriteMultipleRegisters(ctx, 1, 0, []uint16{10, 20, 30, 1}); err != nil {
		t.Fatalf("WriteMultipleRegisters() failed: %v", err)
	}
	held, err := c.ReadHoldingRegisters(ctx, 1, 0, 4)
	if err != nil {
		t.Fatalf("ReadHoldingRegisters() failed: %v", err)
	}
	if held[0] != 10 || held[1] != 20 || held[2] != 30 || held[3] != 1 {
		t.Errorf("holding = %v", held)
	}

	if err := c.WriteSingleRegister(ctx, 1, 3, 0); err != nil {
		t.Fatalf("WriteSingleRegister() failed: %v", err)
	}
	if srv.Holding(3) != 0 {
		t.Errorf("holding 3 = %d, want 0", srv.Holding(3))
	}

	var exc *ExceptionError
	if _, err := c.ReadInputRegisters(ctx, 1, 15, 4); !errors.As(err, &exc) {
		t.Errorf("out of range read error = %v, want ExceptionError", err)
	}
	if _, err := c.ReadInputRegisters(ctx, 1, 0, 0); err == nil {
		t.Error("zero quantity should fail")
	}
}

func TestClientConnectFailure(t *testing.T) {
	srv, err := modbustest.NewServer()
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	addr := srv.Addr()
	srv.Close()

	c := NewClient(addr, 200*time.Millisecond)
	if _, err := c.ReadInputRegisters(context.Background(), 1, 0, 1); err == nil {
		t.Fatal("read from closed device should fail")
	}
	if c.IsConnected() {
		t.Error("client should not report a connection")
	}
}
