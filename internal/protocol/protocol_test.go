package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"net/netip"
	"testing"

	"github.com/danmuck/cmdclient/internal/command"
	"github.com/danmuck/cmdclient/internal/testutil/streamtest"
)

func TestWriteCommandUserExitWireSequence(t *testing.T) {
	cmd := command.New(command.KindUserExit, netip.MustParseAddr("127.0.0.1"), []byte{10, 0})
	rec := &streamtest.Recorder{}

	field, err := WriteCommand(rec, cmd)
	if err != nil {
		t.Fatalf("write command: %v", err)
	}
	if field != FieldNone {
		t.Fatalf("unexpected field on success: %s", field)
	}

	streamtest.Expect(t, rec.Ops(), []streamtest.Op{
		streamtest.W(0, 0, 0, 0), streamtest.F(),
		streamtest.W(9, 0, 0, 0), streamtest.F(),
		streamtest.W(0x31, 0x32, 0x37, 0x2e, 0x30, 0x2e, 0x30, 0x2e, 0x31), streamtest.F(),
		streamtest.W(2, 0, 0, 0), streamtest.F(),
		streamtest.W(10, 0), streamtest.F(),
	})
}

func TestWriteCommandEmptyMetadata(t *testing.T) {
	cmd := command.New(command.KindLock, netip.MustParseAddr("10.0.0.1"), nil)
	rec := &streamtest.Recorder{}

	if _, err := WriteCommand(rec, cmd); err != nil {
		t.Fatalf("write command: %v", err)
	}
	streamtest.Expect(t, rec.Ops(), []streamtest.Op{
		streamtest.W(1, 0, 0, 0), streamtest.F(),
		streamtest.W(8, 0, 0, 0), streamtest.F(),
		streamtest.W([]byte("10.0.0.1")...), streamtest.F(),
		streamtest.W(0, 0, 0, 0), streamtest.F(),
	})
}

func TestRoundTripWriteRead(t *testing.T) {
	cases := []command.Command{
		command.New(command.KindUserExit, netip.MustParseAddr("127.0.0.1"), []byte{10, 0}),
		command.New(command.KindMessage, netip.MustParseAddr("2001:db8::1"), []byte("hello there")),
		command.New(command.KindShutdownWithTimer, netip.MustParseAddr("fe80::1%eth0"), []byte{0, 0, 0, 30}),
		command.New(command.KindFreeCommand, netip.MustParseAddr("::ffff:192.0.2.7"), nil),
		command.New(command.KindClientChangeName, netip.MustParseAddr("0.0.0.0"), bytes.Repeat([]byte{0xab}, 4096)),
	}

	rec := &streamtest.Recorder{}
	for _, cmd := range cases {
		if _, err := WriteCommand(rec, cmd); err != nil {
			t.Fatalf("write %s: %v", cmd, err)
		}
	}

	r := bytes.NewReader(rec.Bytes())
	for i, want := range cases {
		got, err := ReadCommand(r, DefaultLimits())
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if !got.Equal(want) {
			t.Fatalf("round-trip mismatch at %d: got=%s want=%s", i, got, want)
		}
		if got.Address().String() != want.Address().String() {
			t.Fatalf("address text mismatch: got=%q want=%q", got.Address(), want.Address())
		}
	}
	if _, err := ReadCommand(r, DefaultLimits()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF after last command, got %v", err)
	}
}

func TestAppendCommandMatchesStream(t *testing.T) {
	cmd := command.New(command.KindRestart, netip.MustParseAddr("192.168.0.254"), []byte("now"))
	rec := &streamtest.Recorder{}
	if _, err := WriteCommand(rec, cmd); err != nil {
		t.Fatalf("write command: %v", err)
	}
	appended := AppendCommand(nil, cmd)
	if !bytes.Equal(appended, rec.Bytes()) {
		t.Fatalf("append mismatch:\n got=% x\nwant=% x", appended, rec.Bytes())
	}
	if EncodedLen(cmd) != len(appended) {
		t.Fatalf("encoded len mismatch: got=%d want=%d", EncodedLen(cmd), len(appended))
	}
}

func TestWriteCommandFailureNamesField(t *testing.T) {
	cmd := command.New(command.KindUserExit, netip.MustParseAddr("127.0.0.1"), []byte{10, 0})
	ioErr := errors.New("broken pipe")

	cases := []struct {
		failAt int
		field  Field
	}{
		{1, FieldKind},
		{2, FieldKind},
		{3, FieldAddressLen},
		{6, FieldAddress},
		{7, FieldMetadataLen},
		{9, FieldMetadata},
		{10, FieldMetadata},
	}
	for _, tc := range cases {
		rec := &streamtest.Recorder{FailAt: tc.failAt, Err: ioErr}
		field, err := WriteCommand(rec, cmd)
		if err != ioErr {
			t.Fatalf("failAt=%d: expected stream error unchanged, got %v", tc.failAt, err)
		}
		if field != tc.field {
			t.Fatalf("failAt=%d: got field=%s want=%s", tc.failAt, field, tc.field)
		}
		if n := len(rec.Ops()); n != tc.failAt-1 {
			t.Fatalf("failAt=%d: stream saw %d ops after failure", tc.failAt, n)
		}
	}
}

type shortWriter struct{ bytes.Buffer }

func (w *shortWriter) Write(p []byte) (int, error) {
	if len(p) > 1 {
		p = p[:len(p)-1]
	}
	return w.Buffer.Write(p)
}

func (w *shortWriter) Flush() error { return nil }

func TestWriteCommandShortWrite(t *testing.T) {
	cmd := command.New(command.KindUserExit, netip.MustParseAddr("127.0.0.1"), nil)
	field, err := WriteCommand(&shortWriter{}, cmd)
	if !errors.Is(err, io.ErrShortWrite) {
		t.Fatalf("expected io.ErrShortWrite, got %v", err)
	}
	if field != FieldKind {
		t.Fatalf("unexpected field: %s", field)
	}
}

func TestReadCommandTruncated(t *testing.T) {
	cmd := command.New(command.KindMessage, netip.MustParseAddr("10.1.2.3"), []byte("payload"))
	full := AppendCommand(nil, cmd)
	for _, cut := range []int{2, 4, 6, 10, 16, len(full) - 1} {
		_, err := ReadCommand(bytes.NewReader(full[:cut]), DefaultLimits())
		if !errors.Is(err, ErrTruncated) {
			t.Fatalf("cut=%d: expected ErrTruncated, got %v", cut, err)
		}
	}
}

func TestReadCommandRejectsMalformed(t *testing.T) {
	valid := func(kind int32, addr string, metaLen int32) []byte {
		buf := binary.LittleEndian.AppendUint32(nil, uint32(kind))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(len(addr))))
		buf = append(buf, addr...)
		return binary.LittleEndian.AppendUint32(buf, uint32(metaLen))
	}

	cases := []struct {
		name   string
		data   []byte
		limits Limits
		want   error
	}{
		{"unknown kind", valid(999, "1.1.1.1", 0), DefaultLimits(), ErrUnknownKind},
		{"negative kind", valid(-1, "1.1.1.1", 0), DefaultLimits(), ErrUnknownKind},
		{"bad address", valid(0, "not-an-ip", 0), DefaultLimits(), ErrInvalidAddress},
		{"negative metadata", valid(0, "1.1.1.1", -5), DefaultLimits(), ErrNegativeLength},
		{"metadata limit", valid(0, "1.1.1.1", 128), Limits{MaxAddressBytes: 64, MaxMetadataBytes: 64}, ErrMetadataTooLarge},
		{"address limit", valid(0, "1.1.1.1", 0), Limits{MaxAddressBytes: 4, MaxMetadataBytes: 64}, ErrAddressTooLarge},
		{"negative address", binary.LittleEndian.AppendUint32(binary.LittleEndian.AppendUint32(nil, 0), 0xffffffff), DefaultLimits(), ErrNegativeLength},
	}
	for _, tc := range cases {
		_, err := ReadCommand(bytes.NewReader(tc.data), tc.limits)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestFieldString(t *testing.T) {
	if FieldAddressLen.String() != "address_len" {
		t.Fatalf("unexpected field name: %q", FieldAddressLen.String())
	}
	if Field(42).String() != "unknown" {
		t.Fatalf("unexpected field name: %q", Field(42).String())
	}
}
