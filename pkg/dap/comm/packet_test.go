package comm

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWrite(t *testing.T) {
	testCases := []struct {
		name   string
		module uint8
		offset uint32
		data   uint32
		expect []byte
	}{
		{"leds", 0, 3, 5, []byte{0xC0, 0x03, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00, 0xF9}},
		{"zero", 0, 0, 0, []byte{0xC0, 0, 0, 0, 0, 0, 0, 0, 0, 0xFF}},
		{"dcm control", 1, 0x800000, 2, []byte{0xC0, 0x00, 0x00, 0x80, 0x01, 0x02, 0x00, 0x00, 0x00, 0x7C}},
		{"max", MaxModule, MaxOffset, 0xFFFFFFFF, []byte{0xC0, 0xFF, 0xFF, 0xFF, 0x7F, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := EncodeWrite(tc.module, tc.offset, tc.data)
			require.NoError(t, err)
			require.Equal(t, tc.expect, b)
		})
	}
}

func TestEncodeRead(t *testing.T) {
	testCases := []struct {
		name   string
		module uint8
		offset uint32
		expect []byte
	}{
		{"leds", 0, 3, []byte{0xC0, 0x03, 0x00, 0x00, 0x80, 0x7C}},
		{"creation date", 0, 0, []byte{0xC0, 0x00, 0x00, 0x00, 0x80, 0x7F}},
		{"dcm length", 1, 0x800001, []byte{0xC0, 0x01, 0x00, 0x80, 0x81, 0xFF}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := EncodeRead(tc.module, tc.offset)
			require.NoError(t, err)
			require.Equal(t, tc.expect, b)
		})
	}
}

func TestEncodeValidation(t *testing.T) {
	testCases := []struct {
		name   string
		module uint8
		offset uint32
	}{
		{"module", MaxModule + 1, 0},
		{"module max byte", 0xFF, 0},
		{"offset", 0, MaxOffset + 1},
		{"offset max word", 0, 0xFFFFFFFF},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := EncodeWrite(tc.module, tc.offset, 0)
			require.Nil(t, b)
			require.True(t, errors.Is(err, ValidationError), "%v", err)
			b, err = EncodeRead(tc.module, tc.offset)
			require.Nil(t, b)
			require.Equal(t, ValidationError, KindOf(err))
		})
	}
}

func TestDataWord(t *testing.T) {
	testCases := []struct {
		in     int64
		expect uint32
		ok     bool
	}{
		{0, 0, true},
		{5, 5, true},
		{-1, 0xFFFFFFFF, true},
		{math.MinInt32, 0x80000000, true},
		{math.MaxUint32, 0xFFFFFFFF, true},
		{math.MinInt32 - 1, 0, false},
		{math.MaxUint32 + 1, 0, false},
	}
	for _, tc := range testCases {
		w, err := DataWord(tc.in)
		if !tc.ok {
			assert.Equal(t, ValidationError, KindOf(err), "DataWord(%d)", tc.in)
			continue
		}
		assert.NoError(t, err, "DataWord(%d)", tc.in)
		assert.Equal(t, tc.expect, w, "DataWord(%d)", tc.in)
	}
}

func TestCommandWord(t *testing.T) {
	addr := Address{Module: 0x55, Offset: 0x123456}
	require.Equal(t, uint32(0x55123456), addr.CommandWord(OpWrite))
	require.Equal(t, uint32(0xD5123456), addr.CommandWord(OpRead))
	op, parsed := ParseCommandWord(0xD5123456)
	require.Equal(t, OpRead, op)
	require.Equal(t, addr, parsed)
	op, parsed = ParseCommandWord(0x55123456)
	require.Equal(t, OpWrite, op)
	require.Equal(t, addr, parsed)
}

func TestDecodeResponse(t *testing.T) {
	data, err := DecodeResponse([]byte{0xC1, 0x05, 0x00, 0x00, 0x00, 0xFA})
	require.NoError(t, err)
	require.Equal(t, uint32(5), data)

	for _, v := range []uint32{0, 1, 0x12345678, 0x80000000, 0xFFFFFFFF} {
		data, err = DecodeResponse(EncodeResponse(v))
		require.NoError(t, err)
		require.Equal(t, v, data)
	}
}

func TestDecodeResponseHeader(t *testing.T) {
	for h := 0; h < 256; h++ {
		if byte(h) == ResponseHeader {
			continue
		}
		pkt := EncodeResponse(0x00C0FFEE)
		pkt[0] = byte(h)
		_, err := DecodeResponse(pkt)
		require.Equal(t, ProtocolError, KindOf(err), "header 0x%02X", h)
	}
}

func TestDecodeResponseSize(t *testing.T) {
	pkt := EncodeResponse(7)
	for _, b := range [][]byte{nil, pkt[:5], append(pkt, 0)} {
		_, err := DecodeResponse(b)
		require.Equal(t, ProtocolError, KindOf(err))
	}
}

func TestChecksumSensitivity(t *testing.T) {
	pkt := EncodeResponse(0xA5A5A55A)
	for i := 1; i < len(pkt); i++ {
		for bit := uint(0); bit < 8; bit++ {
			corrupt := append([]byte(nil), pkt...)
			corrupt[i] ^= 1 << bit
			_, err := DecodeResponse(corrupt)
			require.Equal(t, ChecksumError, KindOf(err), "byte %d bit %d", i, bit)
		}
	}
}

func TestErrorFormat(t *testing.T) {
	err := Errorf(ChecksumError, "read", "expected 0x%02X but got 0x%02X", 0xFA, 0xFB)
	require.Equal(t, "dap read: checksum error: expected 0xFA but got 0xFB", err.Error())
	wrapped := NewError(TransportError, "read", ErrShortRead)
	require.Equal(t, "dap read: transport error: short read", wrapped.Error())
	require.True(t, errors.Is(wrapped, ErrShortRead))
	require.True(t, errors.Is(wrapped, TransportError))
	require.False(t, errors.Is(wrapped, ChecksumError))
	require.Equal(t, Kind(0), KindOf(errors.New("other")))
}
