package comm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustBytes(t *testing.T, cmd Command) []byte {
	b, err := cmd.Bytes()
	require.NoError(t, err)
	return b
}

func TestParser(t *testing.T) {
	write := Command{Op: OpWrite, Address: Address{Module: 0, Offset: 3}, Data: 5}
	read := Command{Op: OpRead, Address: Address{Module: 1, Offset: 0x800001}}
	dump := Command{Op: OpWrite, Address: Address{Module: 1, Offset: 0x800000}, Data: 2}

	badSum := mustBytes(t, write)
	badSum[9] ^= 0x01

	testCases := []struct {
		name    string
		in      [][]byte
		expect  []Command
		dropped int
	}{
		{
			name:   "write",
			in:     [][]byte{mustBytes(t, write)},
			expect: []Command{write},
		},
		{
			name:   "read",
			in:     [][]byte{mustBytes(t, read)},
			expect: []Command{read},
		},
		{
			name:   "back to back",
			in:     [][]byte{mustBytes(t, write), mustBytes(t, read), mustBytes(t, dump)},
			expect: []Command{write, read, dump},
		},
		{
			name:   "skip garbage",
			in:     [][]byte{{0x00, 0xC1, 0xFF}, mustBytes(t, read)},
			expect: []Command{read},
		},
		{
			name:    "drop bad checksum",
			in:      [][]byte{badSum, mustBytes(t, read)},
			expect:  []Command{read},
			dropped: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			var cmds []Command
			var dropped int
			for _, b := range tc.in {
				c, errs := p.ParseBytes(b)
				cmds = append(cmds, c...)
				for _, err := range errs {
					require.Equal(t, ChecksumError, KindOf(err))
				}
				dropped += len(errs)
			}
			require.Equal(t, tc.expect, cmds)
			require.Equal(t, tc.dropped, dropped)
			require.False(t, p.Receiving())
		})
	}
}

func TestParserByteByByte(t *testing.T) {
	var p Parser
	pkt := mustBytes(t, Command{Op: OpWrite, Address: Address{Module: 0x7f, Offset: 0xffffff}, Data: 0xdeadbeef})
	for i, b := range pkt[:len(pkt)-1] {
		pr := p.Parse(b)
		require.Nil(t, pr.Command, "byte %d", i)
		require.NoError(t, pr.Err, "byte %d", i)
		require.True(t, p.Receiving(), "byte %d", i)
	}
	pr := p.Parse(pkt[len(pkt)-1])
	require.NotNil(t, pr.Command)
	require.Equal(t, uint32(0xdeadbeef), pr.Command.Data)
	require.Equal(t, uint8(0x7f), pr.Command.Address.Module)

	p.Parse(CommandHeader)
	require.True(t, p.Receiving())
	p.Reset()
	require.False(t, p.Receiving())
	require.True(t, p.Parse(0x00).Skipped)
}
