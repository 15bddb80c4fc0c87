package dcm

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dap.go/pkg/cli/sh"
	"github.com/robotalks/dap.go/pkg/dap/comm"
	"github.com/robotalks/dap.go/pkg/dap/sim"
	"github.com/robotalks/dap.go/pkg/fw"
	"github.com/robotalks/dap.go/pkg/fw/dcm"
)

func newTestBoard(t *testing.T) (*fw.Board, *sim.CaptureModule) {
	dev := sim.NewBoard()
	s := comm.NewSession(dev)
	t.Cleanup(func() { s.Close() })
	return fw.NewBoard(s), dev.Module(dcm.Module).(*sim.CaptureModule)
}

func TestDecimation(t *testing.T) {
	b, _ := newTestBoard(t)
	var buf bytes.Buffer
	out := sh.NewOutput(&buf, false)
	require.NoError(t, Decimation(b, []string{"2", "10"}, out))
	require.NoError(t, Decimation(b, []string{"2"}, out))
	require.NoError(t, Decimation(b, []string{"3"}, out))
	assert.Equal(t, "OK\n10  =  port 2's decimation is 10:1\n65535  =  port 3's decimation is 65535:1\n", buf.String())

	assert.True(t, errors.Is(Decimation(b, []string{"6"}, out), comm.ValidationError))
	assert.True(t, errors.Is(Decimation(b, []string{"0", "65536"}, out), comm.ValidationError))
	assert.True(t, errors.Is(Decimation(b, nil, out), comm.ValidationError))
}

func TestDumpPrint(t *testing.T) {
	b, capture := newTestBoard(t)
	words := make([]uint32, 10)
	for i := range words {
		words[i] = uint32(i)
	}
	capture.Append(words...)

	var buf bytes.Buffer
	require.NoError(t, Dump(b, nil, sh.NewOutput(&buf, false)))
	assert.Equal(t, "000000: 00000000 00000001 00000002 00000003 00000004 00000005 00000006 00000007\n"+
		"000008: 00000008 00000009\n10 words\n", buf.String())

	buf.Reset()
	require.NoError(t, Dump(b, nil, sh.NewOutput(&buf, true)))
	var got []uint32
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, words, got)
}

func TestDumpSave(t *testing.T) {
	b, capture := newTestBoard(t)
	capture.Append(7, 8, 9)
	path := filepath.Join(t.TempDir(), "dcm.bin")
	var buf bytes.Buffer
	require.NoError(t, Dump(b, []string{path}, sh.NewOutput(&buf, false)))
	assert.Equal(t, "3 words saved to "+path+"\n", buf.String())
	words, err := dcm.LoadWords(path)
	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 8, 9}, words)
}

func TestClear(t *testing.T) {
	b, capture := newTestBoard(t)
	capture.Append(1, 2)
	var buf bytes.Buffer
	require.NoError(t, Clear(b, sh.NewOutput(&buf, false)))
	n, err := b.DCM.Length()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStatus(t *testing.T) {
	b, _ := newTestBoard(t)
	var buf bytes.Buffer
	require.NoError(t, Status(b, sh.NewOutput(&buf, true)))
	var st dcm.Status
	require.NoError(t, json.Unmarshal(buf.Bytes(), &st))
	assert.Equal(t, uint32(65536), st.Size)
	assert.Equal(t, uint32(65535), st.Decimation[5])
}
