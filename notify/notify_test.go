package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/calvinmclean/barbot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type bufferPort struct {
	bytes.Buffer
	closed bool
	err    error
}

func (b *bufferPort) Write(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	return b.Buffer.Write(p)
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

type recordingChannel struct {
	sent []barbot.Command
	err  error
}

func (r *recordingChannel) Send(_ context.Context, cmd barbot.Command) error {
	r.sent = append(r.sent, cmd)
	return r.err
}

func (r *recordingChannel) Close() error { return nil }

func TestSerialSend(t *testing.T) {
	port := &bufferPort{}
	s := NewSerial("test", port, nil)

	require.NoError(t, s.Send(context.Background(), barbot.CommandWaiting))
	require.NoError(t, s.Send(context.Background(), barbot.CommandAdios))
	assert.Equal(t, "WAITING\nADIOS\n", port.String())

	require.NoError(t, s.Close())
	assert.True(t, port.closed)
}

func TestSerialSendError(t *testing.T) {
	port := &bufferPort{err: errors.New("device unplugged")}
	s := NewSerial("test", port, nil)

	err := s.Send(context.Background(), barbot.CommandComplete)
	assert.ErrorContains(t, err, "device unplugged")
}

func TestSerialSendCancelled(t *testing.T) {
	port := &bufferPort{}
	s := NewSerial("test", port, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Send(ctx, barbot.CommandComplete)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, port.String())
}

func TestDisconnected(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := NewDisconnected(zap.New(core))

	err := d.Send(context.Background(), barbot.CommandComplete)
	assert.NoError(t, err)

	entries := logs.FilterMessage("notification device not connected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "COMPLETE", entries[0].ContextMap()["command"])
}

func TestOpenWithoutPort(t *testing.T) {
	for _, name := range []string{"", SerialPortNone} {
		c := Open(name, 115200, nil)
		assert.IsType(t, Disconnected{}, c)
		assert.NoError(t, c.Send(context.Background(), barbot.CommandWaiting))
	}
}

func TestMulti(t *testing.T) {
	ok := &recordingChannel{}
	failing := &recordingChannel{err: errors.New("broker down")}

	m := Multi{ok, failing}
	err := m.Send(context.Background(), barbot.CommandFinished)
	assert.ErrorContains(t, err, "broker down")

	assert.Equal(t, []barbot.Command{barbot.CommandFinished}, ok.sent)
	assert.Equal(t, []barbot.Command{barbot.CommandFinished}, failing.sent)

	assert.NoError(t, Multi{ok}.Send(context.Background(), barbot.CommandWaiting))
	assert.NoError(t, m.Close())
}
