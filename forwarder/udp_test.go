package forwarder

import (
	"bytes"
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDPForwarder(t *testing.T) {
	defer fastForwarding()()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()
	udpAddr := pc.LocalAddr().(*net.UDPAddr)

	recvData := struct {
		data []byte
		len  int
	}{}

	dataChan := make(chan struct{}, 1)
	go func() {
		buffer := make([]byte, 1024)
		assert.NoError(t, pc.SetReadDeadline(time.Now().Add(time.Second*3)))
		n, _, err := pc.ReadFrom(buffer)
		assert.NoError(t, err)
		recvData.data = buffer
		recvData.len = n
		dataChan <- struct{}{}
	}()

	udp := NewUDPForwarder(UDPConfig{
		Server: "127.0.0.1",
		Port:   udpAddr.Port,
	})
	require.NoError(t, udp.Open())
	defer udp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = udp.Start(ctx)
	}()

	status := testStatus(7, true)
	assert.NoError(t, udp.Forward(status))

	<-dataChan
	assert.Equal(t, maxFrameSize, recvData.len)
	assert.Equal(t, 38, recvData.len)

	hdr := Header{}
	recvFrame := StatusFrame{}
	rdr := bytes.NewReader(recvData.data)
	assert.NoError(t, binary.Read(rdr, binary.LittleEndian, &hdr))
	assert.NoError(t, binary.Read(rdr, binary.LittleEndian, &recvFrame))
	assert.Equal(t, uint8(TypeActuation), hdr.Type)
	assert.Equal(t, NewStatusFrame(status), recvFrame)
}

func TestUDPForwarderNotConnected(t *testing.T) {
	udp := NewUDPForwarder(UDPConfig{Server: "127.0.0.1", Port: 9})
	assert.Error(t, udp.forward(testStatus(1, false)))
	assert.NoError(t, udp.Close())
	assert.Equal(t, "udp", udp.Name())
}
