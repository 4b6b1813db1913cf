package forwarder

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/jd3nn1s/fognode"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type UDPConfig struct {
	Server string
	Port   int
}

// UDPForwarder sends compact binary status frames to a dashboard.
type UDPForwarder struct {
	Config UDPConfig

	conn    net.Conn
	pending latest
}

func NewUDPForwarder(config UDPConfig) *UDPForwarder {
	return &UDPForwarder{
		Config:  config,
		pending: newLatest(),
	}
}

func (udp *UDPForwarder) Name() string {
	return "udp"
}

func (udp *UDPForwarder) Open() error {
	writeBufSize := maxFrameSize * 2

	conn, err := net.Dial("udp", fmt.Sprintf("%s:%d",
		udp.Config.Server,
		udp.Config.Port))
	if err != nil {
		return errors.Wrapf(err, "unable to dial %s:%d", udp.Config.Server, udp.Config.Port)
	}
	udpConn := conn.(*net.UDPConn)
	if err = udpConn.SetWriteBuffer(writeBufSize); err != nil {
		_ = conn.Close()
		return errors.Wrapf(err, "unable to set OS write buffer to %v", writeBufSize)
	}

	udp.conn = conn
	return nil
}

func (udp *UDPForwarder) Close() error {
	if udp.conn == nil {
		return nil
	}
	err := udp.conn.Close()
	udp.conn = nil
	return err
}

func (udp *UDPForwarder) Forward(status *fognode.Status) error {
	return udp.pending.offer(status)
}

func (udp *UDPForwarder) Start(ctx context.Context) error {
	return udp.pending.run(ctx, func(_ context.Context, status *fognode.Status) error {
		if err := udp.forward(status); err != nil {
			log.Error("unable to forward status to dashboard ", err)
			return err
		}
		return nil
	})
}

func (udp *UDPForwarder) forward(status *fognode.Status) error {
	if udp.conn == nil {
		return errors.New("udp forwarder is not connected")
	}
	buf := bytes.NewBuffer(make([]byte, 0, maxFrameSize))
	hdr := Header{
		Type: frameType(status),
	}
	if err := binary.Write(buf, binary.LittleEndian, &hdr); err != nil {
		return errors.Wrap(err, "unable to write udp packet header")
	}
	frame := NewStatusFrame(status)
	if err := binary.Write(buf, binary.LittleEndian, &frame); err != nil {
		return errors.Wrap(err, "unable to write status udp packet")
	}
	_, err := udp.conn.Write(buf.Bytes())
	return err
}
