package discovery

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"time"
	"unicode/utf8"

	"github.com/maxpoletaev/canzero/internal/binario"
)

const (
	KindProbe byte = 0
	KindReply byte = 1

	// extensionMarker separates the service name of a reply from the optional
	// descriptor fields. It cannot appear in a valid service name.
	extensionMarker = 0x00
)

var (
	errEmptyDatagram   = errors.New("empty datagram")
	errInvalidService  = errors.New("service name is not valid utf-8")
	errTruncatedReply  = errors.New("truncated reply")
	errUnexpectedKind  = errors.New("unexpected message kind")
	errServiceMismatch = errors.New("service name mismatch")
)

// Advertisement is the payload of a discovery probe.
type Advertisement struct {
	Kind    byte
	Service string
}

func (a Advertisement) MarshalBinary() ([]byte, error) {
	if !utf8.ValidString(a.Service) {
		return nil, errInvalidService
	}

	b := make([]byte, 0, 1+len(a.Service))
	b = append(b, a.Kind)
	b = append(b, a.Service...)

	return b, nil
}

// ServerInfo is what a bridge server announces about itself in reply to a probe.
type ServerInfo struct {
	Service           string
	ServerName        string
	ServicePort       uint16
	StartTimestamp    time.Time
	ConfigFingerprint uint64
}

// MarshalReply encodes a reply datagram: kind, little-endian port, service
// name, then the marker byte followed by the server name, start timestamp
// and configuration fingerprint.
func (info ServerInfo) MarshalReply() ([]byte, error) {
	if !utf8.ValidString(info.Service) || bytes.IndexByte([]byte(info.Service), extensionMarker) >= 0 {
		return nil, errInvalidService
	}

	buf := new(bytes.Buffer)
	w := binario.NewWriter(buf, binary.LittleEndian)

	_ = w.WriteUint8(KindReply)
	_ = w.WriteUint16(info.ServicePort)
	buf.WriteString(info.Service)
	_ = w.WriteUint8(extensionMarker)

	if err := w.WriteShortString(info.ServerName); err != nil {
		return nil, fmt.Errorf("server name: %w", err)
	}

	var ts uint64
	if !info.StartTimestamp.IsZero() {
		ts = uint64(info.StartTimestamp.UnixMicro())
	}

	_ = w.WriteUint64(ts)
	_ = w.WriteUint64(info.ConfigFingerprint)

	return buf.Bytes(), nil
}

// ServerDescriptor describes a bridge server found on the network.
type ServerDescriptor struct {
	ServerName  string
	ServerAddr  netip.Addr
	ServicePort uint16

	// StartTimestamp is when the server started. Frame timestamps on its
	// stream are relative to it. Zero when the reply has no extension.
	StartTimestamp    time.Time
	ConfigFingerprint uint64
}

// AddrPort returns the address the bridge service accepts connections on.
func (d ServerDescriptor) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(d.ServerAddr, d.ServicePort)
}

// parseProbe returns the service name of a probe datagram.
func parseProbe(b []byte) (string, error) {
	if len(b) == 0 {
		return "", errEmptyDatagram
	}

	if b[0] != KindProbe {
		return "", errUnexpectedKind
	}

	if !utf8.Valid(b[1:]) {
		return "", errInvalidService
	}

	return string(b[1:]), nil
}

// parseReply decodes a reply datagram received from addr. Replies for other
// services, probes and malformed datagrams are rejected with an error.
func parseReply(b []byte, service string, addr netip.Addr) (ServerDescriptor, error) {
	if len(b) == 0 {
		return ServerDescriptor{}, errEmptyDatagram
	}

	if b[0] != KindReply {
		return ServerDescriptor{}, errUnexpectedKind
	}

	if len(b) < 3 {
		return ServerDescriptor{}, errTruncatedReply
	}

	desc := ServerDescriptor{
		ServerAddr:  addr,
		ServicePort: binary.LittleEndian.Uint16(b[1:3]),
	}

	name, ext, hasExt := bytes.Cut(b[3:], []byte{extensionMarker})

	if !utf8.Valid(name) {
		return ServerDescriptor{}, errInvalidService
	}

	if string(name) != service {
		return ServerDescriptor{}, errServiceMismatch
	}

	if !hasExt {
		return desc, nil
	}

	r := binario.NewReader(bytes.NewReader(ext), binary.LittleEndian)

	serverName, err := r.ReadShortString()
	if err != nil || !utf8.ValidString(serverName) {
		return ServerDescriptor{}, errTruncatedReply
	}

	ts, err := r.ReadUint64()
	if err != nil {
		return ServerDescriptor{}, errTruncatedReply
	}

	fingerprint, err := r.ReadUint64()
	if err != nil {
		return ServerDescriptor{}, errTruncatedReply
	}

	desc.ServerName = serverName
	desc.ConfigFingerprint = fingerprint

	if ts != 0 {
		desc.StartTimestamp = time.UnixMicro(int64(ts))
	}

	return desc, nil
}
