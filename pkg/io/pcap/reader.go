// Package pcap renders packet captures as tabular batches so network
// telemetry can be profiled like any other source.
package pcap

import (
	"errors"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/hed1ad/godriftml/pkg/batch"
)

// Column layout of the produced batches, one row per packet.
var columnNames = []string{
	"packet_size",
	"inter_arrival_time",
	"protocol",
	"src_port",
	"dst_port",
	"tcp_flags",
	"ip_ttl",
	"payload_size",
}

// Reader reads packets from a capture file or a live interface and emits
// them as one batch of numeric columns.
type Reader struct {
	handle *pcap.Handle
	last   time.Time
}

// NewFileReader opens a capture file.
func NewFileReader(filename string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filename)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle}, nil
}

// NewLiveReader opens a live interface.
func NewLiveReader(iface string, snaplen int32, promisc bool, timeout time.Duration) (*Reader, error) {
	handle, err := pcap.OpenLive(iface, snaplen, promisc, timeout)
	if err != nil {
		return nil, err
	}
	return &Reader{handle: handle}, nil
}

// Read drains the capture and returns it as one batch. Fields a packet
// does not carry (ports on ICMP, TTL on non-IPv4) are null, not zero.
func (r *Reader) Read() (*batch.Batch, error) {
	if r.handle == nil {
		return nil, errors.New("pcap: reader not initialized")
	}

	columns := make([]batch.Column, len(columnNames))
	for i, name := range columnNames {
		columns[i] = batch.Column{Name: name}
	}

	source := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	for packet := range source.Packets() {
		row := r.extract(packet)
		for i := range columns {
			columns[i].Values = append(columns[i].Values, row[i])
		}
	}

	return batch.New(columns...)
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.handle != nil {
		r.handle.Close()
	}
	return nil
}

// extract converts a packet to one batch row, in columnNames order.
func (r *Reader) extract(packet gopacket.Packet) []batch.Value {
	row := make([]batch.Value, len(columnNames))
	for i := range row {
		row[i] = batch.Null()
	}

	row[0] = batch.Int(int64(len(packet.Data())))

	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		if !r.last.IsZero() {
			row[1] = batch.Float(meta.Timestamp.Sub(r.last).Seconds())
		}
		r.last = meta.Timestamp
	}

	if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		tcp := tcpLayer.(*layers.TCP)
		row[2] = batch.Int(6)
		row[3] = batch.Int(int64(tcp.SrcPort))
		row[4] = batch.Int(int64(tcp.DstPort))
		row[5] = batch.Int(encodeTCPFlags(tcp))
	} else if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
		udp := udpLayer.(*layers.UDP)
		row[2] = batch.Int(17)
		row[3] = batch.Int(int64(udp.SrcPort))
		row[4] = batch.Int(int64(udp.DstPort))
	} else if packet.Layer(layers.LayerTypeICMPv4) != nil {
		row[2] = batch.Int(1)
	}

	if ipLayer := packet.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		row[6] = batch.Int(int64(ipLayer.(*layers.IPv4).TTL))
	}

	if appLayer := packet.ApplicationLayer(); appLayer != nil {
		row[7] = batch.Int(int64(len(appLayer.Payload())))
	}

	return row
}

// encodeTCPFlags packs TCP flags into one numeric feature.
func encodeTCPFlags(tcp *layers.TCP) int64 {
	var flags int64
	if tcp.SYN {
		flags |= 1
	}
	if tcp.ACK {
		flags |= 2
	}
	if tcp.FIN {
		flags |= 4
	}
	if tcp.RST {
		flags |= 8
	}
	if tcp.PSH {
		flags |= 16
	}
	if tcp.URG {
		flags |= 32
	}
	return flags
}
