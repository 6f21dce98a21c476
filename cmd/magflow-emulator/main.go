// magflow-emulator answers magflow bus read commands over TCP with
// synthetic sensor records. It exists to exercise flowmeterd without
// hardware, including its handling of flaky devices: checksum
// corruption, truncated responses and dead air can all be injected.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbowes/flowmeterd/internal/meters/magflow"
)

// FlakyConfig holds the failure injection rates
type FlakyConfig struct {
	BadChecksumRate float64 // probability of corrupting the frame checksum
	TruncateRate    float64 // probability of sending a short frame
	NoResponseRate  float64 // probability of not answering at all
}

// Emulator generates sensor records for a single simulated meter
type Emulator struct {
	busAddress uint8
	rangeFull  uint32
	serial     string
	flaky      FlakyConfig
	start      time.Time
}

// currentFrame builds the live sensor record: a slow sine sweep across
// most of the measuring range, plus noise, so the daemon's filter has
// something to do.
func (e *Emulator) currentFrame() *magflow.Frame {
	elapsed := time.Since(e.start).Seconds()

	// Sweep between -90% and +90% of full scale over ~5 minutes.
	fraction := 0.9 * math.Sin(2*math.Pi*elapsed/300)
	fraction += rand.NormFloat64() * 0.01

	if fraction > 1 {
		fraction = 1
	} else if fraction < -1 {
		fraction = -1
	}

	magnitude := uint32(math.Abs(fraction) * 0x7FFFFF)
	rawFlow := magnitude
	if fraction < 0 {
		rawFlow = (-magnitude) & 0xFFFFFF
	}

	f := &magflow.Frame{
		FlowRaw:  rawFlow,
		TempRaw:  int16(2100 + rand.Intn(200)), // 21.00-23.00 C
		RangeRaw: e.rangeFull,
		Version:  [4]byte{2, 1, 4, 0},
	}
	copy(f.Serial[:], e.serial)
	copy(f.FirmwareCk[:], []byte{0xDE, 0xAD, 0xBE, 0xEF})
	return f
}

// respond builds the response for one read command, with failures
// injected per the flaky config.
func (e *Emulator) respond(length uint8) []byte {
	if rand.Float64() < e.flaky.NoResponseRate {
		log.Printf("flaky: swallowing response")
		return nil
	}

	raw := magflow.EncodeFrame(e.currentFrame())
	if int(length) < len(raw) {
		raw = raw[:length]
	}

	if rand.Float64() < e.flaky.BadChecksumRate {
		log.Printf("flaky: corrupting checksum")
		raw[len(raw)-1] ^= 0xFF
	}

	if rand.Float64() < e.flaky.TruncateRate {
		n := rand.Intn(len(raw))
		log.Printf("flaky: truncating frame to %d bytes", n)
		raw = raw[:n]
	}

	return raw
}

func (e *Emulator) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	log.Printf("client connected: %v", conn.RemoteAddr())

	cmd := make([]byte, magflow.ReadCommandLength)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		if _, err := io.ReadFull(conn, cmd); err != nil {
			log.Printf("client %v gone: %v", conn.RemoteAddr(), err)
			return
		}

		busAddr, startAddr, length, err := magflow.ParseReadCommand(cmd)
		if err != nil {
			log.Printf("ignoring bad command from %v: %v", conn.RemoteAddr(), err)
			continue
		}
		if busAddr != e.busAddress {
			// Not addressed to us; a real bus device stays silent.
			log.Printf("ignoring command for bus address 0x%02X", busAddr)
			continue
		}
		_ = startAddr

		if resp := e.respond(length); resp != nil {
			if _, err := conn.Write(resp); err != nil {
				log.Printf("write to %v failed: %v", conn.RemoteAddr(), err)
				return
			}
		}
	}
}

func main() {
	listenAddr := flag.String("listen", ":5110", "TCP listen address")
	busAddress := flag.Int("bus-address", 7, "Bus address to answer on")
	rangeFull := flag.Int("range", 1000, "Full-scale range reported in the sensor record")
	serial := flag.String("serial", "MF8041-007", "Serial number reported in the sensor record (10 chars max)")
	badChecksumRate := flag.Float64("bad-checksum-rate", 0, "Probability of corrupting the frame checksum (0.0-1.0)")
	truncateRate := flag.Float64("truncate-rate", 0, "Probability of sending a truncated frame (0.0-1.0)")
	noResponseRate := flag.Float64("no-response-rate", 0, "Probability of not responding to a command (0.0-1.0)")
	flag.Parse()

	emulator := &Emulator{
		busAddress: uint8(*busAddress),
		rangeFull:  uint32(*rangeFull) & 0x7FFFFF,
		serial:     *serial,
		flaky: FlakyConfig{
			BadChecksumRate: *badChecksumRate,
			TruncateRate:    *truncateRate,
			NoResponseRate:  *noResponseRate,
		},
		start: time.Now(),
	}

	ln, err := net.Listen("tcp", *listenAddr)
	if err != nil {
		log.Fatalf("listen on %s: %v", *listenAddr, err)
	}
	log.Printf("magflow emulator listening on %s, bus address 0x%02X, range %d",
		*listenAddr, emulator.busAddress, emulator.rangeFull)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("shutting down")
		cancel()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("accept: %v", err)
				continue
			}
		}
		go emulator.handleConn(ctx, conn)
	}
}
