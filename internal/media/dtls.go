package media

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pion/dtls/v2"
	"github.com/pion/dtls/v2/pkg/crypto/selfsign"
	"github.com/rs/zerolog"
)

// RFC 5764 §4.2 key material layout for AES_CM_128_HMAC_SHA1_80: 60 bytes,
// sliced as client_write_key | server_write_key | client_write_salt |
// server_write_salt. "client" here means browser-to-server (inbound).
const (
	srtpKeyingLabel = "EXTRACTOR-dtls_srtp"
	srtpMasterKeyLen  = 16
	srtpMasterSaltLen = 14
	srtpKeyingLen     = (srtpMasterKeyLen + srtpMasterSaltLen) * 2
)

// ServerCert is the process-wide self-signed DTLS certificate, generated
// once at startup and reused for every peer's handshake.
type ServerCert struct {
	Certificate tls.Certificate
	Fingerprint string
}

func GenerateServerCert() (*ServerCert, error) {
	cert, err := selfsign.GenerateSelfSigned()
	if err != nil {
		return nil, fmt.Errorf("media: generate self-signed cert: %w", err)
	}
	fp, err := fingerprint(cert)
	if err != nil {
		return nil, fmt.Errorf("media: fingerprint cert: %w", err)
	}
	return &ServerCert{Certificate: cert, Fingerprint: fp}, nil
}

func fingerprint(cert tls.Certificate) (string, error) {
	if len(cert.Certificate) == 0 {
		return "", fmt.Errorf("media: certificate has no leaf")
	}
	sum := sha256.Sum256(cert.Certificate[0])
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return "sha-256 " + strings.Join(parts, ":"), nil
}

// SessionMap tracks passive DTLS sessions by peer address so the relay's
// hot receive loop can hand a DTLS-class datagram to the right adapter
// instead of spawning a new handshake per packet.
type SessionMap struct {
	mu     sync.RWMutex
	byAddr map[string]*udpConnAdapter
}

func NewSessionMap() *SessionMap {
	return &SessionMap{byAddr: make(map[string]*udpConnAdapter)}
}

func (m *SessionMap) get(addr *net.UDPAddr) *udpConnAdapter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byAddr[addr.String()]
}

func (m *SessionMap) insert(addr *net.UDPAddr, c *udpConnAdapter) {
	m.mu.Lock()
	m.byAddr[addr.String()] = c
	m.mu.Unlock()
}

func (m *SessionMap) remove(addr *net.UDPAddr) {
	m.mu.Lock()
	delete(m.byAddr, addr.String())
	m.mu.Unlock()
}

// Count reports the number of sessions in the map, used by the admin
// trace surface: handshakes in progress plus established connections
// still being read. An entry is removed only by its goroutine's own
// defer, when the handshake fails or times out or a read from the
// established connection fails; there is no separate stale-session sweep.
func (m *SessionMap) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byAddr)
}

// Inject hands a demultiplexed DTLS datagram to its handshake goroutine.
// It reports whether a session was listening for this address.
func (m *SessionMap) Inject(addr *net.UDPAddr, packet []byte) bool {
	c := m.get(addr)
	if c == nil {
		return false
	}
	c.Push(packet)
	return true
}

// StartHandshake begins a passive DTLS handshake with peerAddr over the
// shared UDP socket. On success it installs the derived keys into inbound
// (browser-to-server) and outbound (server-to-browser) and keeps reading
// the established connection; onDone is called with a nil error once that
// read fails. On handshake failure or timeout onDone receives the error.
// The call returns immediately; the handshake runs on its own goroutine
// so the relay's receive loop is never blocked by it.
func StartHandshake(
	socket *net.UDPConn,
	peerAddr *net.UDPAddr,
	cert *ServerCert,
	sessions *SessionMap,
	inbound, outbound *SRTPContext,
	handshakeTimeout time.Duration,
	logID string,
	log zerolog.Logger,
	onDone func(err error),
) {
	adapter := newUDPConnAdapter(socket, peerAddr)
	sessions.insert(peerAddr, adapter)

	go func() {
		defer sessions.remove(peerAddr)
		defer adapter.Close()

		ctx, cancel := context.WithTimeout(context.Background(), handshakeTimeout)
		defer cancel()

		err := doHandshake(ctx, adapter, cert, inbound, outbound, logID, log)
		if onDone != nil {
			onDone(err)
		}
	}()
}

func doHandshake(
	ctx context.Context,
	adapter *udpConnAdapter,
	cert *ServerCert,
	inbound, outbound *SRTPContext,
	logID string,
	log zerolog.Logger,
) error {
	cfg := &dtls.Config{
		Certificates:           []tls.Certificate{cert.Certificate},
		SRTPProtectionProfiles: []dtls.SRTPProtectionProfile{dtls.SRTP_AES128_CM_HMAC_SHA1_80},
		ExtendedMasterSecret:   dtls.RequireExtendedMasterSecret,
		InsecureSkipVerify:     true,
		LoggerFactory:          ZerologLoggerFactory{Base: log},
	}

	conn, err := dtls.ServerWithContext(ctx, adapter, cfg)
	if err != nil {
		return fmt.Errorf("media: dtls handshake failed for %s: %w", logID, err)
	}
	defer conn.Close()

	state := conn.ConnectionState()
	material, err := state.ExportKeyingMaterial(srtpKeyingLabel, nil, srtpKeyingLen)
	if err != nil {
		return fmt.Errorf("media: export keying material for %s: %w", logID, err)
	}

	clientKey := material[0:srtpMasterKeyLen]
	serverKey := material[srtpMasterKeyLen : srtpMasterKeyLen*2]
	clientSalt := material[srtpMasterKeyLen*2 : srtpMasterKeyLen*2+srtpMasterSaltLen]
	serverSalt := material[srtpMasterKeyLen*2+srtpMasterSaltLen:]

	if err := inbound.Install(append(clientKey[:0:0], clientKey...), append(clientSalt[:0:0], clientSalt...)); err != nil {
		return fmt.Errorf("media: install inbound srtp keys for %s: %w", logID, err)
	}
	if err := outbound.Install(append(serverKey[:0:0], serverKey...), append(serverSalt[:0:0], serverSalt...)); err != nil {
		return fmt.Errorf("media: install outbound srtp keys for %s: %w", logID, err)
	}

	log.Info().Str("module", "dtls").Str("peer", logID).Msg("srtp keys installed")

	buf := make([]byte, 1500)
	for {
		if _, err := conn.Read(buf); err != nil {
			return nil
		}
	}
}
