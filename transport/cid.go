package transport

import crand "crypto/rand"

func cryptoRandRead(b []byte) (int, error) {
	return crand.Read(b)
}

// CIDLen is the length in bytes of every locally-issued connection ID.
const CIDLen = 8

// ConnectionID pairs an issued connection ID with its sequence number and
// stateless reset token (RFC 9000 §5.1, spec §6: "active_connection_id_limit").
type ConnectionID struct {
	SequenceNumber uint64
	ID             []byte
	ResetToken     []byte
	retired        bool
}

// CIDManager tracks the set of connection IDs this endpoint has issued to
// its peer (so NEW_CONNECTION_ID/RETIRE_CONNECTION_ID bookkeeping survives
// independently of any single Conn's scid/dcid pair) and the set the peer
// has issued to it, bounded by active_connection_id_limit.
type CIDManager struct {
	local  []ConnectionID // issued by us, for the peer to use as our dcid
	peer   []ConnectionID // issued by the peer, for us to use as our dcid

	nextLocalSeq uint64
	limit        uint64

	newCID func() ([]byte, error)
}

func newCIDManager(limit uint64, newCID func() ([]byte, error)) *CIDManager {
	if limit == 0 {
		limit = 2
	}
	return &CIDManager{limit: limit, newCID: newCID}
}

// issue creates and records a new local connection ID for the peer to
// switch to, up to the negotiated active_connection_id_limit.
func (m *CIDManager) issue() (*ConnectionID, error) {
	if uint64(len(m.local)) >= m.limit {
		return nil, newError(ConnectionIDLimitError, "local active connection id limit reached")
	}
	id, err := m.newCID()
	if err != nil {
		return nil, err
	}
	token := make([]byte, 16)
	if _, err := cryptoRandRead(token); err != nil {
		return nil, err
	}
	cid := ConnectionID{SequenceNumber: m.nextLocalSeq, ID: id, ResetToken: token}
	m.nextLocalSeq++
	m.local = append(m.local, cid)
	return &m.local[len(m.local)-1], nil
}

// retireLocal marks a previously issued local CID retired once the peer
// confirms it has stopped using it (RETIRE_CONNECTION_ID acked).
func (m *CIDManager) retireLocal(seq uint64) {
	for i := range m.local {
		if m.local[i].SequenceNumber == seq {
			m.local[i].retired = true
		}
	}
}

// addPeer records a connection ID the peer advertised via
// NEW_CONNECTION_ID, respecting the limit we advertised to them.
func (m *CIDManager) addPeer(cid ConnectionID) error {
	if uint64(len(m.peer)) >= m.limit {
		return newError(ConnectionIDLimitError, "peer active connection id limit reached")
	}
	m.peer = append(m.peer, cid)
	return nil
}

// retirePeer drops a peer-issued CID we must stop using (prior to
// RETIRE_CONNECTION_ID=seq being sent).
func (m *CIDManager) retirePeer(seq uint64) {
	for i, c := range m.peer {
		if c.SequenceNumber == seq {
			m.peer = append(m.peer[:i], m.peer[i+1:]...)
			return
		}
	}
}

// nextPeerCID returns an unused peer-issued CID to migrate to, if any.
func (m *CIDManager) nextPeerCID() (ConnectionID, bool) {
	if len(m.peer) == 0 {
		return ConnectionID{}, false
	}
	return m.peer[len(m.peer)-1], true
}
