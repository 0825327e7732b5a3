package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
)

// RFC 9001 §5.2: the salt used to derive Initial secrets for QUIC v1.
var initialSalt = []byte{
	0x38, 0x76, 0x2c, 0xf7, 0xf5, 0x59, 0x34, 0xb3,
	0x4d, 0x17, 0x9a, 0xe6, 0xa4, 0xc8, 0x0c, 0xad,
	0xcc, 0xbb, 0x7f, 0x0a,
}

// hkdfExtract and hkdfExpandLabel implement RFC 5869 HKDF and the
// TLS 1.3 / QUIC-TLS "HKDF-Expand-Label" construction (RFC 8446 §7.1,
// RFC 9001 §5.1) directly over crypto/hmac+crypto/sha256: the standard
// library had no packaged HKDF at the time this core was written, so the
// primitive is built the same way the wider QUIC-in-Go ecosystem does
// (e.g. quic-go's internal/handshake package before golang.org/x/crypto/hkdf
// was adopted).
func hkdfExtract(salt, secret []byte) []byte {
	mac := hmac.New(sha256.New, salt)
	mac.Write(secret)
	return mac.Sum(nil)
}

func hkdfExpand(secret []byte, info []byte, length int) []byte {
	mac := hmac.New(sha256.New, secret)
	var out, prev []byte
	var counter byte = 1
	for len(out) < length {
		mac.Reset()
		mac.Write(prev)
		mac.Write(info)
		mac.Write([]byte{counter})
		prev = mac.Sum(nil)
		out = append(out, prev...)
		counter++
	}
	return out[:length]
}

func hkdfExpandLabel(secret []byte, label string, length int) []byte {
	// struct { uint16 length; opaque label<7..255> = "tls13 " + label; opaque context<0..255>; }
	fullLabel := "tls13 " + label
	info := make([]byte, 0, 2+1+len(fullLabel)+1)
	info = append(info, byte(length>>8), byte(length))
	info = append(info, byte(len(fullLabel)))
	info = append(info, fullLabel...)
	info = append(info, 0) // empty context
	return hkdfExpand(secret, info, length)
}

// aeadKeys holds the derived key material for one direction of one
// encryption level (spec §4.6: "per level, when the library derives a key,
// the adapter is notified with traffic secrets for read and write").
type aeadKeys struct {
	aead   cipher.AEAD
	iv     []byte
	hp     cipher.Block // header-protection block cipher, AES-ECB sampling
}

func deriveAEADKeys(secret []byte) aeadKeys {
	key := hkdfExpandLabel(secret, "quic key", 16)
	iv := hkdfExpandLabel(secret, "quic iv", 12)
	hpKey := hkdfExpandLabel(secret, "quic hp", 16)
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		panic(err)
	}
	hpBlock, err := aes.NewCipher(hpKey)
	if err != nil {
		panic(err)
	}
	return aeadKeys{aead: aead, iv: iv, hp: hpBlock}
}

// initialAEAD derives the client and server Initial packet protection keys
// from a destination connection ID, per RFC 9001 §5.2.
type initialAEAD struct {
	client aeadKeys
	server aeadKeys
}

func (s *initialAEAD) init(dcid []byte) {
	initialSecret := hkdfExtract(initialSalt, dcid)
	clientSecret := hkdfExpandLabel(initialSecret, "client in", 32)
	serverSecret := hkdfExpandLabel(initialSecret, "server in", 32)
	s.client = deriveAEADKeys(clientSecret)
	s.server = deriveAEADKeys(serverSecret)
}

// headerProtectionMask computes the 5-byte mask applied to the first byte
// (low bits) and packet-number bytes, sampled from the ciphertext per
// RFC 9001 §5.4.
func headerProtectionMask(hp cipher.Block, sample []byte) []byte {
	mask := make([]byte, hp.BlockSize())
	hp.Encrypt(mask, sample)
	return mask
}

// packetNonce XORs the IV with the packet number per RFC 9001 §5.3.
func packetNonce(iv []byte, pn uint64) []byte {
	nonce := make([]byte, len(iv))
	copy(nonce, iv)
	for i := 0; i < 8; i++ {
		nonce[len(nonce)-1-i] ^= byte(pn >> (8 * i))
	}
	return nonce
}
