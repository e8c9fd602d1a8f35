package ton

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"testing"
	"time"
)

func signProof(t *testing.T, priv ed25519.PrivateKey, addrHash []byte, workchain int32, proof *Proof) {
	t.Helper()

	message := []byte(TonProofPrefix)

	wcBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(wcBytes, uint32(workchain))
	message = append(message, wcBytes...)
	message = append(message, addrHash...)

	domainLenBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(domainLenBytes, uint32(proof.Domain.LengthBytes))
	message = append(message, domainLenBytes...)
	message = append(message, []byte(proof.Domain.Value)...)

	tsBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(tsBytes, uint64(proof.Timestamp))
	message = append(message, tsBytes...)
	message = append(message, []byte(proof.Payload)...)

	msgHash := sha256.Sum256(message)
	signatureMessage := []byte{0xff, 0xff}
	signatureMessage = append(signatureMessage, []byte(TonConnectPrefix)...)
	signatureMessage = append(signatureMessage, msgHash[:]...)
	finalHash := sha256.Sum256(signatureMessage)

	proof.Signature = hex.EncodeToString(ed25519.Sign(priv, finalHash[:]))
}

func newTestProof(t *testing.T) (string, []byte, Proof, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	addrHash := make([]byte, 32)
	if _, err := rand.Read(addrHash); err != nil {
		t.Fatalf("rand: %v", err)
	}

	proof := Proof{
		Timestamp: time.Now().Unix(),
		Domain:    ProofDomain{LengthBytes: len("app.example.com"), Value: "app.example.com"},
		Payload:   "nonce-123",
	}
	signProof(t, priv, addrHash, 0, &proof)

	return hex.EncodeToString(pub), addrHash, proof, priv
}

func TestVerifyProof(t *testing.T) {
	pubHex, addrHash, proof, _ := newTestProof(t)

	if err := VerifyProof(pubHex, addrHash, 0, proof, nil); err != nil {
		t.Errorf("valid proof rejected: %v", err)
	}
	if err := VerifyProof(pubHex, addrHash, 0, proof, []string{"app.example.com"}); err != nil {
		t.Errorf("valid proof rejected with allowed domain: %v", err)
	}
}

func TestVerifyProofRejectsTamper(t *testing.T) {
	pubHex, addrHash, proof, _ := newTestProof(t)

	tampered := proof
	tampered.Payload = "other-nonce"
	if err := VerifyProof(pubHex, addrHash, 0, tampered, nil); err == nil {
		t.Error("tampered payload accepted")
	}

	otherHash := make([]byte, 32)
	if err := VerifyProof(pubHex, otherHash, 0, proof, nil); err == nil {
		t.Error("wrong address accepted")
	}
}

func TestVerifyProofRejectsWrongDomain(t *testing.T) {
	pubHex, addrHash, proof, _ := newTestProof(t)
	if err := VerifyProof(pubHex, addrHash, 0, proof, []string{"evil.example.com"}); err == nil {
		t.Error("disallowed domain accepted")
	}
}

func TestVerifyProofRejectsStaleTimestamp(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addrHash := make([]byte, 32)

	proof := Proof{
		Timestamp: time.Now().Add(-time.Hour).Unix(),
		Domain:    ProofDomain{LengthBytes: 3, Value: "app"},
		Payload:   "nonce",
	}
	signProof(t, priv, addrHash, 0, &proof)

	if err := VerifyProof(hex.EncodeToString(pub), addrHash, 0, proof, nil); err == nil {
		t.Error("stale proof accepted")
	}
}

func TestParseRawAddress(t *testing.T) {
	hash := make([]byte, 32)
	hash[0] = 0xab
	raw := "0:" + hex.EncodeToString(hash)

	wc, parsed, err := ParseRawAddress(raw)
	if err != nil {
		t.Fatalf("ParseRawAddress(%q) failed: %v", raw, err)
	}
	if wc != 0 {
		t.Errorf("workchain = %d, want 0", wc)
	}
	if !equalBytes(parsed, hash) {
		t.Error("address hash mismatch")
	}

	if _, _, err := ParseRawAddress("garbage"); err == nil {
		t.Error("expected error for malformed address")
	}
	if _, _, err := ParseRawAddress("0:abcd"); err == nil {
		t.Error("expected error for short hash")
	}
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
