package ldapcodec_test

import (
	"bytes"
	"testing"

	"github.com/jvanzyl/ldapcodec"
)

func TestNextMessageIDIncreases(t *testing.T) {
	a := ldapcodec.NextMessageID()
	b := ldapcodec.NextMessageID()
	if b <= a {
		t.Fatalf("expected increasing ids, got %d then %d", a, b)
	}
}

func TestNextMessageIDConcurrentIsUnique(t *testing.T) {
	const n = 200
	ids := make(chan ldapcodec.MessageID, n)
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			ids <- ldapcodec.NextMessageID()
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	close(ids)
	seen := make(map[ldapcodec.MessageID]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate message id %d", id)
		}
		seen[id] = true
	}
}

func TestNewMessageEncodeDecodeRoundTrip(t *testing.T) {
	req := ldapcodec.NewSimpleBindRequest("cn=admin,dc=example,dc=com", "secret")
	msg := ldapcodec.NewMessage(42, ldapcodec.TypeBindRequestOp, req, nil)

	buf := bytes.NewBuffer(nil)
	if err := ldapcodec.EncodeMessage(buf, msg); err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}

	decoded, err := ldapcodec.DecodeMessage(buf)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if decoded.MessageID != 42 {
		t.Fatalf("messageID: got %d, want 42", decoded.MessageID)
	}
	if decoded.ProtocolOp.Type != ldapcodec.TypeBindRequestOp {
		t.Fatalf("protocolOp type: got 0x%02x, want 0x%02x", decoded.ProtocolOp.Type, ldapcodec.TypeBindRequestOp)
	}
	if len(decoded.Controls) != 0 {
		t.Fatalf("expected no controls, got %d", len(decoded.Controls))
	}

	decodedReq, err := ldapcodec.GetBindRequest(decoded.ProtocolOp.Data)
	if err != nil {
		t.Fatalf("GetBindRequest: %v", err)
	}
	if decodedReq.Name != "cn=admin,dc=example,dc=com" {
		t.Fatalf("name: got %q", decodedReq.Name)
	}
	if decodedReq.AuthType != ldapcodec.AuthenticationTypeSimple {
		t.Fatalf("authType: got %d", decodedReq.AuthType)
	}
	if pw, _ := decodedReq.Credentials.(string); pw != "secret" {
		t.Fatalf("credentials: got %q", pw)
	}
}

func TestNewMessageEncodeDecodeLargeMessageID(t *testing.T) {
	// Regression: BerEncodeIntegerRaw previously mutated its receiver while
	// counting bytes, so any messageID > 127 serialized as garbage.
	req := &ldapcodec.UnbindRequest{}
	for _, id := range []ldapcodec.MessageID{128, 256, 70000, 2147483647} {
		msg := ldapcodec.NewMessage(id, ldapcodec.TypeUnbindRequestOp, req, nil)
		buf := bytes.NewBuffer(nil)
		if err := ldapcodec.EncodeMessage(buf, msg); err != nil {
			t.Fatalf("EncodeMessage(%d): %v", id, err)
		}
		decoded, err := ldapcodec.DecodeMessage(buf)
		if err != nil {
			t.Fatalf("DecodeMessage(%d): %v", id, err)
		}
		if decoded.MessageID != id {
			t.Errorf("messageID: got %d, want %d", decoded.MessageID, id)
		}
	}
}

func TestNewMessageWithControls(t *testing.T) {
	req := &ldapcodec.DelRequest{Object: "cn=stale,dc=example,dc=com"}
	controls := []ldapcodec.Control{
		{OID: "1.2.840.113556.1.4.805", Criticality: true},
		{OID: "1.3.6.1.4.1.4203.1.10.1", ControlValue: "value"},
	}
	msg := ldapcodec.NewMessage(7, ldapcodec.TypeDeleteRequestOp, req, controls)

	buf := bytes.NewBuffer(nil)
	if err := ldapcodec.EncodeMessage(buf, msg); err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}

	decoded, err := ldapcodec.DecodeMessage(buf)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if len(decoded.Controls) != 2 {
		t.Fatalf("expected 2 controls, got %d", len(decoded.Controls))
	}
	if decoded.Controls[0].OID != "1.2.840.113556.1.4.805" || !decoded.Controls[0].Criticality {
		t.Fatalf("unexpected first control: %+v", decoded.Controls[0])
	}
	if decoded.Controls[1].ControlValue != "value" {
		t.Fatalf("unexpected second control: %+v", decoded.Controls[1])
	}

	delReq, err := ldapcodec.GetDelRequest(decoded.ProtocolOp.Data)
	if err != nil {
		t.Fatalf("GetDelRequest: %v", err)
	}
	if delReq.Object != "cn=stale,dc=example,dc=com" {
		t.Fatalf("object: got %q", delReq.Object)
	}
}
