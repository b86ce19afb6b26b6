package ldapcodec_test

import (
	"testing"

	"github.com/jvanzyl/ldapcodec"
)

func TestSearchRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.SearchRequest{
		BaseObject:   "dc=example,dc=com",
		Scope:        ldapcodec.SearchScopeWholeSubtree,
		DerefAliases: ldapcodec.AliasDerefNever,
		SizeLimit:    10,
		TimeLimit:    30,
		TypesOnly:    false,
		Filter:       &ldapcodec.Filter{Type: ldapcodec.FilterTypePresent, Data: "objectClass"},
		Attributes:   []string{"cn", "mail"},
	}
	decoded, err := ldapcodec.GetSearchRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetSearchRequest: %v", err)
	}
	if decoded.BaseObject != req.BaseObject || decoded.Scope != req.Scope || decoded.DerefAliases != req.DerefAliases {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
	if decoded.SizeLimit != 10 || decoded.TimeLimit != 30 || decoded.TypesOnly != false {
		t.Fatalf("unexpected limits: %+v", decoded)
	}
	if decoded.Filter.Type != ldapcodec.FilterTypePresent || decoded.Filter.Data.(string) != "objectClass" {
		t.Fatalf("unexpected filter: %+v", decoded.Filter)
	}
	if len(decoded.Attributes) != 2 || decoded.Attributes[0] != "cn" || decoded.Attributes[1] != "mail" {
		t.Fatalf("unexpected attributes: %v", decoded.Attributes)
	}
}

func TestSearchRequestEncodeDecodeLargeLimits(t *testing.T) {
	// Regression: SizeLimit/TimeLimit >= 256 require the multi-byte
	// BerEncodeIntegerRaw path, not just the single-byte case above.
	req := &ldapcodec.SearchRequest{
		BaseObject:   "dc=example,dc=com",
		Scope:        ldapcodec.SearchScopeWholeSubtree,
		DerefAliases: ldapcodec.AliasDerefNever,
		SizeLimit:    500,
		TimeLimit:    32768,
		TypesOnly:    false,
		Filter:       &ldapcodec.Filter{Type: ldapcodec.FilterTypePresent, Data: "objectClass"},
		Attributes:   []string{"cn", "mail"},
	}
	decoded, err := ldapcodec.GetSearchRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetSearchRequest: %v", err)
	}
	if decoded.SizeLimit != 500 || decoded.TimeLimit != 32768 {
		t.Fatalf("unexpected limits: %+v", decoded)
	}
}

func TestAddRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.AddRequest{
		Entry: "cn=new,dc=example,dc=com",
		Attributes: []ldapcodec.Attribute{
			{Description: "cn", Values: []string{"new"}},
			{Description: "objectClass", Values: []string{"top", "person"}},
		},
	}
	decoded, err := ldapcodec.GetAddRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetAddRequest: %v", err)
	}
	if decoded.Entry != req.Entry {
		t.Fatalf("entry: got %q", decoded.Entry)
	}
	if len(decoded.Attributes) != 2 || decoded.Attributes[1].Description != "objectClass" || len(decoded.Attributes[1].Values) != 2 {
		t.Fatalf("unexpected attributes: %+v", decoded.Attributes)
	}
}

func TestCompareRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.CompareRequest{Object: "cn=admin,dc=example,dc=com", Attribute: "mail", Value: "admin@example.com"}
	decoded, err := ldapcodec.GetCompareRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetCompareRequest: %v", err)
	}
	if *decoded != *req {
		t.Fatalf("got %+v, want %+v", decoded, req)
	}
}

func TestModifyRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.ModifyRequest{
		Object: "cn=admin,dc=example,dc=com",
		Changes: []ldapcodec.ModifyChange{
			{Operation: ldapcodec.ModifyReplace, Modification: ldapcodec.Attribute{Description: "mail", Values: []string{"new@example.com"}}},
			{Operation: ldapcodec.ModifyDelete, Modification: ldapcodec.Attribute{Description: "description"}},
		},
	}
	decoded, err := ldapcodec.GetModifyRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetModifyRequest: %v", err)
	}
	if decoded.Object != req.Object || len(decoded.Changes) != 2 {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
	if decoded.Changes[0].Operation != ldapcodec.ModifyReplace || decoded.Changes[0].Modification.Description != "mail" {
		t.Fatalf("unexpected change 0: %+v", decoded.Changes[0])
	}
	if decoded.Changes[1].Operation != ldapcodec.ModifyDelete {
		t.Fatalf("unexpected change 1: %+v", decoded.Changes[1])
	}
}

func TestModifyDNRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.ModifyDNRequest{
		Object:       "cn=old,dc=example,dc=com",
		NewRDN:       "cn=new",
		DeleteOldRDN: true,
		NewSuperior:  "ou=people,dc=example,dc=com",
	}
	decoded, err := ldapcodec.GetModifyDNRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetModifyDNRequest: %v", err)
	}
	if *decoded != *req {
		t.Fatalf("got %+v, want %+v", decoded, req)
	}
}

func TestModifyDNRequestEncodeDecodeNoNewSuperior(t *testing.T) {
	req := &ldapcodec.ModifyDNRequest{Object: "cn=old,dc=example,dc=com", NewRDN: "cn=new", DeleteOldRDN: false}
	decoded, err := ldapcodec.GetModifyDNRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetModifyDNRequest: %v", err)
	}
	if decoded.NewSuperior != "" {
		t.Fatalf("expected empty NewSuperior, got %q", decoded.NewSuperior)
	}
}

func TestExtendedRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.ExtendedRequest{Name: "1.3.6.1.4.1.4203.1.11.1", Value: "payload"}
	decoded, err := ldapcodec.GetExtendedRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetExtendedRequest: %v", err)
	}
	if decoded.Name != req.Name || decoded.Value != req.Value {
		t.Fatalf("got %+v, want %+v", decoded, req)
	}
}

func TestDelRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.DelRequest{Object: "cn=gone,dc=example,dc=com"}
	decoded, err := ldapcodec.GetDelRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetDelRequest: %v", err)
	}
	if decoded.Object != req.Object {
		t.Fatalf("got %q, want %q", decoded.Object, req.Object)
	}
}

func TestAbandonRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.AbandonRequest{MessageID: 99}
	decoded, err := ldapcodec.GetAbandonRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetAbandonRequest: %v", err)
	}
	if decoded.MessageID != req.MessageID {
		t.Fatalf("got %d, want %d", decoded.MessageID, req.MessageID)
	}
}

func TestUnbindRequestEncodeDecode(t *testing.T) {
	req := &ldapcodec.UnbindRequest{}
	decoded, err := ldapcodec.GetUnbindRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetUnbindRequest: %v", err)
	}
	if *decoded != *req {
		t.Fatalf("got %+v", decoded)
	}
}

func TestBindRequestSASLEncodeDecode(t *testing.T) {
	req := &ldapcodec.BindRequest{
		Version:     3,
		Name:        "",
		AuthType:    ldapcodec.AuthenticationTypeSASL,
		Credentials: &ldapcodec.SASLCredentials{Mechanism: "DIGEST-MD5", Credentials: "blob"},
	}
	decoded, err := ldapcodec.GetBindRequest(req.Encode())
	if err != nil {
		t.Fatalf("GetBindRequest: %v", err)
	}
	if decoded.AuthType != ldapcodec.AuthenticationTypeSASL {
		t.Fatalf("authType: got %d", decoded.AuthType)
	}
	sc, ok := decoded.Credentials.(*ldapcodec.SASLCredentials)
	if !ok || sc.Mechanism != "DIGEST-MD5" || sc.Credentials != "blob" {
		t.Fatalf("unexpected credentials: %+v", decoded.Credentials)
	}
}
