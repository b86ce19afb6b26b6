package ldapcodec

// UnbindRequest ::= [APPLICATION 2] NULL
// Signals the client is closing the connection; no response follows.
type UnbindRequest struct{}

// Return an UnbindRequest from BER-encoded data
func GetUnbindRequest(data []byte) (*UnbindRequest, error) {
	if err := BerGetNull(data); err != nil {
		return nil, err
	}
	return &UnbindRequest{}, nil
}

// Returns the BER-encoded struct (without element header)
func (r *UnbindRequest) Encode() []byte {
	return []byte{}
}
