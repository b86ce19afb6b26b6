package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/jvanzyl/ldapcodec"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode one or more LBER-encoded LDAPMessages from a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

func runDecode(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	n := 0
	for {
		msg, err := ldapcodec.DecodeMessage(f)
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("decoding message %d: %w", n, err)
		}
		fmt.Printf("--- message %d ---\n", n)
		describeMessage(cmd.OutOrStdout(), msg)
		n++
	}
	fmt.Printf("decoded %d message(s)\n", n)
	return nil
}

func describeMessage(w io.Writer, msg *ldapcodec.Message) {
	fmt.Fprintf(w, "messageID: %d\n", msg.MessageID)
	fmt.Fprintf(w, "protocolOp tag: 0x%02x\n", msg.ProtocolOp.Type)
	describeProtocolOp(w, msg.ProtocolOp)
	for _, c := range msg.Controls {
		fmt.Fprintf(w, "control: oid=%s criticality=%v\n", c.OID, c.Criticality)
	}
}

// describeProtocolOp decodes well-known application tags for display.
// Unrecognized tags are left as raw bytes; decode is best-effort since
// this command exists to inspect captures, not to validate them.
func describeProtocolOp(w io.Writer, raw ldapcodec.BerRawElement) {
	switch raw.Type {
	case ldapcodec.TypeBindRequestOp:
		if req, err := ldapcodec.GetBindRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  BindRequest: version=%d name=%q authType=%d\n", req.Version, req.Name, req.AuthType)
		}
	case ldapcodec.TypeSearchRequestOp:
		if req, err := ldapcodec.GetSearchRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  SearchRequest: base=%q scope=%d filter=%s attrs=%v\n",
				req.BaseObject, req.Scope, req.Filter.String(), req.Attributes)
		}
	case ldapcodec.TypeSearchResultEntryOp:
		if entry, err := ldapcodec.GetSearchResultEntry(raw.Data); err == nil {
			fmt.Fprintf(w, "  SearchResultEntry: dn=%q attributes=%d\n", entry.ObjectName, len(entry.Attributes))
		}
	case ldapcodec.TypeSearchResultDoneOp, ldapcodec.TypeAddResponseOp, ldapcodec.TypeModifyResponseOp,
		ldapcodec.TypeDeleteResponseOp, ldapcodec.TypeModifyDNResponseOp, ldapcodec.TypeCompareResponseOp,
		ldapcodec.TypeBindResponseOp:
		if res, err := ldapcodec.GetResult(raw.Data); err == nil {
			fmt.Fprintf(w, "  Result: code=%d matchedDN=%q message=%q\n", res.ResultCode, res.MatchedDN, res.DiagnosticMessage)
		}
	case ldapcodec.TypeAddRequestOp:
		if req, err := ldapcodec.GetAddRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  AddRequest: entry=%q attributes=%d\n", req.Entry, len(req.Attributes))
		}
	case ldapcodec.TypeDeleteRequestOp:
		if req, err := ldapcodec.GetDelRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  DelRequest: %q\n", req.Object)
		}
	case ldapcodec.TypeCompareRequestOp:
		if req, err := ldapcodec.GetCompareRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  CompareRequest: %s %s=%q\n", req.Object, req.Attribute, req.Value)
		}
	case ldapcodec.TypeModifyRequestOp:
		if req, err := ldapcodec.GetModifyRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  ModifyRequest: object=%q changes=%d\n", req.Object, len(req.Changes))
		}
	case ldapcodec.TypeModifyDNRequestOp:
		if req, err := ldapcodec.GetModifyDNRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  ModifyDNRequest: object=%q newRDN=%q\n", req.Object, req.NewRDN)
		}
	case ldapcodec.TypeAbandonRequestOp:
		if req, err := ldapcodec.GetAbandonRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  AbandonRequest: messageID=%d\n", req.MessageID)
		}
	case ldapcodec.TypeUnbindRequestOp:
		fmt.Fprintln(w, "  UnbindRequest")
	case ldapcodec.TypeExtendedRequestOp:
		if req, err := ldapcodec.GetExtendedRequest(raw.Data); err == nil {
			fmt.Fprintf(w, "  ExtendedRequest: name=%s\n", req.Name)
		}
	default:
		fmt.Fprintf(w, "  (%d raw bytes)\n", len(raw.Data))
	}
}
