package commands

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/jvanzyl/ldapcodec"
	"github.com/jvanzyl/ldapcodec/internal/config"
	"github.com/spf13/cobra"
)

var (
	bindDN          string
	bindPassword    string
	searchBase      string
	timeLimit       time.Duration
	hopLimit        int
	followReferrals bool
)

var dialCmd = &cobra.Command{
	Use:   "dial <addr> <filter> [attrs...]",
	Short: "Bind and search against an LDAP server, streaming decoded results",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runDial,
}

func init() {
	dialCmd.Flags().StringVarP(&bindDN, "bind-dn", "b", "", "DN to bind as (anonymous if empty)")
	dialCmd.Flags().StringVarP(&bindPassword, "password", "w", "", "simple bind password")
	dialCmd.Flags().StringVar(&searchBase, "base", "", "search base DN")
	dialCmd.Flags().DurationVar(&timeLimit, "time-limit", 0, "client-side time limit per request (0 = none)")
	dialCmd.Flags().IntVar(&hopLimit, "hop-limit", 0, "HopLimit to set in the loaded constraints (0 = keep config value); dial follows no referrals")
	dialCmd.Flags().BoolVar(&followReferrals, "follow-referrals", false, "set ReferralFollowing in the loaded constraints; dial prints search references without following them")
}

func runDial(cmd *cobra.Command, args []string) error {
	addr, filterStr, attrs := args[0], args[1], args[2:]

	constraints, err := config.Load(dialCmd.Flags(), cfgFile)
	if err != nil {
		return fmt.Errorf("loading constraints: %w", err)
	}
	if timeLimit > 0 {
		constraints.TimeLimit = timeLimit
	}
	if hopLimit > 0 {
		constraints.HopLimit = hopLimit
	}
	if followReferrals {
		constraints.ReferralFollowing = followReferrals
	}

	filter, err := ldapcodec.ParseFilterString(filterStr)
	if err != nil {
		return fmt.Errorf("parsing filter: %w", err)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	if err := bind(conn, constraints); err != nil {
		return err
	}
	return search(conn, constraints, searchBase, filter, attrs)
}

func withDeadline(conn net.Conn, constraints *ldapcodec.Constraints) error {
	if constraints.TimeLimit <= 0 {
		return conn.SetDeadline(time.Time{})
	}
	return conn.SetDeadline(time.Now().Add(constraints.TimeLimit))
}

func bind(conn net.Conn, constraints *ldapcodec.Constraints) error {
	if err := withDeadline(conn, constraints); err != nil {
		return err
	}
	req := ldapcodec.NewSimpleBindRequest(bindDN, bindPassword)
	msg := ldapcodec.NewMessage(ldapcodec.NextMessageID(), ldapcodec.TypeBindRequestOp, req, constraints.Controls)
	if err := ldapcodec.EncodeMessage(conn, msg); err != nil {
		return fmt.Errorf("sending BindRequest: %w", err)
	}
	resp, err := ldapcodec.DecodeMessage(conn)
	if err != nil {
		return fmt.Errorf("reading BindResponse: %w", err)
	}
	res, err := ldapcodec.GetResult(resp.ProtocolOp.Data)
	if err != nil {
		return fmt.Errorf("decoding BindResponse: %w", err)
	}
	if res.ResultCode != ldapcodec.ResultSuccess {
		return &ldapcodec.ProtocolResultError{
			ResultCode:        res.ResultCode,
			MatchedDN:         res.MatchedDN,
			DiagnosticMessage: res.DiagnosticMessage,
			Referral:          res.Referral,
		}
	}
	log.Println("bind succeeded")
	return nil
}

func search(conn net.Conn, constraints *ldapcodec.Constraints, base string, filter *ldapcodec.Filter, attrs []string) error {
	if err := withDeadline(conn, constraints); err != nil {
		return err
	}
	req := &ldapcodec.SearchRequest{
		BaseObject:   base,
		Scope:        ldapcodec.SearchScopeWholeSubtree,
		DerefAliases: ldapcodec.AliasDerefNever,
		SizeLimit:    0,
		TimeLimit:    uint32(constraints.TimeLimit / time.Second),
		TypesOnly:    false,
		Filter:       filter,
		Attributes:   attrs,
	}
	msg := ldapcodec.NewMessage(ldapcodec.NextMessageID(), ldapcodec.TypeSearchRequestOp, req, constraints.Controls)
	if err := ldapcodec.EncodeMessage(conn, msg); err != nil {
		return fmt.Errorf("sending SearchRequest: %w", err)
	}
	for {
		resp, err := ldapcodec.DecodeMessage(conn)
		if err != nil {
			return fmt.Errorf("reading search response: %w", err)
		}
		switch resp.ProtocolOp.Type {
		case ldapcodec.TypeSearchResultEntryOp:
			entry, err := ldapcodec.GetSearchResultEntry(resp.ProtocolOp.Data)
			if err != nil {
				return fmt.Errorf("decoding SearchResultEntry: %w", err)
			}
			fmt.Println(entry.ObjectName)
		case ldapcodec.TypeSearchResultReferenceOp:
			refSeq, err := ldapcodec.BerGetSequence(resp.ProtocolOp.Data)
			if err != nil {
				return fmt.Errorf("decoding SearchResultReference: %w", err)
			}
			for _, r := range refSeq {
				fmt.Println("referral:", ldapcodec.BerGetOctetString(r.Data))
			}
		case ldapcodec.TypeSearchResultDoneOp:
			res, err := ldapcodec.GetResult(resp.ProtocolOp.Data)
			if err != nil {
				return fmt.Errorf("decoding SearchResultDone: %w", err)
			}
			if res.ResultCode != ldapcodec.ResultSuccess {
				return &ldapcodec.ProtocolResultError{
					ResultCode:        res.ResultCode,
					MatchedDN:         res.MatchedDN,
					DiagnosticMessage: res.DiagnosticMessage,
					Referral:          res.Referral,
				}
			}
			return nil
		default:
			return ldapcodec.ErrStructuralMismatch.WithInfo("unexpected search response tag", resp.ProtocolOp.Type)
		}
	}
}
