// Command ldapdump dials an LDAP server or decodes a captured LBER stream
// and prints the decoded message tree, exercising the codec from the
// command line without requiring a full client or server.
package main

import (
	"fmt"
	"os"

	"github.com/jvanzyl/ldapcodec/cmd/ldapdump/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
