// Command hashpw prints a bcrypt hash for ADMIN_PASSWORD_HASH. The password is
// read from the first argument or, when absent, from the first line of stdin.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/itechteam/formdesk/internal/security"
)

func main() {
	var password string

	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: hashpw <password>  (or pipe it on stdin)")
			os.Exit(2)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
