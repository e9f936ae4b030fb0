// Command hashpw generates the bcrypt hash an operator stores in
// ADMIN_PASSWORD_HASH for the admin login endpoint.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/dd0wney/keygate/pkg/auth"
)

func main() {
	fmt.Print("Password to hash: ")

	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read password: %v\n", err)
		os.Exit(1)
	}
	password = strings.TrimRight(password, "\r\n")

	if password == "" {
		fmt.Fprintln(os.Stderr, "password cannot be empty")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGenerated hash (store this in ADMIN_PASSWORD_HASH):")
	fmt.Println(hash)
}
