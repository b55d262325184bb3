// CLI tool to set the dashboard login password. Prints PASSWORD_HASH and a
// fresh JWT_SECRET to paste into .env.
// Usage: go run ./cmd/set-password
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

func main() {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Password: ")
	password, _ := reader.ReadString('\n')
	password = strings.TrimSpace(password)
	if len(password) < minPasswordLen {
		fmt.Fprintf(os.Stderr, "Password must be at least %d characters\n", minPasswordLen)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nAdd these lines to .env:\n\n")
	fmt.Print(envLines(string(hash), newSecret()))
}

// newSecret returns a random 64-character hex secret.
func newSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// envLines single-quotes the values; godotenv expands $ in unquoted and
// double-quoted values, and bcrypt hashes contain $.
func envLines(hash, secret string) string {
	return fmt.Sprintf("PASSWORD_HASH='%s'\nJWT_SECRET='%s'\n", hash, secret)
}
