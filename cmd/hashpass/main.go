package main

import (
	"fmt"
	"os"

	"github.com/sorrisoclinic/clinic-api/internal/auth"
)

// hashpass prints an argon2id hash suitable for DOCTOR_PASSWORD_HASH.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(1)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("DOCTOR_PASSWORD_HASH='%s'\n", hash)
}
