/*
Copyright © 2025 Logicos Software

pkipipe - certificate and key store pipelines

This is the main entry point for the pkipipe command-line tool.
pkipipe evaluates pipeline expressions over certificates, keys and key
stores read from PEM, DER, PKCS#12, JKS and OpenSSH files or from YubiKey
PIV slots.
*/
package main

import "pkipipe/cmd"

// main delegates all command handling to the cmd package.
func main() {
	cmd.Execute()
}
