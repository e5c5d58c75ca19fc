/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Command fwsig signs, verifies and inspects firmware manifests.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fwsig/fwsig/internal/bundle"
	"github.com/fwsig/fwsig/internal/manifest"
	"github.com/fwsig/fwsig/internal/metadata"
)

const usage = `Usage: fwsig <command> [flags]

Commands:
  sign     sign an application image and metadata blob
  verify   check a bundle or detached manifest against trusted keys
  inspect  decode a manifest and print its contents
  keygen   generate a signing keypair

Run "fwsig <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "sign":
		err = runSign(os.Args[2:])
	case "verify":
		err = runVerify(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "keygen":
		err = runKeygen(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "fwsig: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fwsig: %v\n", err)
		os.Exit(1)
	}
}

func runSign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	appPath := fs.String("app", "", "application image to sign")
	metaPath := fs.String("meta", "", "metadata blob to sign")
	metaFormat := fs.String("meta-format", "bin", "metadata format: bin, json, cbor or other")
	keyHex := fs.String("key", "", "signing key as hex; omit to sign with a fresh transient key")
	name := fs.String("name", "", "application name (at most 16 bytes)")
	appVersion := fs.String("app-version", "", "application version (at most 24 bytes)")
	detached := fs.Bool("detached", false, "write only the encoded manifest instead of a combined bundle")
	output := fs.String("output", "", "output file")
	fs.Parse(args)

	if *appPath == "" || *metaPath == "" || *output == "" {
		fs.Usage()
		os.Exit(2)
	}

	kind, err := manifest.ParseMetadataKind(*metaFormat)
	if err != nil {
		return err
	}

	app, err := os.ReadFile(*appPath)
	if err != nil {
		return fmt.Errorf("reading app: %w", err)
	}
	meta, err := os.ReadFile(*metaPath)
	if err != nil {
		return fmt.Errorf("reading metadata: %w", err)
	}

	var key *manifest.PrivateKey
	if *keyHex != "" {
		parsed, err := manifest.ParsePrivateKey(*keyHex)
		if err != nil {
			return err
		}
		key = &parsed
	}

	m, err := manifest.NewBuilder().
		Name(*name).
		Version(*appVersion).
		AppBytes(app).
		MetaBytes(kind, meta).
		Build(key, rand.Reader)
	if err != nil {
		return err
	}

	if m.Flags.TransientKey() {
		fmt.Fprintf(os.Stderr, "signed with transient key %s\n", m.Key)
	}

	if *detached {
		return bundle.WriteManifestFile(*output, m)
	}
	return bundle.WriteCombinedFile(*output, app, meta, m)
}

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	input := fs.String("input", "", "combined bundle to verify")
	manifestPath := fs.String("manifest", "", "detached manifest to verify (with -app and -meta)")
	appPath := fs.String("app", "", "application image for detached verification")
	metaPath := fs.String("meta", "", "metadata blob for detached verification")
	keysFlag := fs.String("keys", "", "comma-separated trusted public keys as hex")
	fs.Parse(args)

	allowed, err := parseKeyList(*keysFlag)
	if err != nil {
		return err
	}

	var m *manifest.Manifest
	switch {
	case *input != "":
		data, err := os.ReadFile(*input)
		if err != nil {
			return fmt.Errorf("reading bundle: %w", err)
		}
		m, err = bundle.VerifyCombined(data, allowed)
		if err != nil {
			return err
		}
	case *manifestPath != "":
		if *appPath == "" || *metaPath == "" {
			fs.Usage()
			os.Exit(2)
		}
		encoded, err := os.ReadFile(*manifestPath)
		if err != nil {
			return fmt.Errorf("reading manifest: %w", err)
		}
		app, err := os.ReadFile(*appPath)
		if err != nil {
			return fmt.Errorf("reading app: %w", err)
		}
		meta, err := os.ReadFile(*metaPath)
		if err != nil {
			return fmt.Errorf("reading metadata: %w", err)
		}
		m, err = bundle.VerifyDetached(encoded, app, meta, allowed)
		if err != nil {
			return err
		}
	default:
		fs.Usage()
		os.Exit(2)
	}

	fmt.Printf("OK: %s %s signed by %s\n", m.AppName.Text(), m.AppVersion.Text(), m.Key)
	return nil
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	input := fs.String("input", "", "combined bundle or detached manifest to inspect")
	fs.Parse(args)

	if *input == "" {
		fs.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var m *manifest.Manifest
	var meta []byte
	combined := len(data) != manifest.EncodedLen
	if combined {
		_, meta, m, err = bundle.Split(data)
	} else {
		m, err = manifest.Decode(data)
	}
	if err != nil {
		return err
	}

	printManifest(m)
	if combined {
		fmt.Printf("\nmetadata (%s):\n%s\n", m.MetaKind, metadata.Render(m.MetaKind, meta))
	}
	return nil
}

func printManifest(m *manifest.Manifest) {
	fmt.Printf("version:       %#04x\n", m.Version)
	fmt.Printf("flags:         %#04x (transient key: %t)\n", uint16(m.Flags), m.Flags.TransientKey())
	fmt.Printf("app name:      %s\n", m.AppName.Text())
	fmt.Printf("app version:   %s\n", m.AppVersion.Text())
	fmt.Printf("app length:    %d\n", m.AppLen)
	fmt.Printf("app checksum:  %s\n", m.AppChecksum)
	fmt.Printf("meta kind:     %s\n", m.MetaKind)
	fmt.Printf("meta length:   %d\n", m.MetaLen)
	fmt.Printf("meta checksum: %s\n", m.MetaChecksum)
	fmt.Printf("public key:    %s\n", m.Key)
	fmt.Printf("signature:     %s\n", m.Sig)
}

func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	fs.Parse(args)

	key, err := manifest.GeneratePrivateKey(rand.Reader)
	if err != nil {
		return err
	}
	fmt.Printf("private: %s\n", key)
	fmt.Printf("public:  %s\n", key.Public())
	return nil
}

func parseKeyList(s string) ([]manifest.PublicKey, error) {
	if s == "" {
		return nil, fmt.Errorf("at least one trusted key is required (-keys)")
	}

	var allowed []manifest.PublicKey
	for _, part := range strings.Split(s, ",") {
		pub, err := manifest.ParsePublicKey(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		allowed = append(allowed, pub)
	}
	return allowed, nil
}
