// Command blake3sum prints BLAKE3 digests of files, mirroring the coreutils
// *sum family: default unkeyed hashing, plus keyed-MAC and key-derivation
// subcommands.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gtank/blake3"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "blake3sum",
		Short: "blake3sum computes BLAKE3 digests of files",
	}
	root.AddCommand(hashCmd(), keyedCmd(), deriveKeyCmd())
	return root
}

func hashCmd() *cobra.Command {
	var parallel bool
	cmd := &cobra.Command{
		Use:   "hash <file> [file...]",
		Short: "hash prints the unkeyed BLAKE3 digest of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				sum, err := hashFile(path, parallel)
				if err != nil {
					return errors.Wrapf(err, "hashing %q", path)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sum, path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&parallel, "parallel", false, "fan subtree hashing out across goroutines")
	return cmd
}

func keyedCmd() *cobra.Command {
	var keyHex string
	cmd := &cobra.Command{
		Use:   "keyed <file> [file...]",
		Short: "keyed prints the keyed-MAC BLAKE3 digest of each file under --key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if keyHex == "" {
				return errors.New("--key is required")
			}
			keyBytes, err := hex.DecodeString(keyHex)
			if err != nil {
				return errors.Wrap(err, "decoding --key")
			}
			if len(keyBytes) != blake3.KeyLen {
				return errors.Errorf("--key must decode to %d bytes, got %d", blake3.KeyLen, len(keyBytes))
			}
			var key [blake3.KeyLen]byte
			copy(key[:], keyBytes)

			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return errors.Wrapf(err, "opening %q", path)
				}
				h := blake3.NewKeyed(key)
				_, err = io.Copy(h, f)
				f.Close()
				if err != nil {
					return errors.Wrapf(err, "reading %q", path)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", h.Finalize(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "32-byte key, hex encoded")
	return cmd
}

func deriveKeyCmd() *cobra.Command {
	var context string
	cmd := &cobra.Command{
		Use:   "derive-key <file> [file...]",
		Short: "derive-key prints a derived subkey for each file's contents under --context",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if context == "" {
				return errors.New("--context is required")
			}
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return errors.Wrapf(err, "opening %q", path)
				}
				h := blake3.NewDeriveKey(context)
				_, err = io.Copy(h, f)
				f.Close()
				if err != nil {
					return errors.Wrapf(err, "reading %q", path)
				}
				subkey := h.Finalize()
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", hex.EncodeToString(subkey[:]), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&context, "context", "", "context string for key derivation")
	return cmd
}

func hashFile(path string, parallel bool) (blake3.Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return blake3.Hash{}, err
	}
	defer f.Close()

	h := blake3.New()
	if parallel {
		buf, err := io.ReadAll(f)
		if err != nil {
			return blake3.Hash{}, err
		}
		h.UpdateParallel(buf)
		return h.Finalize(), nil
	}

	if _, err := io.Copy(h, f); err != nil {
		return blake3.Hash{}, err
	}
	return h.Finalize(), nil
}
