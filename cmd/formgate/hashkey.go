package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/artpar/formgate/adapters/hasher"
	"github.com/artpar/formgate/adapters/random"
)

var (
	hashKeyCost     int
	hashKeyGenerate bool
	keySource       random.Source = random.Real{}
)

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [api-key]",
	Short: "Print the bcrypt hash of an admin API key",
	Long: `Print the bcrypt hash of an admin API key for auth.api_key_hash.

With --generate a new key is created and printed above its hash. Without
an argument the key is read from stdin, without echo on a terminal.

Examples:
  formgate hash-key my-secret-key
  formgate hash-key --generate
  echo -n "$KEY" | formgate hash-key`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHashKey,
}

func init() {
	rootCmd.AddCommand(hashKeyCmd)

	hashKeyCmd.Flags().IntVar(&hashKeyCost, "cost", 0, "bcrypt cost (default: bcrypt.DefaultCost)")
	hashKeyCmd.Flags().BoolVar(&hashKeyGenerate, "generate", false, "generate a new random key")
}

func runHashKey(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var key string
	switch {
	case hashKeyGenerate && len(args) > 0:
		return fmt.Errorf("pass a key or --generate, not both")
	case hashKeyGenerate:
		var err error
		if key, err = random.NewKey(keySource); err != nil {
			return err
		}
		fmt.Fprintf(out, "key:  %s\n", key)
	case len(args) == 1:
		key = args[0]
	default:
		var err error
		if key, err = readKey(cmd); err != nil {
			return err
		}
	}
	if key == "" {
		return fmt.Errorf("api key must not be empty")
	}

	hash, err := hasher.NewBcrypt(hashKeyCost).Hash(key)
	if err != nil {
		return fmt.Errorf("hash key: %w", err)
	}
	if hashKeyGenerate {
		fmt.Fprintf(out, "hash: %s\n", hash)
		return nil
	}
	fmt.Fprintln(out, string(hash))
	return nil
}

// readKey reads the key from stdin. Terminals get a prompt and no echo.
func readKey(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
		key, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read key: %w", err)
		}
		return string(key), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
