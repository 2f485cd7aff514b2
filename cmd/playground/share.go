package main

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"patternweb/playground/pkg/cli"
	"patternweb/playground/pkg/source"
)

var shareFlags struct {
	pattern string
	baseURL string
}

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Print a deep link that carries a pattern source",
	Long: `Print a playground URL whose "code" parameter is the base64url-encoded
pattern source. Opening it loads the source into a fresh session.

Examples:
  # Share a pattern file
  playground share --pattern header.pat

  # Read the source from stdin
  cat header.pat | playground share --pattern -`,
	RunE: runShare,
}

func init() {
	rootCmd.AddCommand(shareCmd)

	shareCmd.Flags().StringVarP(&shareFlags.pattern, "pattern", "p", "", "pattern file to share (- for stdin)")
	shareCmd.Flags().StringVar(&shareFlags.baseURL, "base-url", "http://127.0.0.1:8080/", "playground URL the link points at")
	_ = shareCmd.MarkFlagRequired("pattern")
}

func runShare(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if shareFlags.pattern == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(shareFlags.pattern)
	}
	if err != nil {
		return cli.NewCommandError("share", fmt.Errorf("failed to read pattern: %w", err))
	}

	link, err := shareLink(shareFlags.baseURL, string(data))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}

// shareLink sets the code parameter of base to the encoded source.
func shareLink(base, content string) (string, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", cli.NewConfigError("base-url", fmt.Sprintf("invalid URL %q", base))
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	q := u.Query()
	q.Del("gist")
	q.Set("code", source.EncodeURLParam(content))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
