package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/retrykit/internal/core/retry"
)

var (
	classifyStatus int
	classifyCode   string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Show how an error would be classified",
	Args:  cobra.MinimumNArgs(1),
	Run:   runClassify,
}

func init() {
	classifyCmd.Flags().IntVar(&classifyStatus, "status", 0, "HTTP status attached to the error")
	classifyCmd.Flags().StringVar(&classifyCode, "code", "", "error code attached to the error (e.g. ECONNREFUSED)")
	rootCmd.AddCommand(classifyCmd)
}

// shapedError carries an explicit status and code for classification.
type shapedError struct {
	msg    string
	status int
	code   string
}

func (e *shapedError) Error() string { return e.msg }
func (e *shapedError) Status() int   { return e.status }
func (e *shapedError) Code() string  { return e.code }

func newShapedError(msg string, status int, code string) error {
	if status == 0 && code == "" {
		return errors.New(msg)
	}
	return &shapedError{msg: msg, status: status, code: code}
}

func runClassify(cmd *cobra.Command, args []string) {
	err := newShapedError(strings.Join(args, " "), classifyStatus, classifyCode)
	category := retry.Classify(err)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "CATEGORY\t%s\n", category)
	_, _ = fmt.Fprintf(w, "RETRYABLE\t%v\n", category.Retryable())
	_, _ = fmt.Fprintf(w, "MESSAGE\t%s\n", retry.MessageFor(category, err))
	_ = w.Flush()
}
