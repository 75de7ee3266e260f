package toolexecutor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// CLIApprovalHandler handles approval requests via CLI prompts
type CLIApprovalHandler struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewCLIApprovalHandler creates a new CLI approval handler.
// One buffered reader is kept so consecutive prompts never lose input.
func NewCLIApprovalHandler(reader io.Reader, writer io.Writer) *CLIApprovalHandler {
	return &CLIApprovalHandler{
		reader: bufio.NewReader(reader),
		writer: writer,
	}
}

// RequestApproval prompts the user for approval via CLI
func (c *CLIApprovalHandler) RequestApproval(ctx context.Context, req ApprovalRequest) (ApprovalResponse, error) {
	c.displayApprovalRequest(req)

	responseChan := make(chan ApprovalResponse, 1)
	errorChan := make(chan error, 1)

	go func() {
		response, err := c.readUserInput(req)
		if err != nil {
			errorChan <- err
		} else {
			responseChan <- response
		}
	}()

	select {
	case response := <-responseChan:
		return response, nil

	case err := <-errorChan:
		return ApprovalResponse{}, err

	case <-ctx.Done():
		fmt.Fprintln(c.writer, "")
		fmt.Fprintln(c.writer, "  Confirmation interrupted")
		return ApprovalResponse{Approved: false, Reason: "interrupted"}, ctx.Err()
	}
}

// displayApprovalRequest displays the approval request to the user
func (c *CLIApprovalHandler) displayApprovalRequest(req ApprovalRequest) {
	fmt.Fprintln(c.writer, "")
	fmt.Fprintln(c.writer, "╔════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(c.writer, "║              ⚠️  DESTRUCTIVE ACTION                             ║")
	fmt.Fprintln(c.writer, "╚════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(c.writer, "")
	fmt.Fprintf(c.writer, "  Step:       %d of %d\n", req.Step, req.Total)
	fmt.Fprintf(c.writer, "  Tool:       %s\n", req.Call.Name)

	if len(req.Call.Args) > 0 {
		keys := make([]string, 0, len(req.Call.Args))
		for k := range req.Call.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(c.writer, "  Arguments:")
		for _, k := range keys {
			fmt.Fprintf(c.writer, "    %s: %v\n", k, req.Call.Args[k])
		}
	}

	if req.WorkingDir != "" {
		fmt.Fprintf(c.writer, "  Directory:  %s\n", req.WorkingDir)
	}

	if req.Reason != "" {
		fmt.Fprintf(c.writer, "  Why:        %s\n", req.Reason)
	}

	fmt.Fprintln(c.writer, "")
	fmt.Fprint(c.writer, "  Proceed? [y/N]: ")
}

// readUserInput reads and parses user input
func (c *CLIApprovalHandler) readUserInput(req ApprovalRequest) (ApprovalResponse, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		if err == io.EOF {
			fmt.Fprintln(c.writer, "")
			return ApprovalResponse{Approved: false, Reason: "no input provided"}, nil
		}
		return ApprovalResponse{}, fmt.Errorf("failed to read input: %w", err)
	}

	input := strings.TrimSpace(strings.ToLower(line))

	var response ApprovalResponse
	switch input {
	case "y", "yes":
		response = ApprovalResponse{Approved: true, Reason: "approved by user"}
		fmt.Fprintln(c.writer, "  ✅ Approved")

		log.Info().Str("tool", req.Call.Name).Msg("Step approved via CLI")

	case "n", "no", "":
		response = ApprovalResponse{Approved: false, Reason: "denied by user"}
		fmt.Fprintln(c.writer, "  ❌ Declined")

		log.Info().Str("tool", req.Call.Name).Msg("Step declined via CLI")

	default:
		response = ApprovalResponse{Approved: false, Reason: fmt.Sprintf("invalid input: %s", input)}
		fmt.Fprintf(c.writer, "  ⚠️  Invalid input: %s (treating as no)\n", input)

		log.Warn().
			Str("tool", req.Call.Name).
			Str("input", input).
			Msg("Invalid input for approval")
	}

	return response, nil
}
