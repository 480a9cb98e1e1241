package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mboxlabs/mailctl/internal/api"
	"github.com/mboxlabs/mailctl/internal/client"
	"github.com/mboxlabs/mailctl/internal/logging"
	"github.com/mboxlabs/mailctl/internal/session"
)

const envPassword = "MAILCTL_PASSWORD"

const usageText = `usage: mailctl [flags] <command> [args]

commands:
  login <username>                 authenticate and store the session
  logout                           end the session
  mailbox list                     list mailboxes
  mailbox get <address>            show one mailbox
  mailbox add <address> [flags]    create a mailbox
  mailbox edit <address> [flags]   update a mailbox
  mailbox del <address>            delete a mailbox
  domain list                      list domains
  domain get <name>                show one domain
  domain add <name> [flags]        create a domain
  domain edit <name> [flags]       update a domain
  domain del <name>                delete a domain
  analyze <mailbox> <email-id>     run AI analysis on one email
  stats                            analysis subsystem statistics
  health                           analysis subsystem health
`

func main() {
	logging.ConfigureRuntime()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "mailctl: %s\n", renderError(err))
		os.Exit(exitCode(err))
	}
}

var errUsage = errors.New("usage")

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("mailctl", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usageText) }
	configPath := fs.String("config", defaultConfigPath(), "config file path")
	baseURL := fs.String("base-url", "", "backend base URL (overrides config)")
	apiKey := fs.String("api-key", "", "static API key (overrides config)")
	sessionFile := fs.String("session-file", "", "session token file (overrides config)")
	timeout := fs.Duration("timeout", 0, "per-attempt timeout (overrides config)")
	retries := fs.Int("retries", -1, "max retries (overrides config)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}

	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	cfg, err := resolveConfig(*configPath, explicit, cliOverrides{
		baseURL:     *baseURL,
		apiKey:      *apiKey,
		sessionFile: *sessionFile,
		timeout:     *timeout,
		retries:     *retries,
	})
	if err != nil {
		return err
	}

	var store session.Store
	if cfg.SessionFile != "" {
		fileStore, err := session.NewFileStore(cfg.SessionFile)
		if err != nil {
			return err
		}
		store = fileStore
	} else {
		store = session.NewMemoryStore()
	}

	c, err := client.New(cfg.ClientConfig(), store)
	if err != nil {
		return err
	}
	svc := api.New(c)

	ctx := context.Background()
	return dispatch(ctx, svc, rest, out)
}

func dispatch(ctx context.Context, svc *api.Service, args []string, out io.Writer) error {
	switch args[0] {
	case "login":
		return cmdLogin(ctx, svc, args[1:])
	case "logout":
		return svc.Logout(ctx)
	case "mailbox":
		return cmdMailbox(ctx, svc, args[1:], out)
	case "domain":
		return cmdDomain(ctx, svc, args[1:], out)
	case "analyze":
		return cmdAnalyze(ctx, svc, args[1:], out)
	case "stats":
		stats, err := svc.AnalysisStatistics(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, stats)
	case "health":
		health, err := svc.AnalysisHealthCheck(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, health)
	default:
		fmt.Fprintf(os.Stderr, "mailctl: unknown command %q\n", args[0])
		return errUsage
	}
}

func cmdLogin(ctx context.Context, svc *api.Service, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	password := os.Getenv(envPassword)
	if password == "" {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	return svc.Login(ctx, args[0], password)
}

func cmdMailbox(ctx context.Context, svc *api.Service, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		boxes, err := svc.ListMailboxes(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, boxes)
	case "get":
		if len(args) != 2 {
			return errUsage
		}
		box, err := svc.GetMailbox(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(out, box)
	case "add", "edit":
		params, err := parseMailboxParams(args[1:])
		if err != nil {
			return err
		}
		if args[0] == "add" {
			return svc.CreateMailbox(ctx, params)
		}
		return svc.UpdateMailbox(ctx, params)
	case "del":
		if len(args) != 2 {
			return errUsage
		}
		return svc.DeleteMailbox(ctx, args[1])
	default:
		return errUsage
	}
}

func parseMailboxParams(args []string) (api.MailboxParams, error) {
	if len(args) == 0 {
		return api.MailboxParams{}, errUsage
	}
	fs := flag.NewFlagSet("mailbox", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	password := fs.String("password", "", "mailbox password")
	quota := fs.Int64("quota", 0, "quota in MB")
	inactive := fs.Bool("inactive", false, "create deactivated")
	if err := fs.Parse(args[1:]); err != nil {
		return api.MailboxParams{}, errUsage
	}
	return api.MailboxParams{
		Address:  args[0],
		Name:     *name,
		Password: *password,
		QuotaMB:  *quota,
		Active:   !*inactive,
	}, nil
}

func cmdDomain(ctx context.Context, svc *api.Service, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "list":
		domains, err := svc.ListDomains(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, domains)
	case "get":
		if len(args) != 2 {
			return errUsage
		}
		domain, err := svc.GetDomain(ctx, args[1])
		if err != nil {
			return err
		}
		return printJSON(out, domain)
	case "add", "edit":
		params, err := parseDomainParams(args[1:])
		if err != nil {
			return err
		}
		if args[0] == "add" {
			return svc.CreateDomain(ctx, params)
		}
		return svc.UpdateDomain(ctx, params)
	case "del":
		if len(args) != 2 {
			return errUsage
		}
		return svc.DeleteDomain(ctx, args[1])
	default:
		return errUsage
	}
}

func parseDomainParams(args []string) (api.DomainParams, error) {
	if len(args) == 0 {
		return api.DomainParams{}, errUsage
	}
	fs := flag.NewFlagSet("domain", flag.ContinueOnError)
	description := fs.String("description", "", "domain description")
	maxMailboxes := fs.Int("max-mailboxes", 0, "mailbox limit")
	inactive := fs.Bool("inactive", false, "create deactivated")
	if err := fs.Parse(args[1:]); err != nil {
		return api.DomainParams{}, errUsage
	}
	return api.DomainParams{
		Name:         args[0],
		Description:  *description,
		MaxMailboxes: *maxMailboxes,
		Active:       !*inactive,
	}, nil
}

func cmdAnalyze(ctx context.Context, svc *api.Service, args []string, out io.Writer) error {
	if len(args) < 2 {
		return errUsage
	}
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	force := fs.Bool("force", false, "bypass the backend's result cache")
	timeout := fs.Duration("wait", 2*time.Minute, "analysis wait budget")
	if err := fs.Parse(args[2:]); err != nil {
		return errUsage
	}
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	result, err := svc.AnalyzeEmail(ctx, args[0], args[1], *force)
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderError maps classified failures to readable one-liners. Multi-part
// backend messages arrive pre-joined via Error.Message.
func renderError(err error) string {
	var ce *client.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case client.KindUnauthorized:
			return "session rejected, log in again (mailctl login <username>)"
		case client.KindForbidden:
			return "permission denied: " + ce.Operation
		case client.KindApplication:
			return ce.Message()
		case client.KindRetriesExhausted:
			return "backend unreachable or failing, gave up after retries: " + err.Error()
		}
	}
	if errors.Is(err, errUsage) {
		return "invalid usage, see mailctl -h"
	}
	return err.Error()
}

func exitCode(err error) int {
	var ce *client.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case client.KindUnauthorized:
			return 3
		case client.KindForbidden:
			return 4
		case client.KindRetriesExhausted, client.KindNetworkFailure:
			return 5
		default:
			return 1
		}
	}
	if errors.Is(err, errUsage) {
		return 2
	}
	return 1
}
